package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appservices "sage-backend/application/services"
	"sage-backend/infrastructure/config"
	"sage-backend/interfaces/http/rest/handlers"
	"sage-backend/interfaces/http/rest/middleware"
	"sage-backend/pkg/observability"
	"sage-backend/pkg/ratelimit"
)

// Router creates and configures the HTTP router
type Router struct {
	orchestrator     *appservices.IntelligenceOrchestrator
	cfg              *config.Config
	metrics          *observability.Collector
	ipLimiter        ratelimit.Limiter
	communityLimiter ratelimit.Limiter
	logger           *zap.Logger
}

// NewRouter creates a new router instance. Either limiter may be nil, which
// disables that layer of throttling.
func NewRouter(
	orchestrator *appservices.IntelligenceOrchestrator,
	cfg *config.Config,
	metrics *observability.Collector,
	ipLimiter ratelimit.Limiter,
	communityLimiter ratelimit.Limiter,
	logger *zap.Logger,
) *Router {
	return &Router{
		orchestrator:     orchestrator,
		cfg:              cfg,
		metrics:          metrics,
		ipLimiter:        ipLimiter,
		communityLimiter: communityLimiter,
		logger:           logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}
	if rt.ipLimiter != nil {
		router.Use(middleware.RateLimitByIP(rt.ipLimiter))
	}

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health and operational endpoints
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.cfg.EnableMetrics && rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		intelligence := handlers.NewIntelligenceHandler(rt.orchestrator, rt.logger)

		r.Route("/communities/{communityID}", func(r chi.Router) {
			if rt.communityLimiter != nil {
				r.With(middleware.RateLimitByCommunity(rt.communityLimiter)).
					Post("/events", intelligence.ProcessEvent)
			} else {
				r.Post("/events", intelligence.ProcessEvent)
			}
			r.Get("/insights", intelligence.GetInsights)
			r.Get("/mood/history", intelligence.MoodHistory)
			r.Post("/advice", intelligence.Advise)
			r.Post("/recall", intelligence.Recall)
			r.Post("/spread", intelligence.SimulateSpread)
			r.Get("/predictions/posting-times", intelligence.PostingTimes)
		})

		r.Get("/patterns", intelligence.GlobalPatterns)
	})

	return router
}

// healthCheck handles liveness probes
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// readinessCheck handles readiness probes
func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}
