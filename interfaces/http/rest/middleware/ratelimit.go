package middleware

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sage-backend/pkg/ratelimit"
)

// RateLimitByIP applies limiter per client IP across the whole API
func RateLimitByIP(limiter ratelimit.Limiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, _ := limiter.Allow(r.Context(), "ip:"+clientIP(r))
			if !allowed {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByCommunity throttles event ingestion per community so one noisy
// community cannot starve the pipeline for the rest.
func RateLimitByCommunity(limiter ratelimit.Limiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			communityID := chi.URLParam(r, "communityID")
			if communityID != "" {
				allowed, _ := limiter.Allow(r.Context(), "community:"+communityID)
				if !allowed {
					http.Error(w, "community event rate limit exceeded", http.StatusTooManyRequests)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
