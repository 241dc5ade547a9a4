package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appservices "sage-backend/application/services"
	"sage-backend/domain/core/entities"
	"sage-backend/domain/services"
	"sage-backend/pkg/common"
	apperrors "sage-backend/pkg/errors"
	"sage-backend/pkg/utils"
)

// maxBodyBytes bounds request bodies; the spread graph is the largest payload
const maxBodyBytes = 1 << 20

// IntelligenceHandler exposes the intelligence pipeline over REST
type IntelligenceHandler struct {
	orchestrator *appservices.IntelligenceOrchestrator
	logger       *zap.Logger
}

// NewIntelligenceHandler creates a new intelligence handler
func NewIntelligenceHandler(orchestrator *appservices.IntelligenceOrchestrator, logger *zap.Logger) *IntelligenceHandler {
	return &IntelligenceHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// ProcessEventRequest is the payload for submitting one community event
type ProcessEventRequest struct {
	UserID       string   `json:"userId" validate:"required"`
	Kind         string   `json:"kind" validate:"required,oneof=message reaction join"`
	MessageText  string   `json:"messageText,omitempty"`
	Topics       []string `json:"topics,omitempty" validate:"max=20"`
	Participants []string `json:"participants,omitempty" validate:"max=100"`
	Significance float64  `json:"significance" validate:"gte=0,lte=1"`
	Timestamp    string   `json:"timestamp,omitempty"`
}

// ProcessEvent handles POST /communities/{communityID}/events
func (h *IntelligenceHandler) ProcessEvent(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "communityID")

	var req ProcessEventRequest
	if err := common.ParseJSONBody(w, r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	timestamp := time.Now()
	if req.Timestamp != "" {
		parsed, err := utils.ParseTimestamp(req.Timestamp)
		if err != nil {
			common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
			return
		}
		timestamp = parsed
	}

	event := &entities.CommunityEvent{
		CommunityID:  communityID,
		UserID:       req.UserID,
		Kind:         entities.EventKind(req.Kind),
		MessageText:  req.MessageText,
		Topics:       req.Topics,
		Participants: req.Participants,
		Significance: req.Significance,
		Timestamp:    timestamp,
	}

	result, err := h.orchestrator.ProcessEvent(r.Context(), event)
	if err != nil {
		h.respondAppError(w, err, "failed to process event")
		return
	}

	common.RespondJSON(w, http.StatusAccepted, result)
}

// GetInsights handles GET /communities/{communityID}/insights
func (h *IntelligenceHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "communityID")

	insights, err := h.orchestrator.GetInsights(r.Context(), communityID)
	if err != nil {
		h.respondAppError(w, err, "failed to build insights")
		return
	}

	common.RespondJSON(w, http.StatusOK, insights)
}

// MoodHistory handles GET /communities/{communityID}/mood/history
func (h *IntelligenceHandler) MoodHistory(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "communityID")
	params := common.ExtractPaginationParams(r)

	history, err := h.orchestrator.MoodHistory(r.Context(), communityID)
	if err != nil {
		h.respondAppError(w, err, "failed to read mood history")
		return
	}

	// Newest first: dashboards page backwards through time
	reversed := make([]entities.MoodSnapshot, len(history))
	for i, snapshot := range history {
		reversed[len(history)-1-i] = snapshot
	}

	from, to := params.Slice(len(reversed))
	common.RespondPage(w, r, map[string]interface{}{
		"communityId": communityID,
		"snapshots":   reversed[from:to],
	}, common.BuildPaginationInfo(params, len(reversed)))
}

// AdviceRequest describes the situation a moderator wants guidance on
type AdviceRequest struct {
	Situation string `json:"situation" validate:"required,min=3,max=2000"`
}

// Advise handles POST /communities/{communityID}/advice
func (h *IntelligenceHandler) Advise(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "communityID")

	var req AdviceRequest
	if err := common.ParseJSONBody(w, r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	plan, err := h.orchestrator.Advise(r.Context(), communityID, req.Situation)
	if err != nil {
		h.respondAppError(w, err, "failed to build guidance")
		return
	}

	common.RespondJSON(w, http.StatusOK, plan)
}

// RecallRequest describes a contextual memory recall
type RecallRequest struct {
	Participants []string `json:"participants,omitempty" validate:"max=100"`
	Tags         []string `json:"tags,omitempty" validate:"max=20"`
	Limit        int      `json:"limit,omitempty" validate:"gte=0,lte=50"`
}

// recalledFragment is the wire shape of one recalled memory
type recalledFragment struct {
	FragmentID   string   `json:"fragmentId"`
	Kind         string   `json:"kind"`
	Importance   float64  `json:"importance"`
	Relevance    float64  `json:"relevance"`
	Tags         []string `json:"tags,omitempty"`
	Participants []string `json:"participants,omitempty"`
	CreatedAt    string   `json:"createdAt"`
}

// Recall handles POST /communities/{communityID}/recall
func (h *IntelligenceHandler) Recall(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "communityID")

	var req RecallRequest
	if err := common.ParseJSONBody(w, r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	scored, err := h.orchestrator.Recall(r.Context(), communityID, services.RecallContext{
		Participants: req.Participants,
		Tags:         req.Tags,
	}, req.Limit)
	if err != nil {
		h.respondAppError(w, err, "failed to recall memories")
		return
	}

	fragments := make([]recalledFragment, 0, len(scored))
	for _, s := range scored {
		fragments = append(fragments, recalledFragment{
			FragmentID:   s.Fragment.ID().String(),
			Kind:         string(s.Fragment.Kind()),
			Importance:   s.Fragment.Importance(),
			Relevance:    s.Relevance,
			Tags:         s.Fragment.Tags(),
			Participants: s.Fragment.Participants(),
			CreatedAt:    s.Fragment.CreatedAt().UTC().Format(time.RFC3339),
		})
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"communityId": communityID,
		"fragments":   fragments,
	})
}

// SpreadRequest describes a what-if contagion simulation
type SpreadRequest struct {
	SourceUserID string `json:"sourceUserId" validate:"required"`
	Graph        map[string][]struct {
		UserID string  `json:"userId" validate:"required"`
		Weight float64 `json:"weight" validate:"gte=0,lte=1"`
	} `json:"graph" validate:"required"`
}

// SimulateSpread handles POST /communities/{communityID}/spread
func (h *IntelligenceHandler) SimulateSpread(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "communityID")

	var req SpreadRequest
	if err := common.ParseJSONBody(w, r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	graph := make(entities.SocialGraph, len(req.Graph))
	for userID, neighbors := range req.Graph {
		edges := make([]entities.GraphNeighbor, 0, len(neighbors))
		for _, n := range neighbors {
			edges = append(edges, entities.GraphNeighbor{UserID: n.UserID, Weight: n.Weight})
		}
		graph[userID] = edges
	}

	result, err := h.orchestrator.SimulateSpread(r.Context(), communityID, req.SourceUserID, graph)
	if err != nil {
		h.respondAppError(w, err, "failed to simulate spread")
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// PostingTimes handles GET /communities/{communityID}/predictions/posting-times
func (h *IntelligenceHandler) PostingTimes(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "communityID")

	slots, err := h.orchestrator.PredictPostingTimes(r.Context(), communityID, time.Now())
	if err != nil {
		h.respondAppError(w, err, "failed to predict posting times")
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"communityId": communityID,
		"slots":       slots,
	})
}

// GlobalPatterns handles GET /patterns
func (h *IntelligenceHandler) GlobalPatterns(w http.ResponseWriter, r *http.Request) {
	patterns, err := h.orchestrator.GlobalPatterns(r.Context())
	if err != nil {
		h.respondAppError(w, err, "failed to aggregate patterns")
		return
	}

	common.RespondJSON(w, http.StatusOK, patterns)
}

// respondAppError maps application errors onto HTTP status codes
func (h *IntelligenceHandler) respondAppError(w http.ResponseWriter, err error, fallback string) {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.RespondError(w, status, string(appErr.Type), appErr.Message)
		return
	}

	h.logger.Error(fallback, zap.Error(err))
	common.RespondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
}
