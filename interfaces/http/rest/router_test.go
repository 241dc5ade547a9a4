package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appservices "sage-backend/application/services"
	"sage-backend/domain/services"
	"sage-backend/infrastructure/config"
	"sage-backend/pkg/common"
	"sage-backend/pkg/ratelimit"
)

func newTestServer(t *testing.T, communityLimiter ratelimit.Limiter) *httptest.Server {
	t.Helper()

	registry := appservices.NewCommunityRegistry(nil, nil)
	t.Cleanup(registry.Close)

	scorer := services.NewLexiconScorer()
	orchestrator := appservices.NewIntelligenceOrchestrator(appservices.OrchestratorDeps{
		Registry:  registry,
		Scorer:    scorer,
		Simulator: services.NewInfluenceSpreadSimulator(nil, scorer, nil),
		Monitor:   services.NewWellnessMonitor(nil),
		Memory:    services.NewFragmentMemoryGraph(nil),
		Predictor: services.NewSocialPredictor(nil),
		Analyzer:  services.NewPatternAnalyzer(),
		Advisor:   services.NewAdviceAdvisor(),
	})

	cfg := &config.Config{Environment: "development"}
	router := NewRouter(orchestrator, cfg, nil, nil, communityLimiter, zap.NewNop())

	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)
	return server
}

func postEvent(t *testing.T, server *httptest.Server, community string, payload map[string]interface{}) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(
		server.URL+"/api/v1/communities/"+community+"/events",
		"application/json",
		bytes.NewReader(body),
	)
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) common.APIResponse {
	t.Helper()
	defer resp.Body.Close()

	var envelope common.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProcessEventEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	resp := postEvent(t, server, "guild-1", map[string]interface{}{
		"userId":       "alice",
		"kind":         "message",
		"messageText":  "what a great raid, awesome work everyone!",
		"topics":       []string{"raid"},
		"significance": 0.4,
	})

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	envelope := decodeEnvelope(t, resp)
	assert.True(t, envelope.Success)
	require.NotNil(t, envelope.Data)

	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, "guild-1", data["communityId"])
	require.Contains(t, data, "snapshot")
}

func TestProcessEventValidation(t *testing.T) {
	server := newTestServer(t, nil)

	resp := postEvent(t, server, "guild-1", map[string]interface{}{
		"userId": "alice",
		"kind":   "teleport",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	envelope := decodeEnvelope(t, resp)
	assert.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
}

func TestProcessEventRejectsUnknownFields(t *testing.T) {
	server := newTestServer(t, nil)

	resp := postEvent(t, server, "guild-1", map[string]interface{}{
		"userId":  "alice",
		"kind":    "message",
		"exploit": true,
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInsightsEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	resp := postEvent(t, server, "guild-2", map[string]interface{}{
		"userId":       "bob",
		"kind":         "message",
		"messageText":  "love this community",
		"significance": 0.5,
	})
	resp.Body.Close()

	insightsResp, err := http.Get(server.URL + "/api/v1/communities/guild-2/insights")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, insightsResp.StatusCode)

	envelope := decodeEnvelope(t, insightsResp)
	require.True(t, envelope.Success)

	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, "guild-2", data["communityId"])
	assert.Contains(t, data, "healthScore")
	assert.Contains(t, data, "moodAnalysis")
}

func TestMoodHistoryPagination(t *testing.T) {
	server := newTestServer(t, nil)

	for i := 0; i < 5; i++ {
		resp := postEvent(t, server, "guild-3", map[string]interface{}{
			"userId":       fmt.Sprintf("user-%d", i),
			"kind":         "message",
			"messageText":  "hello there",
			"significance": 0.1,
		})
		resp.Body.Close()
	}

	resp, err := http.Get(server.URL + "/api/v1/communities/guild-3/mood/history?page=1&page_size=2")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	require.True(t, envelope.Success)
	require.NotNil(t, envelope.Meta)
	require.NotNil(t, envelope.Meta.Pagination)

	pagination := envelope.Meta.Pagination
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 2, pagination.PageSize)
	assert.Equal(t, 5, pagination.Total)
	assert.Equal(t, 3, pagination.TotalPages)
	assert.True(t, pagination.HasNext)
	assert.False(t, pagination.HasPrev)

	data := envelope.Data.(map[string]interface{})
	snapshots := data["snapshots"].([]interface{})
	assert.Len(t, snapshots, 2)
}

func TestAdviceEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	body, _ := json.Marshal(map[string]string{"situation": "two members are in a heated conflict"})
	resp, err := http.Post(
		server.URL+"/api/v1/communities/guild-4/advice",
		"application/json",
		bytes.NewReader(body),
	)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	require.True(t, envelope.Success)

	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, "conflict", data["category"])
	assert.NotEmpty(t, data["primaryGuidance"])
}

func TestSpreadEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	body, _ := json.Marshal(map[string]interface{}{
		"sourceUserId": "alice",
		"graph": map[string]interface{}{
			"alice": []map[string]interface{}{{"userId": "bob", "weight": 1.0}},
			"bob":   []map[string]interface{}{},
		},
	})
	resp, err := http.Post(
		server.URL+"/api/v1/communities/guild-5/spread",
		"application/json",
		bytes.NewReader(body),
	)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	require.True(t, envelope.Success)

	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["totalAffected"])
}

func TestGlobalPatternsEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	resp, err := http.Get(server.URL + "/api/v1/patterns")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	assert.True(t, envelope.Success)
}

func TestCommunityRateLimit(t *testing.T) {
	limiter := ratelimit.NewTokenBucketLimiter(2, time.Minute)
	t.Cleanup(limiter.Close)

	server := newTestServer(t, limiter)

	payload := map[string]interface{}{
		"userId":       "alice",
		"kind":         "message",
		"messageText":  "hello",
		"significance": 0.1,
	}

	for i := 0; i < 2; i++ {
		resp := postEvent(t, server, "guild-6", payload)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		resp.Body.Close()
	}

	resp := postEvent(t, server, "guild-6", payload)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	resp.Body.Close()

	// Other communities are unaffected
	other := postEvent(t, server, "guild-7", payload)
	assert.Equal(t, http.StatusAccepted, other.StatusCode)
	other.Body.Close()
}
