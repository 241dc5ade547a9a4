package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sage-backend/domain/config"
	"sage-backend/domain/core/aggregates"
	"sage-backend/domain/core/entities"
	apperrors "sage-backend/pkg/errors"
)

func observe(monitor *WellnessMonitor, state *aggregates.CommunityState, sentiment float64, at time.Time) *entities.AlertKind {
	return monitor.Observe(state, &entities.CommunityEvent{
		CommunityID: "guild-1",
		UserID:      "alice",
		Kind:        entities.EventMessage,
		MessageText: "message",
		Timestamp:   at,
	}, sentiment)
}

func TestObserveStressFiresExactlyOnce(t *testing.T) {
	monitor := NewWellnessMonitor(nil)
	state := aggregates.NewCommunityState("guild-1", nil)
	now := time.Now()

	alerts := 0
	// Ten upbeat messages, then a sustained negative turn
	for i := 0; i < 10; i++ {
		if observe(monitor, state, 0.5, now) != nil {
			alerts++
		}
	}
	var firstAlert *entities.AlertKind
	for i := 0; i < 20; i++ {
		if kind := observe(monitor, state, -1.0, now); kind != nil {
			alerts++
			firstAlert = kind
		}
	}

	require.Equal(t, 1, alerts, "a sustained decline must raise exactly one alert")
	assert.Equal(t, entities.AlertStressDetected, *firstAlert)
	assert.Equal(t, entities.WellnessAlertRaised, state.Profile("alice").State)
}

func TestObserveNeedsFullWindow(t *testing.T) {
	monitor := NewWellnessMonitor(nil)
	state := aggregates.NewCommunityState("guild-1", nil)
	now := time.Now()

	// Nine readings are not enough history to judge a trend
	for i := 0; i < 9; i++ {
		assert.Nil(t, observe(monitor, state, -1.0, now))
	}
	assert.Equal(t, 0.0, state.Profile("alice").StressLevel)
}

func TestObserveIsolation(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	monitor := NewWellnessMonitor(cfg)
	state := aggregates.NewCommunityState("guild-1", cfg)

	// Messages long after the last contact with others ratchet isolation risk
	future := time.Now().Add(cfg.IsolationAfter + time.Hour)

	var alert *entities.AlertKind
	for i := 0; i < 10 && alert == nil; i++ {
		alert = observe(monitor, state, 0.0, future)
	}

	require.NotNil(t, alert)
	assert.Equal(t, entities.AlertIsolationRisk, *alert)

	// Interacting with others resets the isolation clock
	profile := state.Profile("alice")
	profile.MarkInteraction(future)
	assert.Equal(t, future, profile.LastInteraction)
}

func TestSuggestInterventionCooldown(t *testing.T) {
	monitor := NewWellnessMonitor(nil)
	state := aggregates.NewCommunityState("guild-1", nil)

	plan, err := monitor.SuggestIntervention(state, "alice", entities.AlertStressDetected)
	require.NoError(t, err)
	assert.Equal(t, entities.AlertStressDetected, plan.AlertKind)
	assert.Equal(t, 24*time.Hour, plan.Cooldown)
	assert.NotEmpty(t, plan.Actions)
	assert.Equal(t, entities.WellnessCooldownActive, state.Profile("alice").State)

	// A second suggestion during the cooldown is refused
	_, err = monitor.SuggestIntervention(state, "alice", entities.AlertStressDetected)
	assert.True(t, apperrors.IsCooldownActive(err))

	// Only one intervention record exists
	record, ok := state.Intervention("alice")
	require.True(t, ok)
	assert.True(t, record.Active(time.Now()))
}

func TestSuggestInterventionKinds(t *testing.T) {
	monitor := NewWellnessMonitor(nil)
	state := aggregates.NewCommunityState("guild-1", nil)

	plan, err := monitor.SuggestIntervention(state, "bob", entities.AlertIsolationRisk)
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, plan.Cooldown)

	_, err = monitor.SuggestIntervention(state, "carol", entities.AlertKind("sleepy"))
	assert.True(t, apperrors.IsValidation(err))
}

func TestOverview(t *testing.T) {
	monitor := NewWellnessMonitor(nil)
	state := aggregates.NewCommunityState("guild-1", nil)

	assert.Zero(t, monitor.Overview(state).ProfilesTracked)

	state.Profile("alice").RatchetStress(0.4)
	state.Profile("bob")

	overview := monitor.Overview(state)
	assert.Equal(t, 2, overview.ProfilesTracked)
	assert.Equal(t, 1, overview.ElevatedProfiles)
	assert.InDelta(t, 0.2, overview.AvgStressLevel, 1e-9)
}
