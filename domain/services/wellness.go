package services

import (
	"time"

	"sage-backend/domain/config"
	"sage-backend/domain/core/aggregates"
	"sage-backend/domain/core/entities"
	pkgerrors "sage-backend/pkg/errors"
)

// interventionTemplate is the fixed guidance for one alert kind
type interventionTemplate struct {
	message  string
	actions  []string
	cooldown time.Duration
}

var interventionTemplates = map[entities.AlertKind]interventionTemplate{
	entities.AlertStressDetected: {
		message: "This member's recent messages read noticeably more negative than their baseline.",
		actions: []string{
			"reach out privately and ask how they are doing",
			"avoid assigning them new responsibilities this week",
			"point them at the community's quiet channels",
		},
		cooldown: 24 * time.Hour,
	},
	entities.AlertIsolationRisk: {
		message: "This member has not interacted with others for several days.",
		actions: []string{
			"invite them into an ongoing group conversation",
			"pair them with a regular for the next community activity",
		},
		cooldown: 72 * time.Hour,
	},
}

// WellnessMonitor is the per-(community,user) rolling trend detector with a
// cooldown-gated intervention state machine.
type WellnessMonitor struct {
	cfg *config.DomainConfig
}

// NewWellnessMonitor creates a wellness monitor
func NewWellnessMonitor(cfg *config.DomainConfig) *WellnessMonitor {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &WellnessMonitor{cfg: cfg}
}

// Observe folds one scored message into the user's profile and reports an
// alert kind when a threshold is first crossed. Runs under the community lock.
func (m *WellnessMonitor) Observe(state *aggregates.CommunityState, event *entities.CommunityEvent, sentiment float64) *entities.AlertKind {
	profile := state.Profile(event.UserID)
	profile.RecordSentiment(sentiment)

	if len(event.Participants) > 0 {
		profile.MarkInteraction(event.Timestamp)
	}

	now := event.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	if len(profile.SentimentTrend) >= 10 {
		recent := mean(profile.SentimentTrend[len(profile.SentimentTrend)-10:])
		overall := mean(profile.SentimentTrend)
		if recent < -0.3 && recent < overall-0.2 {
			profile.RatchetStress(m.cfg.StressRatchetStep)
		}
		// Alert thresholds come from the state so override reloads delivered
		// under the community lock take effect immediately
		if profile.StressLevel > state.Config().StressAlertThreshold && m.canRaise(state, profile, now) {
			profile.State = entities.WellnessAlertRaised
			kind := entities.AlertStressDetected
			return &kind
		}
	}

	if now.Sub(profile.LastInteraction) > m.cfg.IsolationAfter {
		profile.RatchetIsolation(m.cfg.IsolationRatchetStep)
		if profile.IsolationRisk > state.Config().IsolationAlertThreshold && m.canRaise(state, profile, now) {
			profile.State = entities.WellnessAlertRaised
			kind := entities.AlertIsolationRisk
			return &kind
		}
	}

	return nil
}

// canRaise gates alert emission: one alert per state-machine cycle, and never
// while an intervention cooldown is running.
func (m *WellnessMonitor) canRaise(state *aggregates.CommunityState, profile *entities.WellnessProfile, now time.Time) bool {
	if profile.State == entities.WellnessAlertRaised || profile.State == entities.WellnessCooldownActive {
		if record, ok := state.Intervention(profile.UserID); ok && !record.Active(now) {
			// Cooldown expired: the machine returns to nominal and may fire again
			profile.ResetStress()
			return false
		}
		return false
	}
	return true
}

// SuggestIntervention returns the fixed plan for the alert kind, unless an
// active cooldown suppresses it. Recording the InterventionRecord here is what
// enforces at most one active intervention per (community,user).
func (m *WellnessMonitor) SuggestIntervention(state *aggregates.CommunityState, userID string, kind entities.AlertKind) (*entities.InterventionPlan, error) {
	now := time.Now()
	if record, ok := state.Intervention(userID); ok && record.Active(now) {
		return nil, pkgerrors.NewCooldownActiveError(state.CommunityID(), userID)
	}

	template, ok := interventionTemplates[kind]
	if !ok {
		return nil, pkgerrors.NewValidationError("unknown alert kind: " + string(kind))
	}

	state.SetIntervention(&entities.InterventionRecord{
		CommunityID:   state.CommunityID(),
		UserID:        userID,
		AlertKind:     kind,
		SuggestedAt:   now,
		CooldownUntil: now.Add(template.cooldown),
	})
	state.Profile(userID).State = entities.WellnessCooldownActive

	return &entities.InterventionPlan{
		CommunityID: state.CommunityID(),
		UserID:      userID,
		AlertKind:   kind,
		Message:     template.message,
		Actions:     template.actions,
		Cooldown:    template.cooldown,
	}, nil
}

// Overview summarizes the wellness load of a community
type WellnessOverview struct {
	ProfilesTracked   int     `json:"profilesTracked"`
	ElevatedProfiles  int     `json:"elevatedProfiles"`
	ActiveCooldowns   int     `json:"activeCooldowns"`
	AvgStressLevel    float64 `json:"avgStressLevel"`
	AvgIsolationRisk  float64 `json:"avgIsolationRisk"`
}

// Overview aggregates the community's wellness profiles
func (m *WellnessMonitor) Overview(state *aggregates.CommunityState) WellnessOverview {
	profiles := state.Profiles()
	overview := WellnessOverview{ProfilesTracked: len(profiles)}
	if len(profiles) == 0 {
		return overview
	}

	now := time.Now()
	var stressSum, isolationSum float64
	for _, p := range profiles {
		stressSum += p.StressLevel
		isolationSum += p.IsolationRisk
		if p.State != entities.WellnessNominal {
			overview.ElevatedProfiles++
		}
		if record, ok := state.Intervention(p.UserID); ok && record.Active(now) {
			overview.ActiveCooldowns++
		}
	}
	overview.AvgStressLevel = stressSum / float64(len(profiles))
	overview.AvgIsolationRisk = isolationSum / float64(len(profiles))
	return overview
}
