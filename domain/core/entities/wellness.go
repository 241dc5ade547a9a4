package entities

import (
	"time"
)

// AlertKind identifies which wellness signal fired
type AlertKind string

const (
	AlertStressDetected AlertKind = "stress_detected"
	AlertIsolationRisk  AlertKind = "isolation_risk"
)

// WellnessState tracks the per-user intervention state machine:
// Nominal -> Elevated -> AlertRaised -> CooldownActive -> Nominal.
type WellnessState string

const (
	WellnessNominal        WellnessState = "nominal"
	WellnessElevated       WellnessState = "elevated"
	WellnessAlertRaised    WellnessState = "alert_raised"
	WellnessCooldownActive WellnessState = "cooldown_active"
)

// WellnessProfile is the rolling per-(community,user) trend detector state.
// Stress is a monotonic ratchet: it only decays via an explicit reset.
type WellnessProfile struct {
	CommunityID           string        `json:"communityId"`
	UserID                string        `json:"userId"`
	StressLevel           float64       `json:"stressLevel"`
	IsolationRisk         float64       `json:"isolationRisk"`
	State                 WellnessState `json:"state"`
	SentimentTrend        []float64     `json:"sentimentTrend"`
	LastInteraction       time.Time     `json:"lastInteractionWithOthers"`
	sentimentWindowCap    int
}

// NewWellnessProfile creates a profile lazily on first observation
func NewWellnessProfile(communityID, userID string, windowCap int) *WellnessProfile {
	if windowCap <= 0 {
		windowCap = 50
	}
	return &WellnessProfile{
		CommunityID:        communityID,
		UserID:             userID,
		State:              WellnessNominal,
		SentimentTrend:     make([]float64, 0, windowCap),
		LastInteraction:    time.Now(),
		sentimentWindowCap: windowCap,
	}
}

// RecordSentiment appends one sentiment reading, evicting the oldest when the
// bounded window is full.
func (p *WellnessProfile) RecordSentiment(sentiment float64) {
	cap := p.sentimentWindowCap
	if cap <= 0 {
		cap = 50
	}
	p.SentimentTrend = append(p.SentimentTrend, sentiment)
	if len(p.SentimentTrend) > cap {
		p.SentimentTrend = p.SentimentTrend[len(p.SentimentTrend)-cap:]
	}
}

// RatchetStress raises the stress level by step, clamped to 1
func (p *WellnessProfile) RatchetStress(step float64) {
	p.StressLevel += step
	if p.StressLevel > 1 {
		p.StressLevel = 1
	}
	if p.State == WellnessNominal {
		p.State = WellnessElevated
	}
}

// RatchetIsolation raises the isolation risk by step, clamped to 1
func (p *WellnessProfile) RatchetIsolation(step float64) {
	p.IsolationRisk += step
	if p.IsolationRisk > 1 {
		p.IsolationRisk = 1
	}
	if p.State == WellnessNominal {
		p.State = WellnessElevated
	}
}

// ResetStress is the only way stress decays, used after a completed
// intervention cycle.
func (p *WellnessProfile) ResetStress() {
	p.StressLevel = 0
	p.IsolationRisk = 0
	p.State = WellnessNominal
}

// MarkInteraction records contact with other members
func (p *WellnessProfile) MarkInteraction(at time.Time) {
	p.LastInteraction = at
}

// InterventionRecord enforces at most one active intervention per
// (community,user) until its cooldown expires.
type InterventionRecord struct {
	CommunityID   string    `json:"communityId"`
	UserID        string    `json:"userId"`
	AlertKind     AlertKind `json:"alertKind"`
	SuggestedAt   time.Time `json:"suggestedAt"`
	CooldownUntil time.Time `json:"cooldownUntil"`
}

// Active reports whether the record still suppresses new interventions
func (r *InterventionRecord) Active(now time.Time) bool {
	return r.CooldownUntil.After(now)
}

// InterventionPlan is the guidance returned when an alert fires outside a
// cooldown window.
type InterventionPlan struct {
	CommunityID string        `json:"communityId"`
	UserID      string        `json:"userId"`
	AlertKind   AlertKind     `json:"alertKind"`
	Message     string        `json:"message"`
	Actions     []string      `json:"actions"`
	Cooldown    time.Duration `json:"cooldown"`
}
