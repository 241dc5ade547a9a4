package entities

import "time"

// InfluenceSample is one tracked contribution of a user to community mood
type InfluenceSample struct {
	Timestamp time.Time `json:"timestamp"`
	Sentiment float64   `json:"sentiment"`
	MoodDelta float64   `json:"moodDelta"`
}

// ContagionModel holds the per-community mood-contagion parameters and the
// bounded per-user influence history. One per community, lazily created.
type ContagionModel struct {
	CommunityID      string                       `json:"communityId"`
	TransmissionRate float64                      `json:"transmissionRate"`
	DecayRate        float64                      `json:"decayRate"`
	InfluenceHistory map[string][]InfluenceSample `json:"perUserInfluenceHistory"`
	historyCap       int
}

// NewContagionModel creates a model with the default rates
func NewContagionModel(communityID string, transmissionRate, decayRate float64, historyCap int) *ContagionModel {
	if historyCap <= 0 {
		historyCap = 20
	}
	return &ContagionModel{
		CommunityID:      communityID,
		TransmissionRate: transmissionRate,
		DecayRate:        decayRate,
		InfluenceHistory: map[string][]InfluenceSample{},
		historyCap:       historyCap,
	}
}

// RecordInfluence appends a sample to the user's bounded history
func (m *ContagionModel) RecordInfluence(userID string, sample InfluenceSample) {
	cap := m.historyCap
	if cap <= 0 {
		cap = 20
	}
	history := append(m.InfluenceHistory[userID], sample)
	if len(history) > cap {
		history = history[len(history)-cap:]
	}
	m.InfluenceHistory[userID] = history
}

// SpreadWave is one breadth-first propagation step of an emotional event
type SpreadWave struct {
	Wave     int                `json:"wave"`
	Affected map[string]float64 `json:"affected"`
}

// SpreadResult summarizes a bounded contagion simulation
type SpreadResult struct {
	CommunityID            string       `json:"communityId"`
	SourceUserID           string       `json:"sourceUserId"`
	TotalAffected          int          `json:"totalAffected"`
	Waves                  []SpreadWave `json:"waves"`
	EstimatedDurationHours int          `json:"estimatedDurationHours"`
}

// GraphNeighbor is one weighted adjacency entry of the social graph
type GraphNeighbor struct {
	UserID string  `json:"userId"`
	Weight float64 `json:"weight"`
}

// SocialGraph is a weighted adjacency list keyed by user id
type SocialGraph map[string][]GraphNeighbor
