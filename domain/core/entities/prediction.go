package entities

import (
	"time"

	"github.com/google/uuid"
)

// PredictionKind classifies what a social prediction anticipates
type PredictionKind string

const (
	PredictionActivityPeak           PredictionKind = "activity_peak"
	PredictionMoodShift              PredictionKind = "mood_shift"
	PredictionTopicTrend             PredictionKind = "topic_trend"
	PredictionConflictRisk           PredictionKind = "conflict_risk"
	PredictionCelebrationOpportunity PredictionKind = "celebration_opportunity"
	PredictionSupportNeed            PredictionKind = "support_need"
)

// SocialPrediction is an immutable forecast produced by the predictor.
// Only an external validation step may later fill Validated/ActualOutcome.
type SocialPrediction struct {
	ID                  string         `json:"id"`
	CommunityID         string         `json:"communityId"`
	Kind                PredictionKind `json:"kind"`
	Confidence          float64        `json:"confidence"`
	PredictedTime       time.Time      `json:"predictedTime"`
	Description         string         `json:"description"`
	ContributingFactors []string       `json:"contributingFactors,omitempty"`
	SuggestedActions    []string       `json:"suggestedActions,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
	Validated           *bool          `json:"validated,omitempty"`
	ActualOutcome       string         `json:"actualOutcome,omitempty"`
}

// NewSocialPrediction creates a prediction with a fresh id and timestamp
func NewSocialPrediction(communityID string, kind PredictionKind, confidence float64, predictedTime time.Time, description string) *SocialPrediction {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return &SocialPrediction{
		ID:            uuid.New().String(),
		CommunityID:   communityID,
		Kind:          kind,
		Confidence:    confidence,
		PredictedTime: predictedTime,
		Description:   description,
		CreatedAt:     time.Now(),
	}
}

// PostingTimeSlot is one ranked optimal-posting-hour recommendation
type PostingTimeSlot struct {
	Time       time.Time `json:"time"`
	Hour       int       `json:"hour"`
	Score      float64   `json:"score"`
	Confidence float64   `json:"confidence"`
}
