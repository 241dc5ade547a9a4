package events

import (
	"time"

	"sage-backend/domain/core/entities"
)

// DomainEvent is something the intelligence pipeline has concluded about a
// community. Events are facts about the past; consumers must not mutate them.
type DomainEvent interface {
	CommunityID() string
	EventType() string
	OccurredAt() time.Time
}

// BaseEvent provides the common event fields
type BaseEvent struct {
	Community string    `json:"communityId"`
	Type      string    `json:"eventType"`
	At        time.Time `json:"occurredAt"`
}

func (e BaseEvent) CommunityID() string   { return e.Community }
func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.At }

// MoodShifted is raised when an event moved the community's running mood
type MoodShifted struct {
	BaseEvent
	Snapshot entities.MoodSnapshot `json:"snapshot"`
}

// NewMoodShifted creates a MoodShifted event
func NewMoodShifted(communityID string, snapshot entities.MoodSnapshot, at time.Time) MoodShifted {
	return MoodShifted{
		BaseEvent: BaseEvent{Community: communityID, Type: "mood.shifted", At: at},
		Snapshot:  snapshot,
	}
}

// MemoryFormed is raised when a significant event became a memory fragment
type MemoryFormed struct {
	BaseEvent
	FragmentID string `json:"fragmentId"`
}

// NewMemoryFormed creates a MemoryFormed event
func NewMemoryFormed(communityID, fragmentID string, at time.Time) MemoryFormed {
	return MemoryFormed{
		BaseEvent:  BaseEvent{Community: communityID, Type: "memory.formed", At: at},
		FragmentID: fragmentID,
	}
}

// WellnessAlertRaised is raised when a member crossed a wellness threshold
type WellnessAlertRaised struct {
	BaseEvent
	UserID string             `json:"userId"`
	Kind   entities.AlertKind `json:"kind"`
}

// NewWellnessAlertRaised creates a WellnessAlertRaised event
func NewWellnessAlertRaised(communityID, userID string, kind entities.AlertKind, at time.Time) WellnessAlertRaised {
	return WellnessAlertRaised{
		BaseEvent: BaseEvent{Community: communityID, Type: "wellness.alert_raised", At: at},
		UserID:    userID,
		Kind:      kind,
	}
}

// PredictionEmitted is raised for each forward-looking prediction produced
type PredictionEmitted struct {
	BaseEvent
	Prediction *entities.SocialPrediction `json:"prediction"`
}

// NewPredictionEmitted creates a PredictionEmitted event
func NewPredictionEmitted(communityID string, prediction *entities.SocialPrediction, at time.Time) PredictionEmitted {
	return PredictionEmitted{
		BaseEvent:  BaseEvent{Community: communityID, Type: "prediction.emitted", At: at},
		Prediction: prediction,
	}
}
