package entities

import (
	"time"

	pkgerrors "sage-backend/pkg/errors"
)

// EventKind classifies an incoming community event
type EventKind string

const (
	EventMessage  EventKind = "message"
	EventReaction EventKind = "reaction"
	EventJoin     EventKind = "join"
)

// CommunityEvent is the single input unit driving the intelligence pipeline.
// Lexical sentiment/energy scores are supplied by the message scorer; the core
// only decides what happens to them over time and over the population.
type CommunityEvent struct {
	CommunityID  string    `json:"communityId"`
	UserID       string    `json:"userId"`
	Kind         EventKind `json:"kind"`
	MessageText  string    `json:"messageText,omitempty"`
	Topics       []string  `json:"topics,omitempty"`
	Participants []string  `json:"participants,omitempty"`
	Significance float64   `json:"significance"`
	Timestamp    time.Time `json:"timestamp"`
}

// Validate rejects structurally invalid events. A bad event affects only
// itself, never other in-flight events.
func (e *CommunityEvent) Validate() error {
	if e.CommunityID == "" {
		return pkgerrors.NewValidationError("communityId cannot be empty")
	}
	if e.UserID == "" {
		return pkgerrors.NewValidationError("userId cannot be empty")
	}
	switch e.Kind {
	case EventMessage, EventReaction, EventJoin:
	default:
		return pkgerrors.NewValidationError("unknown event kind: " + string(e.Kind))
	}
	if e.Significance < 0 || e.Significance > 1 {
		return pkgerrors.NewValidationError("significance must be within [0,1]")
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return nil
}

// HasMessage reports whether the event carries message text worth scoring
func (e *CommunityEvent) HasMessage() bool {
	return e.Kind == EventMessage && e.MessageText != ""
}
