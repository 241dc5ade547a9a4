package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "sage-backend/pkg/errors"
)

func TestCommunityEventValidate(t *testing.T) {
	valid := func() *CommunityEvent {
		return &CommunityEvent{
			CommunityID:  "guild-1",
			UserID:       "alice",
			Kind:         EventMessage,
			MessageText:  "hello there",
			Significance: 0.4,
			Timestamp:    time.Now(),
		}
	}

	tests := []struct {
		name    string
		mutate  func(*CommunityEvent)
		wantErr bool
	}{
		{"valid message", func(e *CommunityEvent) {}, false},
		{"valid join", func(e *CommunityEvent) { e.Kind = EventJoin; e.MessageText = "" }, false},
		{"empty community", func(e *CommunityEvent) { e.CommunityID = "" }, true},
		{"empty user", func(e *CommunityEvent) { e.UserID = "" }, true},
		{"unknown kind", func(e *CommunityEvent) { e.Kind = "poll" }, true},
		{"significance too high", func(e *CommunityEvent) { e.Significance = 1.2 }, true},
		{"significance negative", func(e *CommunityEvent) { e.Significance = -0.1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := valid()
			tt.mutate(event)
			err := event.Validate()
			if tt.wantErr {
				assert.True(t, apperrors.IsValidation(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCommunityEventValidateDefaultsTimestamp(t *testing.T) {
	event := &CommunityEvent{
		CommunityID: "guild-1",
		UserID:      "alice",
		Kind:        EventReaction,
	}
	assert.NoError(t, event.Validate())
	assert.False(t, event.Timestamp.IsZero())
}

func TestHasMessage(t *testing.T) {
	assert.True(t, (&CommunityEvent{Kind: EventMessage, MessageText: "hi"}).HasMessage())
	assert.False(t, (&CommunityEvent{Kind: EventMessage}).HasMessage())
	assert.False(t, (&CommunityEvent{Kind: EventJoin, MessageText: "hi"}).HasMessage())
}
