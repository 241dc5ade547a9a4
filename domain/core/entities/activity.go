package entities

import (
	"time"

	"sage-backend/domain/core/valueobjects"
)

// ActivityDataPoint is one time-stamped activity/mood reading for a community.
// Immutable once recorded; the pattern store appends and trims by retention.
type ActivityDataPoint struct {
	Timestamp       time.Time `json:"timestamp"`
	ActivityScore   float64   `json:"activityScore"`
	Topics          []string  `json:"topics,omitempty"`
	EngagementScore float64   `json:"engagementScore"`
}

// MoodSnapshot is a point-in-time aggregate emotional-state reading for a
// community, appended to a bounded per-community history.
type MoodSnapshot struct {
	CommunityID      string                 `json:"communityId"`
	Timestamp        time.Time              `json:"timestamp"`
	MoodState        valueobjects.MoodState `json:"moodState"`
	Intensity        float64                `json:"intensity"`
	DominantEmotions map[string]float64     `json:"dominantEmotions,omitempty"`
	ActiveUsers      int                    `json:"activeUsers"`
	AvgSentiment     float64                `json:"avgSentiment"`
	Topics           []string               `json:"topics,omitempty"`
	InfluencerIDs    []string               `json:"influencerUserIds,omitempty"`
}
