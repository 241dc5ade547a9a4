package services

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sage-backend/domain/config"
	"sage-backend/domain/core/aggregates"
	"sage-backend/domain/core/entities"
	"sage-backend/domain/core/valueobjects"
)

func uniformPatterns() *Patterns {
	patterns := &Patterns{
		HourlyMeans:     map[int]float64{},
		DailyMeans:      map[time.Weekday]float64{},
		TopicEngagement: map[string][]TopicPoint{},
		SampleCount:     48,
	}
	for h := 0; h < 24; h++ {
		patterns.HourlyMeans[h] = 1.0
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		patterns.DailyMeans[d] = 1.0
	}
	return patterns
}

func TestPredictOptimalPostingTimesEmpty(t *testing.T) {
	predictor := NewSocialPredictor(nil)
	now := time.Now()

	assert.Nil(t, predictor.PredictOptimalPostingTimes(nil, now))
	assert.Nil(t, predictor.PredictOptimalPostingTimes(predictor.AnalyzePatterns(nil), now))
}

func TestPredictOptimalPostingTimesDecay(t *testing.T) {
	predictor := NewSocialPredictor(nil)
	now := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)

	slots := predictor.PredictOptimalPostingTimes(uniformPatterns(), now)
	require.Len(t, slots, 48)

	// With uniform means only the decay differentiates slots, so the ranking
	// is nearest hour first
	assert.Equal(t, now.Add(time.Hour), slots[0].Time)
	assert.InDelta(t, 0.98, slots[0].Score, 1e-9)

	// Sorted by score descending
	for i := 1; i < len(slots); i++ {
		assert.GreaterOrEqual(t, slots[i-1].Score, slots[i].Score)
	}

	// A full day of decay lands near 0.98^24, about 0.616
	dayOut := slots[23]
	assert.Equal(t, now.Add(24*time.Hour), dayOut.Time)
	assert.InDelta(t, math.Pow(0.98, 24), dayOut.Score, 1e-9)
	assert.InDelta(t, 0.6158, dayOut.Score, 0.01)

	// Full hourly coverage maxes confidence at 0.9
	assert.InDelta(t, 0.9, slots[0].Confidence, 1e-9)
}

func TestPredictOptimalPostingTimesMissingBuckets(t *testing.T) {
	predictor := NewSocialPredictor(nil)
	now := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)

	patterns := &Patterns{
		HourlyMeans: map[int]float64{13: 1.0},
		DailyMeans:  map[time.Weekday]float64{time.Monday: 1.0},
		SampleCount: 1,
	}

	slots := predictor.PredictOptimalPostingTimes(patterns, now)
	require.NotEmpty(t, slots)

	// First slot (13:00 Monday) has both buckets observed
	assert.InDelta(t, (1.0*0.7+1.0*0.3)*0.98, slots[0].Score, 1e-9)

	// Unobserved hours fall back to the neutral prior for the hourly term
	var unobserved *entities.PostingTimeSlot
	for i := range slots {
		if slots[i].Hour == 15 && slots[i].Time.Weekday() == time.Monday {
			unobserved = &slots[i]
			break
		}
	}
	require.NotNil(t, unobserved)
	assert.InDelta(t, (0.3*0.7+1.0*0.3)*math.Pow(0.98, 3), unobserved.Score, 1e-9)
}

func moodHistory(now time.Time, moods []valueobjects.MoodState) []entities.MoodSnapshot {
	history := make([]entities.MoodSnapshot, 0, len(moods))
	for i, mood := range moods {
		history = append(history, entities.MoodSnapshot{
			CommunityID: "guild-1",
			Timestamp:   now.Add(-time.Duration(len(moods)-i) * time.Hour),
			MoodState:   mood,
		})
	}
	return history
}

func stateWithHistory(cfg *config.DomainConfig, history []entities.MoodSnapshot) *aggregates.CommunityState {
	state := aggregates.NewCommunityState("guild-1", cfg)
	for _, snap := range history {
		state.AppendSnapshot(snap)
	}
	return state
}

func TestPredictMoodShift(t *testing.T) {
	predictor := NewSocialPredictor(nil)
	now := time.Now()

	tests := []struct {
		name  string
		moods []valueobjects.MoodState
		want  string // "", "improving" or "declining"
	}{
		{
			"too few points",
			[]valueobjects.MoodState{valueobjects.MoodExcited, valueobjects.MoodDejected, valueobjects.MoodExcited},
			"",
		},
		{
			"flat trend yields nothing",
			[]valueobjects.MoodState{
				valueobjects.MoodContent, valueobjects.MoodContent, valueobjects.MoodContent,
				valueobjects.MoodContent, valueobjects.MoodContent, valueobjects.MoodContent,
			},
			"",
		},
		{
			"declining mood",
			[]valueobjects.MoodState{
				valueobjects.MoodExcited, valueobjects.MoodExcited, valueobjects.MoodExcited,
				valueobjects.MoodConcerned, valueobjects.MoodFrustrated, valueobjects.MoodDejected,
			},
			"declining",
		},
		{
			"improving mood",
			[]valueobjects.MoodState{
				valueobjects.MoodDejected, valueobjects.MoodFrustrated, valueobjects.MoodConcerned,
				valueobjects.MoodContent, valueobjects.MoodExcited, valueobjects.MoodEuphoric,
			},
			"improving",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prediction := predictor.PredictMoodShift(stateWithHistory(nil, moodHistory(now, tt.moods)), now)
			if tt.want == "" {
				assert.Nil(t, prediction)
				return
			}
			require.NotNil(t, prediction)
			assert.Equal(t, entities.PredictionMoodShift, prediction.Kind)
			assert.Contains(t, prediction.Description, tt.want)
			assert.NotEmpty(t, prediction.SuggestedActions)
			assert.LessOrEqual(t, prediction.Confidence, 0.9)
		})
	}
}

func TestPredictMoodShiftIgnoresOldSnapshots(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	predictor := NewSocialPredictor(cfg)
	now := time.Now()

	// A strong decline, but entirely outside the analysis window
	history := moodHistory(now.Add(-cfg.MoodShiftWindow-time.Hour), []valueobjects.MoodState{
		valueobjects.MoodExcited, valueobjects.MoodExcited, valueobjects.MoodExcited,
		valueobjects.MoodConcerned, valueobjects.MoodFrustrated, valueobjects.MoodDejected,
	})

	assert.Nil(t, predictor.PredictMoodShift(stateWithHistory(cfg, history), now))
}

func TestPredictMoodShiftHonorsCommunityThresholds(t *testing.T) {
	predictor := NewSocialPredictor(nil)
	now := time.Now()

	decline := moodHistory(now, []valueobjects.MoodState{
		valueobjects.MoodExcited, valueobjects.MoodExcited, valueobjects.MoodExcited,
		valueobjects.MoodConcerned, valueobjects.MoodFrustrated, valueobjects.MoodDejected,
	})

	// The trend threshold comes from the community's own config, so a
	// reloaded stricter value suppresses the prediction without rebuilding
	// the predictor
	strict := config.DefaultDomainConfig()
	strict.MoodTrendThreshold = 2.0
	assert.Nil(t, predictor.PredictMoodShift(stateWithHistory(strict, decline), now))

	require.NotNil(t, predictor.PredictMoodShift(stateWithHistory(nil, decline), now))
}

func TestPredictTopicTrend(t *testing.T) {
	predictor := NewSocialPredictor(nil)
	now := time.Now()

	assert.Nil(t, predictor.PredictTopicTrend("guild-1", nil, now))
	assert.Nil(t, predictor.PredictTopicTrend("guild-1", predictor.AnalyzePatterns(nil), now))

	// A topic needs at least three observations before it trends
	patterns := &Patterns{
		TopicEngagement: map[string][]TopicPoint{
			"raids": {{Engagement: 0.9}, {Engagement: 0.8}},
		},
	}
	assert.Nil(t, predictor.PredictTopicTrend("guild-1", patterns, now))

	patterns.TopicEngagement["raids"] = append(patterns.TopicEngagement["raids"], TopicPoint{Engagement: 0.7})
	prediction := predictor.PredictTopicTrend("guild-1", patterns, now)
	require.NotNil(t, prediction)
	assert.Equal(t, entities.PredictionTopicTrend, prediction.Kind)
	assert.Contains(t, prediction.Description, "raids")
}
