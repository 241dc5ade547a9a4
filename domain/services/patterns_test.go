package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sage-backend/domain/core/entities"
)

// at builds a timestamp on a fixed week so weekday assertions are stable.
// 2026-08-03 is a Monday.
func at(day int, hour int) time.Time {
	return time.Date(2026, 8, 3+day, hour, 0, 0, 0, time.UTC)
}

func TestAnalyzeEmptyHistory(t *testing.T) {
	analyzer := NewPatternAnalyzer()

	patterns := analyzer.Analyze(nil)
	require.NotNil(t, patterns)
	assert.Zero(t, patterns.SampleCount)
	assert.Empty(t, patterns.HourlyMeans)
	assert.Empty(t, patterns.PeakHours)
}

func TestAnalyzeBucketsByHourAndDay(t *testing.T) {
	analyzer := NewPatternAnalyzer()

	history := []entities.ActivityDataPoint{
		{Timestamp: at(0, 20), ActivityScore: 0.8},
		{Timestamp: at(1, 20), ActivityScore: 0.6},
		{Timestamp: at(0, 9), ActivityScore: 0.2},
		{Timestamp: at(2, 14), ActivityScore: 0.4},
	}

	patterns := analyzer.Analyze(history)

	assert.Equal(t, 4, patterns.SampleCount)
	assert.InDelta(t, 0.7, patterns.HourlyMeans[20], 1e-9)
	assert.InDelta(t, 0.2, patterns.HourlyMeans[9], 1e-9)
	assert.InDelta(t, 0.5, patterns.DailyMeans[time.Monday], 1e-9)
	assert.InDelta(t, 0.6, patterns.DailyMeans[time.Tuesday], 1e-9)

	// Peak hours ranked by mean activity
	require.Len(t, patterns.PeakHours, 3)
	assert.Equal(t, 20, patterns.PeakHours[0])
	assert.Len(t, patterns.PeakDays, 2)
	assert.Equal(t, time.Tuesday, patterns.PeakDays[0])
}

func TestTrendingTopicsRanksByMeanEngagement(t *testing.T) {
	analyzer := NewPatternAnalyzer()

	history := []entities.ActivityDataPoint{
		{Timestamp: at(0, 10), Topics: []string{"raids"}, EngagementScore: 0.9},
		{Timestamp: at(0, 11), Topics: []string{"raids"}, EngagementScore: 0.7},
		{Timestamp: at(0, 12), Topics: []string{"memes"}, EngagementScore: 0.5},
		{Timestamp: at(0, 13), Topics: []string{"events", "memes"}, EngagementScore: 0.5},
	}

	patterns := analyzer.Analyze(history)
	topics := analyzer.TrendingTopics(patterns, 10)

	// raids mean 0.8, memes and events tie at 0.5 and break alphabetically
	assert.Equal(t, []string{"raids", "events", "memes"}, topics)

	assert.Equal(t, []string{"raids"}, analyzer.TrendingTopics(patterns, 1))
	assert.Empty(t, analyzer.TrendingTopics(analyzer.Analyze(nil), 5))
}
