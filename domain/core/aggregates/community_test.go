package aggregates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sage-backend/domain/config"
	"sage-backend/domain/core/entities"
	"sage-backend/domain/core/valueobjects"
)

func TestSetMoodValueClamps(t *testing.T) {
	state := NewCommunityState("guild-1", nil)

	state.SetMoodValue(3.5)
	assert.Equal(t, 1.0, state.MoodValue())
	assert.Equal(t, valueobjects.MoodEuphoric, state.MoodState())

	state.SetMoodValue(-2)
	assert.Equal(t, -1.0, state.MoodValue())
	assert.Equal(t, valueobjects.MoodDejected, state.MoodState())
}

func TestMoodHistoryBoundedAndCopied(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	state := NewCommunityState("guild-1", cfg)
	now := time.Now()

	for i := 0; i < cfg.MoodHistoryCap+10; i++ {
		state.AppendSnapshot(entities.MoodSnapshot{
			CommunityID:  "guild-1",
			Timestamp:    now.Add(time.Duration(i) * time.Minute),
			AvgSentiment: float64(i),
		})
	}

	history := state.MoodHistory()
	require.Len(t, history, cfg.MoodHistoryCap)
	// Oldest snapshots evicted first
	assert.Equal(t, float64(10), history[0].AvgSentiment)

	// Mutating the returned slice leaves the aggregate untouched
	history[0].AvgSentiment = -99
	assert.Equal(t, float64(10), state.MoodHistory()[0].AvgSentiment)
}

func TestMoodHistorySince(t *testing.T) {
	state := NewCommunityState("guild-1", nil)
	now := time.Now()

	state.AppendSnapshot(entities.MoodSnapshot{Timestamp: now.Add(-48 * time.Hour)})
	state.AppendSnapshot(entities.MoodSnapshot{Timestamp: now.Add(-2 * time.Hour)})
	state.AppendSnapshot(entities.MoodSnapshot{Timestamp: now.Add(-time.Hour)})

	assert.Len(t, state.MoodHistorySince(now.Add(-24*time.Hour)), 2)
	assert.Empty(t, state.MoodHistorySince(now))
}

func TestFragmentsPreserveStoreOrder(t *testing.T) {
	state := NewCommunityState("guild-1", nil)

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		fragment, err := entities.NewMemoryFragment("guild-1", entities.FragmentConversation, nil, 0, nil, nil)
		require.NoError(t, err)
		state.AddFragment(fragment)
		ids = append(ids, fragment.ID().String())
	}

	fragments := state.Fragments()
	require.Len(t, fragments, 3)
	for i, f := range fragments {
		assert.Equal(t, ids[i], f.ID().String())
	}

	// Re-adding an existing fragment does not duplicate it
	state.AddFragment(fragments[0])
	assert.Equal(t, 3, state.FragmentCount())
}

func TestProfileLazyCreation(t *testing.T) {
	state := NewCommunityState("guild-1", nil)

	first := state.Profile("alice")
	second := state.Profile("alice")

	assert.Same(t, first, second)
	assert.Equal(t, "guild-1", first.CommunityID)
	assert.Len(t, state.Profiles(), 1)
}

func TestRecordActivityTrims(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.ActivityRetentionCap = 10
	state := NewCommunityState("guild-1", cfg)
	now := time.Now()

	// Points older than the retention window are dropped
	state.RecordActivity(entities.ActivityDataPoint{Timestamp: now.Add(-cfg.ActivityRetention - time.Hour)})
	state.RecordActivity(entities.ActivityDataPoint{Timestamp: now})
	assert.Len(t, state.Activity(), 1)

	// The hard cap bounds even recent points
	for i := 0; i < 30; i++ {
		state.RecordActivity(entities.ActivityDataPoint{Timestamp: now})
	}
	assert.Len(t, state.Activity(), cfg.ActivityRetentionCap)
}

func TestTouchAdvancesLastTouched(t *testing.T) {
	state := NewCommunityState("guild-1", nil)
	before := state.LastTouched()

	time.Sleep(time.Millisecond)
	state.Touch()

	assert.True(t, state.LastTouched().After(before))
}
