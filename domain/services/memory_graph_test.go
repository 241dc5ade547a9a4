package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sage-backend/domain/config"
	"sage-backend/domain/core/aggregates"
	"sage-backend/domain/core/entities"
	apperrors "sage-backend/pkg/errors"
)

func newState(t *testing.T) *aggregates.CommunityState {
	t.Helper()
	return aggregates.NewCommunityState("guild-1", config.DefaultDomainConfig())
}

func mustFragment(t *testing.T, participants, tags []string, weight float64) *entities.MemoryFragment {
	t.Helper()
	fragment, err := entities.NewMemoryFragment("guild-1", entities.FragmentConversation, nil, weight, participants, tags)
	require.NoError(t, err)
	return fragment
}

func TestStoreRejectsForeignFragment(t *testing.T) {
	graph := NewFragmentMemoryGraph(nil)
	state := newState(t)

	foreign, err := entities.NewMemoryFragment("guild-2", entities.FragmentConversation, nil, 0, nil, nil)
	require.NoError(t, err)

	_, err = graph.Store(state, foreign)
	assert.True(t, apperrors.IsValidation(err))
	assert.Zero(t, state.FragmentCount())
}

func TestStoreAssignsImportance(t *testing.T) {
	graph := NewFragmentMemoryGraph(nil)
	state := newState(t)

	tests := []struct {
		name         string
		weight       float64
		participants []string
	}{
		{"neutral empty", 0, nil},
		{"strong negative", -1, nil},
		{"crowded", 0.5, []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fragment := mustFragment(t, tt.participants, nil, tt.weight)
			_, err := graph.Store(state, fragment)
			require.NoError(t, err)

			assert.GreaterOrEqual(t, fragment.Importance(), 0.0)
			assert.LessOrEqual(t, fragment.Importance(), 1.0)
		})
	}

	// Emotional weight contributes |weight| * 0.4
	lone := mustFragment(t, nil, nil, -1)
	_, err := graph.Store(aggregates.NewCommunityState("guild-1", config.DefaultDomainConfig()), lone)
	require.NoError(t, err)
	assert.InDelta(t, 0.4+0.2*0.0+0.1*2.0/500.0, lone.Importance(), 1e-9)
}

func TestStoreConnectsSymmetrically(t *testing.T) {
	graph := NewFragmentMemoryGraph(nil)
	state := newState(t)

	// Two shared participants trigger a connection
	first := mustFragment(t, []string{"alice", "bob"}, nil, 0)
	second := mustFragment(t, []string{"alice", "bob", "carol"}, nil, 0)

	_, err := graph.Store(state, first)
	require.NoError(t, err)
	_, err = graph.Store(state, second)
	require.NoError(t, err)

	assert.True(t, first.IsConnectedTo(second.ID()))
	assert.True(t, second.IsConnectedTo(first.ID()))
}

func TestStoreTagTriangle(t *testing.T) {
	graph := NewFragmentMemoryGraph(nil)
	state := newState(t)

	// Three fragments sharing two tags form a fully connected triangle
	fragments := []*entities.MemoryFragment{
		mustFragment(t, nil, []string{"raid", "victory"}, 0),
		mustFragment(t, nil, []string{"raid", "victory", "loot"}, 0),
		mustFragment(t, nil, []string{"raid", "victory", "guild"}, 0),
	}
	for _, f := range fragments {
		_, err := graph.Store(state, f)
		require.NoError(t, err)
	}

	for i, a := range fragments {
		for j, b := range fragments {
			if i == j {
				continue
			}
			assert.True(t, a.IsConnectedTo(b.ID()), "fragment %d should connect to %d", i, j)
		}
	}
}

func TestStoreHonorsConnectionCapOnBothEnds(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	graph := NewFragmentMemoryGraph(cfg)
	state := newState(t)

	// All fragments share participants, so every pair is a candidate
	shared := []string{"alice", "bob"}
	stored := make([]*entities.MemoryFragment, 0, 8)
	for i := 0; i < 8; i++ {
		fragment := mustFragment(t, shared, nil, 0)
		_, err := graph.Store(state, fragment)
		require.NoError(t, err)
		stored = append(stored, fragment)
	}

	for i, fragment := range stored {
		assert.LessOrEqual(t, fragment.ConnectionCount(), cfg.MaxConnectionsPerFragment,
			"fragment %d exceeds the connection cap", i)
	}
}

func TestRecall(t *testing.T) {
	graph := NewFragmentMemoryGraph(nil)
	state := newState(t)

	match := mustFragment(t, []string{"alice"}, []string{"raid"}, 0.9)
	other := mustFragment(t, []string{"zed"}, []string{"memes"}, 0.1)
	_, err := graph.Store(state, match)
	require.NoError(t, err)
	_, err = graph.Store(state, other)
	require.NoError(t, err)

	scored, err := graph.Recall(state, RecallContext{
		Participants: []string{"alice"},
		Tags:         []string{"raid"},
	}, 10)
	require.NoError(t, err)
	require.Len(t, scored, 2)

	// The contextual match with higher importance ranks first
	assert.Equal(t, match.ID(), scored[0].Fragment.ID())
	assert.Greater(t, scored[0].Relevance, scored[1].Relevance)

	// Recall counts as an access for every scanned fragment
	assert.Equal(t, 1, match.AccessCount())
	assert.Equal(t, 1, other.AccessCount())
}

func TestRecallLimits(t *testing.T) {
	graph := NewFragmentMemoryGraph(nil)
	state := newState(t)

	for i := 0; i < 8; i++ {
		_, err := graph.Store(state, mustFragment(t, nil, nil, 0.5))
		require.NoError(t, err)
	}

	_, err := graph.Recall(state, RecallContext{}, -1)
	assert.True(t, apperrors.IsValidation(err))

	// Zero means the default limit of five
	scored, err := graph.Recall(state, RecallContext{}, 0)
	require.NoError(t, err)
	assert.Len(t, scored, 5)

	scored, err = graph.Recall(state, RecallContext{}, 3)
	require.NoError(t, err)
	assert.Len(t, scored, 3)

	scored, err = graph.Recall(state, RecallContext{}, 100)
	require.NoError(t, err)
	assert.Len(t, scored, 8)
}
