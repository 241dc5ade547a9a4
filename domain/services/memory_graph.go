package services

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"sage-backend/domain/config"
	"sage-backend/domain/core/aggregates"
	"sage-backend/domain/core/entities"
	pkgerrors "sage-backend/pkg/errors"
)

// RecallContext describes what a contextual recall is looking for
type RecallContext struct {
	Participants []string
	Tags         []string
}

// ScoredFragment pairs a recalled fragment with its ranking score
type ScoredFragment struct {
	Fragment  *entities.MemoryFragment
	Relevance float64
}

// FragmentMemoryGraph stores importance-scored fragments and maintains the
// undirected connection graph between them. All methods run under the owning
// community's lock.
type FragmentMemoryGraph struct {
	cfg *config.DomainConfig
}

// NewFragmentMemoryGraph creates a memory graph service
func NewFragmentMemoryGraph(cfg *config.DomainConfig) *FragmentMemoryGraph {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &FragmentMemoryGraph{cfg: cfg}
}

// Store assigns the fragment's creation-time importance, discovers connection
// candidates among the community's existing fragments, inserts symmetric
// edges, and indexes the fragment. Returns the new fragment id.
func (g *FragmentMemoryGraph) Store(state *aggregates.CommunityState, fragment *entities.MemoryFragment) (string, error) {
	if fragment == nil {
		return "", pkgerrors.NewValidationError("fragment cannot be nil")
	}
	if fragment.CommunityID() != state.CommunityID() {
		return "", pkgerrors.NewValidationError("fragment belongs to a different community")
	}

	fragment.SetImportance(g.importance(fragment))

	// Connection discovery: first matches in store order, capped.
	connected := 0
	for _, candidate := range state.Fragments() {
		if connected >= g.cfg.MaxConnectionsPerFragment {
			break
		}
		if candidate.ID().Equals(fragment.ID()) {
			continue
		}
		if !g.shouldConnect(fragment, candidate) {
			continue
		}
		// Candidates already at their connection cap are passed over so the
		// per-fragment bound holds on both ends of the edge.
		if !candidate.CanConnect(g.cfg) {
			continue
		}

		if err := fragment.ConnectTo(candidate.ID()); err != nil {
			return "", err
		}
		if err := candidate.ConnectTo(fragment.ID()); err != nil {
			return "", err
		}
		connected++
	}

	state.AddFragment(fragment)
	return fragment.ID().String(), nil
}

// Recall ranks every fragment in the community by contextual relevance times
// importance and returns the top limit. Every scanned fragment's access
// bookkeeping is updated, not just the returned ones; recall deliberately
// counts as an access across the whole community memory.
func (g *FragmentMemoryGraph) Recall(state *aggregates.CommunityState, ctx RecallContext, limit int) ([]ScoredFragment, error) {
	if limit < 0 {
		return nil, pkgerrors.NewValidationError("limit cannot be negative")
	}
	if limit == 0 {
		limit = 5
	}

	now := time.Now()
	scored := make([]ScoredFragment, 0, state.FragmentCount())
	for _, fragment := range state.Fragments() {
		relevance := g.relevance(fragment, ctx, now)
		fragment.Touch(now)
		scored = append(scored, ScoredFragment{Fragment: fragment, Relevance: relevance})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Relevance*scored[i].Fragment.Importance() >
			scored[j].Relevance*scored[j].Fragment.Importance()
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// importance computes the creation-time priority of a fragment
func (g *FragmentMemoryGraph) importance(fragment *entities.MemoryFragment) float64 {
	score := math.Abs(fragment.EmotionalWeight()) * 0.4
	score += math.Min(1, float64(fragment.ParticipantCount())/10.0) * 0.2

	serialized, err := json.Marshal(fragment.Content())
	if err == nil {
		score += math.Min(1, float64(len(serialized))/500.0) * 0.1
	}

	return clamp(score, 0, 1)
}

// shouldConnect applies the connection precedence: shared participants, then
// shared tags, then temporal proximity.
func (g *FragmentMemoryGraph) shouldConnect(a, b *entities.MemoryFragment) bool {
	if countOverlap(a.Participants(), b.HasParticipant) >= 2 {
		return true
	}
	if countOverlap(a.Tags(), b.HasTag) >= 2 {
		return true
	}
	gap := a.CreatedAt().Sub(b.CreatedAt())
	if gap < 0 {
		gap = -gap
	}
	return gap < g.cfg.TemporalConnectionWindow
}

// relevance scores a fragment against the recall context. Each term only
// contributes when both its denominator and the matching context field are
// non-empty.
func (g *FragmentMemoryGraph) relevance(fragment *entities.MemoryFragment, ctx RecallContext, now time.Time) float64 {
	var relevance float64

	if fragment.ParticipantCount() > 0 && len(ctx.Participants) > 0 {
		overlap := countOverlap(ctx.Participants, fragment.HasParticipant)
		relevance += 0.4 * float64(overlap) / float64(fragment.ParticipantCount())
	}
	if fragment.TagCount() > 0 && len(ctx.Tags) > 0 {
		overlap := countOverlap(ctx.Tags, fragment.HasTag)
		relevance += 0.3 * float64(overlap) / float64(fragment.TagCount())
	}

	ageDays := now.Sub(fragment.CreatedAt()).Hours() / 24.0
	halfLifeDays := g.cfg.RecencyHalfLife.Hours() / 24.0
	relevance += 0.2 * math.Max(0, 1-ageDays/halfLifeDays)

	relevance += 0.1 * math.Min(1, float64(fragment.AccessCount())/10.0)

	return relevance
}

func countOverlap(values []string, contains func(string) bool) int {
	count := 0
	for _, v := range values {
		if contains(v) {
			count++
		}
	}
	return count
}
