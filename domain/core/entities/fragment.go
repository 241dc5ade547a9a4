package entities

import (
	"fmt"
	"time"

	"sage-backend/domain/config"
	"sage-backend/domain/core/valueobjects"
	pkgerrors "sage-backend/pkg/errors"
)

// FragmentKind classifies what a memory fragment captures
type FragmentKind string

const (
	FragmentConversation FragmentKind = "conversation"
	FragmentCelebration  FragmentKind = "celebration"
	FragmentConflict     FragmentKind = "conflict"
	FragmentMilestone    FragmentKind = "milestone"
	FragmentSupport      FragmentKind = "support"
)

// MemoryFragment is the main entity of the memory graph: an importance-scored
// record of a significant community moment. Importance and connections are
// computed once at creation; only access bookkeeping mutates afterwards.
type MemoryFragment struct {
	id              valueobjects.FragmentID
	communityID     string
	kind            FragmentKind
	content         map[string]interface{}
	emotionalWeight float64
	importance      float64
	participants    map[string]bool
	tags            map[string]bool
	createdAt       time.Time
	lastAccessedAt  time.Time
	accessCount     int
	connections     map[string]bool
}

// NewMemoryFragment creates a fragment with business rule validation.
// Importance is assigned by the memory graph when the fragment is stored.
func NewMemoryFragment(
	communityID string,
	kind FragmentKind,
	content map[string]interface{},
	emotionalWeight float64,
	participants []string,
	tags []string,
) (*MemoryFragment, error) {
	return newFragmentWithConfig(communityID, kind, content, emotionalWeight, participants, tags, config.DefaultDomainConfig())
}

func newFragmentWithConfig(
	communityID string,
	kind FragmentKind,
	content map[string]interface{},
	emotionalWeight float64,
	participants []string,
	tags []string,
	cfg *config.DomainConfig,
) (*MemoryFragment, error) {
	if communityID == "" {
		return nil, pkgerrors.NewValidationError("communityID cannot be empty")
	}
	if emotionalWeight < -1 || emotionalWeight > 1 {
		return nil, pkgerrors.NewValidationError("emotionalWeight must be within [-1,1]")
	}
	if len(tags) > cfg.MaxTagsPerFragment {
		return nil, pkgerrors.NewValidationError(
			fmt.Sprintf("at most %d tags per fragment", cfg.MaxTagsPerFragment))
	}
	if content == nil {
		content = map[string]interface{}{}
	}

	now := time.Now()
	f := &MemoryFragment{
		id:              valueobjects.NewFragmentID(),
		communityID:     communityID,
		kind:            kind,
		content:         content,
		emotionalWeight: emotionalWeight,
		participants:    toSet(participants),
		tags:            toSet(tags),
		createdAt:       now,
		lastAccessedAt:  now,
		connections:     map[string]bool{},
	}
	return f, nil
}

// ReconstructFragment rebuilds a fragment from repository data with preserved
// timestamps and bookkeeping.
func ReconstructFragment(
	id valueobjects.FragmentID,
	communityID string,
	kind FragmentKind,
	content map[string]interface{},
	emotionalWeight float64,
	importance float64,
	participants []string,
	tags []string,
	connections []string,
	createdAt, lastAccessedAt time.Time,
	accessCount int,
) (*MemoryFragment, error) {
	if communityID == "" {
		return nil, pkgerrors.NewValidationError("communityID cannot be empty")
	}
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("fragment id cannot be empty")
	}

	return &MemoryFragment{
		id:              id,
		communityID:     communityID,
		kind:            kind,
		content:         content,
		emotionalWeight: emotionalWeight,
		importance:      importance,
		participants:    toSet(participants),
		tags:            toSet(tags),
		connections:     toSet(connections),
		createdAt:       createdAt,
		lastAccessedAt:  lastAccessedAt,
		accessCount:     accessCount,
	}, nil
}

// ID returns the fragment's unique identifier
func (f *MemoryFragment) ID() valueobjects.FragmentID {
	return f.id
}

// CommunityID returns the owning community
func (f *MemoryFragment) CommunityID() string {
	return f.communityID
}

// Kind returns the fragment kind
func (f *MemoryFragment) Kind() FragmentKind {
	return f.kind
}

// Content returns the opaque structured payload
func (f *MemoryFragment) Content() map[string]interface{} {
	return f.content
}

// EmotionalWeight returns the signed emotional weight in [-1,1]
func (f *MemoryFragment) EmotionalWeight() float64 {
	return f.emotionalWeight
}

// Importance returns the normalized [0,1] priority assigned at creation
func (f *MemoryFragment) Importance() float64 {
	return f.importance
}

// SetImportance assigns the creation-time importance score, clamped to [0,1].
// Called exactly once by the memory graph; never recomputed on access.
func (f *MemoryFragment) SetImportance(score float64) {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	f.importance = score
}

// Participants returns the participant user ids
func (f *MemoryFragment) Participants() []string {
	return setToSlice(f.participants)
}

// HasParticipant reports whether the user took part in this memory
func (f *MemoryFragment) HasParticipant(userID string) bool {
	return f.participants[userID]
}

// ParticipantCount returns the number of participants
func (f *MemoryFragment) ParticipantCount() int {
	return len(f.participants)
}

// Tags returns the fragment's tags
func (f *MemoryFragment) Tags() []string {
	return setToSlice(f.tags)
}

// HasTag reports whether the fragment carries the tag
func (f *MemoryFragment) HasTag(tag string) bool {
	return f.tags[tag]
}

// TagCount returns the number of tags
func (f *MemoryFragment) TagCount() int {
	return len(f.tags)
}

// Connections returns the connected fragment ids
func (f *MemoryFragment) Connections() []string {
	return setToSlice(f.connections)
}

// IsConnectedTo reports whether an edge to the other fragment exists
func (f *MemoryFragment) IsConnectedTo(otherID valueobjects.FragmentID) bool {
	return f.connections[otherID.String()]
}

// ConnectionCount returns the number of edges
func (f *MemoryFragment) ConnectionCount() int {
	return len(f.connections)
}

// CanConnect reports whether another edge fits under the connection cap
func (f *MemoryFragment) CanConnect(cfg *config.DomainConfig) bool {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return len(f.connections) < cfg.MaxConnectionsPerFragment
}

// ConnectTo adds one directed half of a symmetric edge. The memory graph is
// responsible for inserting the mirror edge on the other fragment.
func (f *MemoryFragment) ConnectTo(otherID valueobjects.FragmentID) error {
	if otherID.Equals(f.id) {
		return pkgerrors.NewValidationError("cannot connect fragment to itself")
	}
	if f.connections[otherID.String()] {
		return nil // edge already present
	}
	f.connections[otherID.String()] = true
	return nil
}

// Touch records a recall scan over this fragment
func (f *MemoryFragment) Touch(now time.Time) {
	f.accessCount++
	f.lastAccessedAt = now
}

// AccessCount returns how many recall scans touched this fragment
func (f *MemoryFragment) AccessCount() int {
	return f.accessCount
}

// CreatedAt returns when the fragment was recorded
func (f *MemoryFragment) CreatedAt() time.Time {
	return f.createdAt
}

// LastAccessedAt returns when a recall last touched the fragment
func (f *MemoryFragment) LastAccessedAt() time.Time {
	return f.lastAccessedAt
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = true
		}
	}
	return set
}

func setToSlice(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	return out
}
