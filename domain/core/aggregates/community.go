package aggregates

import (
	"time"

	"sage-backend/domain/config"
	"sage-backend/domain/core/entities"
	"sage-backend/domain/core/valueobjects"
)

// CommunityState is the aggregate root for everything the core derives about
// one community. It is the unit of mutual exclusion: all mutations to a
// community's mood history, memory graph, wellness profiles and contagion
// model happen under the community's lock, held by the state registry.
type CommunityState struct {
	communityID string
	cfg         *config.DomainConfig

	moodValue   float64
	moodHistory []entities.MoodSnapshot

	fragments     map[string]*entities.MemoryFragment
	fragmentOrder []string

	profiles      map[string]*entities.WellnessProfile
	interventions map[string]*entities.InterventionRecord

	contagion *entities.ContagionModel

	activity []entities.ActivityDataPoint

	lastTouched time.Time
}

// NewCommunityState creates the lazily-constructed per-community state
func NewCommunityState(communityID string, cfg *config.DomainConfig) *CommunityState {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &CommunityState{
		communityID:   communityID,
		cfg:           cfg,
		fragments:     map[string]*entities.MemoryFragment{},
		profiles:      map[string]*entities.WellnessProfile{},
		interventions: map[string]*entities.InterventionRecord{},
		contagion: entities.NewContagionModel(
			communityID,
			cfg.DefaultTransmissionRate,
			cfg.DefaultDecayRate,
			cfg.InfluenceHistoryCap,
		),
		lastTouched: time.Now(),
	}
}

// CommunityID returns the owning community id
func (s *CommunityState) CommunityID() string {
	return s.communityID
}

// Config returns the domain tunables this state runs with
func (s *CommunityState) Config() *config.DomainConfig {
	return s.cfg
}

// SetConfig swaps in new domain tunables and re-derives the contagion rates
// from them. Called under the community lock when overrides are reloaded.
func (s *CommunityState) SetConfig(cfg *config.DomainConfig) {
	if cfg == nil {
		return
	}
	s.cfg = cfg
	s.contagion.TransmissionRate = cfg.DefaultTransmissionRate
	s.contagion.DecayRate = cfg.DefaultDecayRate
}

// MoodValue returns the current continuous mood value
func (s *CommunityState) MoodValue() float64 {
	return s.moodValue
}

// SetMoodValue updates the running mood, clamped to [-1,1]
func (s *CommunityState) SetMoodValue(value float64) {
	if value > 1 {
		value = 1
	}
	if value < -1 {
		value = -1
	}
	s.moodValue = value
}

// MoodState returns the current mood mapped to the ordinal scale
func (s *CommunityState) MoodState() valueobjects.MoodState {
	return valueobjects.MoodFromNumeric(s.moodValue)
}

// AppendSnapshot adds a mood snapshot, evicting the oldest past the cap
func (s *CommunityState) AppendSnapshot(snapshot entities.MoodSnapshot) {
	s.moodHistory = append(s.moodHistory, snapshot)
	if len(s.moodHistory) > s.cfg.MoodHistoryCap {
		s.moodHistory = s.moodHistory[len(s.moodHistory)-s.cfg.MoodHistoryCap:]
	}
}

// MoodHistory returns a read-only snapshot copy of the mood history
func (s *CommunityState) MoodHistory() []entities.MoodSnapshot {
	out := make([]entities.MoodSnapshot, len(s.moodHistory))
	copy(out, s.moodHistory)
	return out
}

// MoodHistorySince returns snapshots newer than the cutoff, oldest first
func (s *CommunityState) MoodHistorySince(cutoff time.Time) []entities.MoodSnapshot {
	out := make([]entities.MoodSnapshot, 0)
	for _, snap := range s.moodHistory {
		if snap.Timestamp.After(cutoff) {
			out = append(out, snap)
		}
	}
	return out
}

// AddFragment indexes a stored fragment, preserving store order
func (s *CommunityState) AddFragment(fragment *entities.MemoryFragment) {
	id := fragment.ID().String()
	if _, exists := s.fragments[id]; !exists {
		s.fragmentOrder = append(s.fragmentOrder, id)
	}
	s.fragments[id] = fragment
}

// Fragment returns a fragment by id
func (s *CommunityState) Fragment(id string) (*entities.MemoryFragment, bool) {
	f, ok := s.fragments[id]
	return f, ok
}

// Fragments returns all fragments in store order
func (s *CommunityState) Fragments() []*entities.MemoryFragment {
	out := make([]*entities.MemoryFragment, 0, len(s.fragmentOrder))
	for _, id := range s.fragmentOrder {
		if f, ok := s.fragments[id]; ok {
			out = append(out, f)
		}
	}
	return out
}

// FragmentCount returns how many fragments the community holds
func (s *CommunityState) FragmentCount() int {
	return len(s.fragments)
}

// Profile returns the wellness profile for a user, creating it lazily
func (s *CommunityState) Profile(userID string) *entities.WellnessProfile {
	if p, ok := s.profiles[userID]; ok {
		return p
	}
	p := entities.NewWellnessProfile(s.communityID, userID, s.cfg.SentimentWindowCap)
	s.profiles[userID] = p
	return p
}

// Profiles returns all wellness profiles
func (s *CommunityState) Profiles() []*entities.WellnessProfile {
	out := make([]*entities.WellnessProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	return out
}

// Intervention returns the current intervention record for a user, if any
func (s *CommunityState) Intervention(userID string) (*entities.InterventionRecord, bool) {
	r, ok := s.interventions[userID]
	return r, ok
}

// SetIntervention records the single active intervention for a user
func (s *CommunityState) SetIntervention(record *entities.InterventionRecord) {
	s.interventions[record.UserID] = record
}

// Contagion returns the community's contagion model
func (s *CommunityState) Contagion() *entities.ContagionModel {
	return s.contagion
}

// RecordActivity appends an activity data point and trims by retention
func (s *CommunityState) RecordActivity(point entities.ActivityDataPoint) {
	s.activity = append(s.activity, point)

	cutoff := time.Now().Add(-s.cfg.ActivityRetention)
	start := 0
	for start < len(s.activity) && s.activity[start].Timestamp.Before(cutoff) {
		start++
	}
	s.activity = s.activity[start:]

	if len(s.activity) > s.cfg.ActivityRetentionCap {
		s.activity = s.activity[len(s.activity)-s.cfg.ActivityRetentionCap:]
	}
}

// Activity returns a read-only copy of the retained activity points
func (s *CommunityState) Activity() []entities.ActivityDataPoint {
	out := make([]entities.ActivityDataPoint, len(s.activity))
	copy(out, s.activity)
	return out
}

// Touch marks the state as recently used for TTL eviction
func (s *CommunityState) Touch() {
	s.lastTouched = time.Now()
}

// LastTouched returns when the state was last used
func (s *CommunityState) LastTouched() time.Time {
	return s.lastTouched
}
