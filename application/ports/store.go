package ports

import (
	"context"
	"time"
)

// Logical tables of the keyed record store. One row per entity; enum fields
// are stored as string tags, structured fields as an opaque serialized blob.
const (
	TablePredictions         = "predictions"
	TableWellnessProfiles    = "wellness_profiles"
	TableMemoryFragments     = "memory_fragments"
	TableMoodSnapshots       = "mood_snapshots"
	TableCommunityInsights   = "community_insights"
	TableCrossServerPatterns = "cross_server_patterns"
)

// Record is one stored row: an opaque versioned payload under (table, key)
type Record struct {
	Table       string
	Key         string
	CommunityID string
	Payload     []byte
	UpdatedAt   time.Time
}

// RecordStore is the persistence collaborator consumed by the core. The
// algorithmic core never talks to a database directly; everything flows
// through this interface so the core stays unit-testable without one.
type RecordStore interface {
	// Get retrieves a record, returning nil when it does not exist
	Get(ctx context.Context, table, key string) (*Record, error)

	// Set stores or replaces a record
	Set(ctx context.Context, record Record) error

	// Delete removes a record
	Delete(ctx context.Context, table, key string) error

	// QueryByCommunity returns all records of a table for one community
	QueryByCommunity(ctx context.Context, table, communityID string) ([]Record, error)
}

// RecordSink accepts records for asynchronous persistence. Implementations
// must never block: the pipeline enqueues after releasing the community lock
// and moves on.
type RecordSink interface {
	// Enqueue submits records for eventual persistence
	Enqueue(records ...Record)
}

// AlertPublisher fans intervention plans and high-confidence predictions out
// to the command layer. Implementations must be safe to call concurrently.
type AlertPublisher interface {
	// PublishAlert emits one wellness or prediction alert payload
	PublishAlert(ctx context.Context, detailType string, payload interface{}) error
}
