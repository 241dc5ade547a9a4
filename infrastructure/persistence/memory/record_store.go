package memory

import (
	"context"
	"sort"
	"sync"

	"sage-backend/application/ports"
)

// RecordStore is an in-memory ports.RecordStore used in development and tests
type RecordStore struct {
	mu     sync.RWMutex
	tables map[string]map[string]ports.Record
}

// NewRecordStore creates an empty in-memory record store
func NewRecordStore() *RecordStore {
	return &RecordStore{
		tables: make(map[string]map[string]ports.Record),
	}
}

// Get retrieves a record, returning nil when it does not exist
func (s *RecordStore) Get(ctx context.Context, table, key string) (*ports.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.tables[table]
	if !ok {
		return nil, nil
	}
	record, ok := rows[key]
	if !ok {
		return nil, nil
	}
	copied := record
	return &copied, nil
}

// Set stores or replaces a record
func (s *RecordStore) Set(ctx context.Context, record ports.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, ok := s.tables[record.Table]
	if !ok {
		rows = make(map[string]ports.Record)
		s.tables[record.Table] = rows
	}
	rows[record.Key] = record
	return nil
}

// Delete removes a record
func (s *RecordStore) Delete(ctx context.Context, table, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rows, ok := s.tables[table]; ok {
		delete(rows, key)
	}
	return nil
}

// QueryByCommunity returns all records of a table for one community
func (s *RecordStore) QueryByCommunity(ctx context.Context, table, communityID string) ([]ports.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]ports.Record, 0)
	for _, record := range s.tables[table] {
		if record.CommunityID == communityID {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })
	return records, nil
}

// Len reports the number of stored records across all tables
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, rows := range s.tables {
		total += len(rows)
	}
	return total
}
