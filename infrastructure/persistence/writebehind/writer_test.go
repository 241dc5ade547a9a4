package writebehind

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sage-backend/application/ports"
	"sage-backend/infrastructure/persistence/memory"
)

// flakyStore fails the first failures writes, then delegates to the real store
type flakyStore struct {
	*memory.RecordStore
	mu       sync.Mutex
	failures int
	attempts int
}

func (s *flakyStore) Set(ctx context.Context, record ports.Record) error {
	s.mu.Lock()
	s.attempts++
	fail := s.attempts <= s.failures
	s.mu.Unlock()

	if fail {
		return fmt.Errorf("transient store failure")
	}
	return s.RecordStore.Set(ctx, record)
}

// blockingStore holds every write until release is closed
type blockingStore struct {
	*memory.RecordStore
	release chan struct{}
}

func (s *blockingStore) Set(ctx context.Context, record ports.Record) error {
	<-s.release
	return s.RecordStore.Set(ctx, record)
}

func testRecord(key string) ports.Record {
	return ports.Record{
		Table:       ports.TableMoodSnapshots,
		Key:         key,
		CommunityID: "guild-1",
		Payload:     []byte(`{}`),
		UpdatedAt:   time.Now(),
	}
}

func TestCloseFlushesQueue(t *testing.T) {
	store := memory.NewRecordStore()
	writer := NewWriter(store, Options{QueueSize: 16}, zap.NewNop(), nil)

	writer.Enqueue(testRecord("a"), testRecord("b"), testRecord("c"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, writer.Close(ctx))

	assert.Equal(t, 3, store.Len())
}

func TestEnqueueAfterCloseDrops(t *testing.T) {
	store := memory.NewRecordStore()
	writer := NewWriter(store, Options{QueueSize: 16}, zap.NewNop(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, writer.Close(ctx))

	// Must not panic, must not persist
	writer.Enqueue(testRecord("late"))
	assert.Zero(t, store.Len())
}

func TestConcurrentEnqueueAndCloseNeverPanics(t *testing.T) {
	store := memory.NewRecordStore()
	writer := NewWriter(store, Options{QueueSize: 4}, zap.NewNop(), nil)

	// Hammer Enqueue from many goroutines while Close races the senders; an
	// unguarded send would panic on the closed queue channel
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				writer.Enqueue(testRecord(fmt.Sprintf("r-%d-%d", n, j)))
			}
		}(i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, writer.Close(ctx))
	wg.Wait()
}

func TestFullQueueDropsInsteadOfBlocking(t *testing.T) {
	store := &blockingStore{
		RecordStore: memory.NewRecordStore(),
		release:     make(chan struct{}),
	}
	writer := NewWriter(store, Options{QueueSize: 1}, zap.NewNop(), nil)

	// First record is picked up by the worker and blocks inside Set
	writer.Enqueue(testRecord("in-flight"))
	time.Sleep(50 * time.Millisecond)

	// Second fills the queue; third has nowhere to go
	writer.Enqueue(testRecord("queued"))
	writer.Enqueue(testRecord("dropped"))

	close(store.release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, writer.Close(ctx))

	assert.Equal(t, 2, store.Len())
	dropped, err := store.Get(context.Background(), ports.TableMoodSnapshots, "dropped")
	require.NoError(t, err)
	assert.Nil(t, dropped)
}

func TestPersistRetriesTransientFailures(t *testing.T) {
	store := &flakyStore{RecordStore: memory.NewRecordStore(), failures: 2}
	writer := NewWriter(store, Options{QueueSize: 16, RetryLimit: 3}, zap.NewNop(), nil)

	writer.Enqueue(testRecord("a"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, writer.Close(ctx))

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 3, store.attempts)
}

func TestRetryLimitGivesUp(t *testing.T) {
	store := &flakyStore{RecordStore: memory.NewRecordStore(), failures: 100}
	writer := NewWriter(store, Options{QueueSize: 16, RetryLimit: 2}, zap.NewNop(), nil)

	writer.Enqueue(testRecord("doomed"), testRecord("fine"))

	// Let the doomed record exhaust its retries, then heal the store
	time.Sleep(150 * time.Millisecond)
	store.mu.Lock()
	store.failures = store.attempts
	store.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, writer.Close(ctx))

	fine, err := store.Get(context.Background(), ports.TableMoodSnapshots, "fine")
	require.NoError(t, err)
	assert.NotNil(t, fine)
}
