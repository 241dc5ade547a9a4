package writebehind

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"sage-backend/application/ports"
	"sage-backend/pkg/observability"
)

// Writer persists records asynchronously so the intelligence pipeline never
// holds a community lock across storage I/O. Records are enqueued after lock
// release and flushed by a background worker; a full queue drops the record
// rather than blocking the caller.
type Writer struct {
	store      ports.RecordStore
	queue      chan ports.Record
	breaker    *gobreaker.CircuitBreaker
	retryLimit int
	logger     *zap.Logger
	metrics    *observability.Collector

	wg        sync.WaitGroup
	closeOnce sync.Once

	// mu makes the closed check and the queue send atomic with respect to
	// Close, so a racing Enqueue can never send on the closed channel
	mu     sync.RWMutex
	closed bool
}

// Options tunes the write-behind writer
type Options struct {
	QueueSize  int
	RetryLimit int
}

// NewWriter creates a writer and starts its background flush worker
func NewWriter(store ports.RecordStore, opts Options, logger *zap.Logger, metrics *observability.Collector) *Writer {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	if opts.RetryLimit <= 0 {
		opts.RetryLimit = 3
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "record-store",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("record store circuit breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	w := &Writer{
		store:      store,
		queue:      make(chan ports.Record, opts.QueueSize),
		breaker:    breaker,
		retryLimit: opts.RetryLimit,
		logger:     logger,
		metrics:    metrics,
	}

	w.wg.Add(1)
	go w.flushLoop()
	return w
}

// Enqueue submits records for asynchronous persistence. It never blocks;
// records that do not fit the queue are dropped and counted.
func (w *Writer) Enqueue(records ...ports.Record) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, record := range records {
		if w.closed {
			w.drop(record)
			continue
		}
		select {
		case w.queue <- record:
		default:
			w.drop(record)
		}
	}
}

// Close stops accepting records and flushes what is already queued. It blocks
// until the queue drains or ctx expires.
func (w *Writer) Close(ctx context.Context) error {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		close(w.queue)
		w.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) flushLoop() {
	defer w.wg.Done()

	for record := range w.queue {
		w.persist(record)
	}
}

func (w *Writer) persist(record ports.Record) {
	backoff := 100 * time.Millisecond

	for attempt := 0; attempt < w.retryLimit; attempt++ {
		_, err := w.breaker.Execute(func() (interface{}, error) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return nil, w.store.Set(ctx, record)
		})
		if err == nil {
			if w.metrics != nil {
				w.metrics.RecordsPersisted.WithLabelValues(record.Table, "ok").Inc()
			}
			return
		}

		// Open breaker means the store is down; retrying immediately is noise
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			break
		}

		w.logger.Warn("record write failed, retrying",
			zap.String("table", record.Table),
			zap.String("key", record.Key),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		time.Sleep(backoff)
		backoff *= 2
	}

	if w.metrics != nil {
		w.metrics.RecordsPersisted.WithLabelValues(record.Table, "failed").Inc()
	}
	w.logger.Error("giving up on record write",
		zap.String("table", record.Table),
		zap.String("key", record.Key),
	)
}

func (w *Writer) drop(record ports.Record) {
	if w.metrics != nil {
		w.metrics.RecordsDropped.Inc()
	}
	w.logger.Warn("dropping record, write queue full or closed",
		zap.String("table", record.Table),
		zap.String("key", record.Key),
	)
}
