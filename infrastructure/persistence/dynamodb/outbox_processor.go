package dynamodb

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"sage-backend/application/ports"
)

// OutboxRelay drains the alert outbox to the event bus in the background.
// Before each sweep it takes the relay lease, so scaled-out instances never
// double-deliver alerts.
type OutboxRelay struct {
	outbox    *AlertOutbox
	publisher ports.AlertPublisher
	lock      *DistributedLock
	logger    *zap.Logger

	batchSize  int32
	interval   time.Duration
	maxRetries int
	ownerID    string

	stopChan    chan struct{}
	stoppedChan chan struct{}
}

const relayLeaseResource = "alert-outbox-relay"

// NewOutboxRelay creates a relay. lock may be nil for single-instance
// deployments.
func NewOutboxRelay(outbox *AlertOutbox, publisher ports.AlertPublisher, lock *DistributedLock, ownerID string, logger *zap.Logger) *OutboxRelay {
	return &OutboxRelay{
		outbox:      outbox,
		publisher:   publisher,
		lock:        lock,
		logger:      logger,
		batchSize:   50,
		interval:    5 * time.Second,
		maxRetries:  3,
		ownerID:     ownerID,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Start begins relaying in the background
func (r *OutboxRelay) Start(ctx context.Context) {
	r.logger.Info("starting alert outbox relay",
		zap.Int32("batchSize", r.batchSize),
		zap.Duration("interval", r.interval),
	)
	go r.relayLoop(ctx)
}

// Stop stops the relay and waits for the current sweep to finish
func (r *OutboxRelay) Stop() {
	close(r.stopChan)
	<-r.stoppedChan
	r.logger.Info("alert outbox relay stopped")
}

func (r *OutboxRelay) relayLoop(ctx context.Context) {
	defer close(r.stoppedChan)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case <-ticker.C:
			if err := r.sweep(ctx); err != nil {
				r.logger.Error("outbox sweep failed", zap.Error(err))
			}
		}
	}
}

func (r *OutboxRelay) sweep(ctx context.Context) error {
	if r.lock != nil {
		lease, err := r.lock.AcquireLock(ctx, relayLeaseResource, r.ownerID, r.interval*2)
		if err != nil {
			// Another instance holds the lease; its sweep covers this tick
			r.logger.Debug("relay lease unavailable", zap.Error(err))
			return nil
		}
		defer func() {
			if err := lease.Release(ctx); err != nil {
				r.logger.Warn("failed to release relay lease", zap.Error(err))
			}
		}()
	}

	pending, err := r.outbox.GetPending(ctx, r.batchSize)
	if err != nil {
		return err
	}

	for _, entry := range pending {
		if err := r.deliver(ctx, entry); err != nil {
			r.logger.Warn("alert delivery failed",
				zap.String("entryID", entry.EntryID),
				zap.String("detailType", entry.DetailType),
				zap.Int("attempts", entry.Attempts+1),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (r *OutboxRelay) deliver(ctx context.Context, entry OutboxEntry) error {
	err := r.publisher.PublishAlert(ctx, entry.DetailType, json.RawMessage(entry.Payload))
	if err == nil {
		return r.outbox.MarkPublished(ctx, entry)
	}

	if entry.Attempts+1 >= r.maxRetries {
		r.logger.Error("alert permanently failed, parking in dead letter partition",
			zap.String("entryID", entry.EntryID),
			zap.String("detailType", entry.DetailType),
		)
		if deadErr := r.outbox.MoveToDead(ctx, entry); deadErr != nil {
			return deadErr
		}
		return err
	}

	if markErr := r.outbox.MarkFailed(ctx, entry, err.Error()); markErr != nil {
		return markErr
	}
	return err
}

// OutboxPublisher is the write-path side of the outbox: it implements
// ports.AlertPublisher by staging alerts instead of calling the bus directly.
type OutboxPublisher struct {
	outbox *AlertOutbox
}

// NewOutboxPublisher creates a publisher staging alerts in outbox
func NewOutboxPublisher(outbox *AlertOutbox) *OutboxPublisher {
	return &OutboxPublisher{outbox: outbox}
}

// PublishAlert stages the alert for asynchronous delivery
func (p *OutboxPublisher) PublishAlert(ctx context.Context, detailType string, payload interface{}) error {
	return p.outbox.Append(ctx, detailType, payload)
}
