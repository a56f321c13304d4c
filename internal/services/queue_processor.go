package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/vendaplan/backend/domain"
	"github.com/vendaplan/backend/internal/infrastructure/buffer"
	"github.com/vendaplan/backend/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the queue is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// QueueProcessor replays pending changes against the remote store. Delivery
// is at-least-once in strict enqueue order; a failed change keeps its place
// for the next drain while later independent changes still proceed.
type QueueProcessor struct {
	queue      *buffer.Queue
	monitor    ConnectionHealth
	activities repository.ActivityRepository
	snapshots  repository.SnapshotCache
	logger     *zap.Logger
	cron       *cron.Cron
	cfg        ProcessorConfig
}

func NewQueueProcessor(
	queue *buffer.Queue,
	monitor ConnectionHealth,
	activities repository.ActivityRepository,
	snapshots repository.SnapshotCache,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *QueueProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	qp := &QueueProcessor{
		queue:      queue,
		monitor:    monitor,
		activities: activities,
		snapshots:  snapshots,
		logger:     logger,
		cfg:        cfg,
		cron:       cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = qp.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := qp.Drain(ctx); err != nil {
			qp.logger.Error("queue drain failed", zap.Error(err))
		}
	})

	return qp
}

// Start launches the cron scheduler.
func (qp *QueueProcessor) Start() {
	if qp == nil || qp.cron == nil {
		return
	}
	qp.cron.Start()
	qp.logger.Info("queue processor started")
}

// Stop gracefully stops the scheduler.
func (qp *QueueProcessor) Stop(ctx context.Context) {
	if qp == nil || qp.cron == nil {
		return
	}
	stopCtx := qp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	qp.logger.Info("queue processor stopped")
}

// Drain replays queued changes synchronously, oldest first. Each entry is
// removed only after its remote application is confirmed. Malformed entries
// are dropped so they cannot block the rest of the queue.
func (qp *QueueProcessor) Drain(ctx context.Context) error {
	if qp == nil || qp.queue == nil {
		return nil
	}
	if qp.monitor != nil && !qp.monitor.IsOnline() {
		qp.logger.Debug("skipping queue drain (offline)")
		return nil
	}

	changes, err := qp.queue.Peek(qp.cfg.BatchSize)
	if err != nil {
		return err
	}

	touched := make(map[string]struct{})
	for _, change := range changes {
		if !change.Valid() {
			qp.logger.Warn("dropping malformed queued change", zap.String("change_id", change.ID))
			_ = qp.queue.Remove(change)
			continue
		}

		if err := qp.Apply(ctx, change); err != nil {
			qp.logger.Error("failed to replay queued change",
				zap.String("change_id", change.ID),
				zap.String("kind", change.Kind),
				zap.Error(err))

			change.Retries++
			if change.Retries >= qp.cfg.MaxRetries {
				qp.logger.Warn("dropping queued change (max retries reached)", zap.String("change_id", change.ID))
				_ = qp.queue.Remove(change)
				continue
			}
			// Left in place for the next drain; only the counter is persisted.
			if err := qp.queue.Update(change); err != nil {
				qp.logger.Warn("failed to persist retry counter", zap.Error(err))
			}
			continue
		}

		touched[change.UserID] = struct{}{}
		if err := qp.queue.Remove(change); err != nil {
			qp.logger.Warn("failed to purge replayed change", zap.Error(err))
		}
	}

	if qp.snapshots != nil {
		for userID := range touched {
			if err := qp.snapshots.Invalidate(ctx, userID); err != nil {
				qp.logger.Debug("snapshot invalidation failed", zap.String("user_id", userID), zap.Error(err))
			}
		}
	}
	return nil
}

// Apply executes one change against the remote store immediately. Deletes of
// already-deleted activities succeed, since replay may observe its own
// earlier effect.
func (qp *QueueProcessor) Apply(ctx context.Context, change buffer.Change) error {
	if ctx == nil {
		ctx = context.Background()
	}

	switch change.Kind {
	case buffer.KindCreate, buffer.KindUpdate:
		var activity domain.Activity
		if err := json.Unmarshal(change.Payload, &activity); err != nil {
			return err
		}
		if activity.ID == 0 {
			activity.ID = change.ActivityID
		}
		return qp.activities.Upsert(ctx, change.UserID, &activity)

	case buffer.KindDelete:
		err := qp.activities.Delete(ctx, change.UserID, change.ActivityID)
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil
		}
		return err

	default:
		return fmt.Errorf("unsupported change kind %s", change.Kind)
	}
}

// Enqueue persists a change for later replay.
func (qp *QueueProcessor) Enqueue(change buffer.Change) error {
	if qp == nil || qp.queue == nil {
		return fmt.Errorf("queue processor not configured")
	}
	return qp.queue.Enqueue(change)
}

// Online reports whether the remote store is currently reachable.
func (qp *QueueProcessor) Online() bool {
	return qp.monitor == nil || qp.monitor.IsOnline()
}

// Size returns the number of pending changes.
func (qp *QueueProcessor) Size() int {
	if qp == nil || qp.queue == nil {
		return 0
	}
	size, err := qp.queue.Size()
	if err != nil {
		return 0
	}
	return size
}
