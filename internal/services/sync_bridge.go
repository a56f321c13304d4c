package services

import (
	"context"
	"encoding/json"

	"github.com/vendaplan/backend/domain"
	"github.com/vendaplan/backend/internal/infrastructure/buffer"
	"github.com/vendaplan/backend/usecase"
)

// SyncBridge adapts the queue processor to the use-case facing ChangeBuffer
// port. When the remote store looks reachable it attempts the operation
// immediately and only enqueues on failure.
type SyncBridge struct {
	processor *QueueProcessor
}

func NewSyncBridge(processor *QueueProcessor) *SyncBridge {
	return &SyncBridge{processor: processor}
}

func (b *SyncBridge) BufferActivity(ctx context.Context, kind string, userID string, activity *domain.Activity) error {
	if b.processor == nil || activity == nil || userID == "" {
		return domain.ErrInvalidPayload
	}

	change := buffer.Change{
		UserID:     userID,
		Kind:       kind,
		ActivityID: activity.ID,
	}
	if kind != buffer.KindDelete {
		payload, err := json.Marshal(activity)
		if err != nil {
			return err
		}
		change.Payload = payload
	}

	if b.processor.Online() {
		if err := b.processor.Apply(ctx, change); err == nil {
			return nil
		}
	}
	return b.processor.Enqueue(change)
}

var _ usecase.ChangeBuffer = (*SyncBridge)(nil)
