package usecase

import (
	"context"

	"github.com/vendaplan/backend/domain"
)

// Change kinds accepted by the pending-change queue.
const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// ChangeBuffer abstracts the pending-change queue so use cases stay
// storage-agnostic. Implementations must tolerate replay: the queued
// operation is applied at-least-once against an idempotent remote upsert.
type ChangeBuffer interface {
	BufferActivity(ctx context.Context, kind string, userID string, activity *domain.Activity) error
}
