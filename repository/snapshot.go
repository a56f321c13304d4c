package repository

import (
	"context"

	"github.com/vendaplan/backend/domain"
)

// SnapshotCache holds the most recent reconciled schedule per user so reads
// between loads skip the full pipeline. Entries are invalidated on mutation
// and expire on their own either way.
type SnapshotCache interface {
	Get(ctx context.Context, userID string) (*domain.Schedule, error)
	Set(ctx context.Context, schedule *domain.Schedule) error
	Invalidate(ctx context.Context, userID string) error
}
