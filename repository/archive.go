package repository

import (
	"context"

	"github.com/vendaplan/backend/domain"
)

// ArchiveRepository stores immutable day snapshots. WriteEntry replaces any
// prior entry for the same date, which is what makes re-running a partially
// failed rollover safe.
type ArchiveRepository interface {
	WriteEntry(ctx context.Context, userID, dateKey string, snapshot []domain.Activity) error
	GetEntry(ctx context.Context, userID, dateKey string) ([]domain.Activity, error)
	// ListDates returns the archived date keys in ascending order.
	ListDates(ctx context.Context, userID string) ([]string, error)
}
