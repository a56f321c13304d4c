package repository

import (
	"context"

	"github.com/vendaplan/backend/domain"
)

// ActivityRepository is the remote-store surface for the live activity list.
// Upsert must be idempotent: the pending-change queue replays at-least-once.
type ActivityRepository interface {
	// List returns the user's live activities ordered by start time.
	List(ctx context.Context, userID string) ([]domain.Activity, error)
	// Replace overwrites the whole live list with the given one.
	Replace(ctx context.Context, userID string, activities []domain.Activity) error
	Upsert(ctx context.Context, userID string, activity *domain.Activity) error
	Delete(ctx context.Context, userID string, id domain.ActivityID) error
}
