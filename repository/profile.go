package repository

import (
	"context"

	"github.com/vendaplan/backend/domain"
)

// ProfileFields is a partial update: only the keys present are written,
// every other remote field stays untouched.
type ProfileFields map[string]interface{}

// Well-known field names accepted by UpsertFields.
const (
	FieldLastActiveDate = "last_active_date"
	FieldDisplayName    = "display_name"
	FieldSettings       = "settings"
)

type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	// UpsertFields merges the given fields into the profile document,
	// creating it when absent.
	UpsertFields(ctx context.Context, userID string, fields ProfileFields) error
}
