package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vendaplan/backend/domain"
	"github.com/vendaplan/backend/repository"
)

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository instantiates a Postgres-backed profile repository.
func NewProfileRepository(pool *pgxpool.Pool) repository.ProfileRepository {
	return &profileRepository{pool: pool}
}

func (r *profileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	const query = `
	SELECT user_id, display_name, last_active_date, settings, created_at, updated_at
	FROM profiles
	WHERE user_id = $1
	`
	row := r.pool.QueryRow(ctx, query, userID)

	var profile domain.Profile
	var settings []byte

	if err := row.Scan(
		&profile.UserID,
		&profile.DisplayName,
		&profile.LastActiveDate,
		&settings,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}

	if len(settings) > 0 {
		_ = json.Unmarshal(settings, &profile.Settings)
	}
	return &profile, nil
}

// columnFor whitelists updatable profile columns; unknown keys are rejected
// so a partial update can never clobber arbitrary columns.
func columnFor(field string) (string, bool) {
	switch field {
	case repository.FieldLastActiveDate, repository.FieldDisplayName, repository.FieldSettings:
		return field, true
	default:
		return "", false
	}
}

func (r *profileRepository) UpsertFields(ctx context.Context, userID string, fields repository.ProfileFields) error {
	if len(fields) == 0 {
		return nil
	}

	columns := []string{"user_id"}
	values := []interface{}{userID}
	updates := []string{"updated_at = NOW()"}

	for field, value := range fields {
		column, ok := columnFor(field)
		if !ok {
			return domain.WrapError(domain.ErrCodeInvalid, "unknown profile field", fmt.Errorf("field %q", field))
		}
		if field == repository.FieldSettings {
			encoded, err := json.Marshal(value)
			if err != nil {
				return err
			}
			value = encoded
		}
		columns = append(columns, column)
		values = append(values, value)
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", column, column))
	}

	placeholders := make([]string, len(values))
	for i := range values {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`
	INSERT INTO profiles (%s)
	VALUES (%s)
	ON CONFLICT (user_id) DO UPDATE
	SET %s
	`,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	_, err := r.pool.Exec(ctx, query, values...)
	return err
}
