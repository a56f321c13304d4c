package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vendaplan/backend/domain"
	"github.com/vendaplan/backend/repository"
)

type archiveRepository struct {
	pool *pgxpool.Pool
}

// NewArchiveRepository returns a Postgres-backed implementation of ArchiveRepository.
func NewArchiveRepository(pool *pgxpool.Pool) repository.ArchiveRepository {
	return &archiveRepository{pool: pool}
}

func (r *archiveRepository) WriteEntry(ctx context.Context, userID, dateKey string, snapshot []domain.Activity) error {
	if dateKey == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	// Replace, never append: one entry per (user, date).
	const query = `
	INSERT INTO schedule_archive (user_id, date, snapshot, archived_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (user_id, date) DO UPDATE
	SET snapshot = EXCLUDED.snapshot,
		archived_at = NOW()
	`
	_, err = r.pool.Exec(ctx, query, userID, dateKey, payload)
	return err
}

func (r *archiveRepository) GetEntry(ctx context.Context, userID, dateKey string) ([]domain.Activity, error) {
	const query = `SELECT snapshot FROM schedule_archive WHERE user_id = $1 AND date = $2`
	var payload []byte
	if err := r.pool.QueryRow(ctx, query, userID, dateKey).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrArchiveNotFound
		}
		return nil, err
	}

	var snapshot []domain.Activity
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (r *archiveRepository) ListDates(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT date FROM schedule_archive WHERE user_id = $1 ORDER BY date`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}
