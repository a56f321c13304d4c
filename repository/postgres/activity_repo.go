package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vendaplan/backend/domain"
	"github.com/vendaplan/backend/repository"
)

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository returns a Postgres-backed implementation of ActivityRepository.
func NewActivityRepository(pool *pgxpool.Pool) repository.ActivityRepository {
	return &activityRepository{pool: pool}
}

const activityColumns = `
	id, nome, horario_inicio, horario_fim, duracao, status,
	leads_contatados, visitas_realizadas, agendamentos_realizados,
	observacoes, inicio_real, fim_real, notificacao_enviada, updated_at_clock
`

func (r *activityRepository) List(ctx context.Context, userID string) ([]domain.Activity, error) {
	query := `
	SELECT ` + activityColumns + `
	FROM activities
	WHERE user_id = $1
	ORDER BY horario_inicio, id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *activity)
	}
	return activities, rows.Err()
}

func (r *activityRepository) Replace(ctx context.Context, userID string, activities []domain.Activity) error {
	// Whole-list replace is intentionally two statements, not a transaction:
	// callers treat it as an idempotent overwrite and re-run on failure.
	if _, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE user_id = $1`, userID); err != nil {
		return err
	}
	for i := range activities {
		if err := r.Upsert(ctx, userID, &activities[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *activityRepository) Upsert(ctx context.Context, userID string, activity *domain.Activity) error {
	if activity == nil || activity.ID == 0 {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO activities (
		user_id, id, nome, horario_inicio, horario_fim, duracao, status,
		leads_contatados, visitas_realizadas, agendamentos_realizados,
		observacoes, inicio_real, fim_real, notificacao_enviada, updated_at_clock
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (user_id, id) DO UPDATE
	SET nome = EXCLUDED.nome,
		horario_inicio = EXCLUDED.horario_inicio,
		horario_fim = EXCLUDED.horario_fim,
		duracao = EXCLUDED.duracao,
		status = EXCLUDED.status,
		leads_contatados = EXCLUDED.leads_contatados,
		visitas_realizadas = EXCLUDED.visitas_realizadas,
		agendamentos_realizados = EXCLUDED.agendamentos_realizados,
		observacoes = EXCLUDED.observacoes,
		inicio_real = EXCLUDED.inicio_real,
		fim_real = EXCLUDED.fim_real,
		notificacao_enviada = EXCLUDED.notificacao_enviada,
		updated_at_clock = EXCLUDED.updated_at_clock
	`

	_, err := r.pool.Exec(ctx, query,
		userID,
		int64(activity.ID),
		activity.Name,
		activity.StartTime,
		activity.EndTime,
		int(activity.Duration),
		string(activity.Status),
		int(activity.LeadsContacted),
		int(activity.VisitsDone),
		int(activity.SchedulingsMade),
		activity.Notes,
		activity.ActualStart,
		activity.ActualEnd,
		activity.NotificationSent,
		activity.UpdatedAt,
	)
	return err
}

func (r *activityRepository) Delete(ctx context.Context, userID string, id domain.ActivityID) error {
	const query = `DELETE FROM activities WHERE user_id = $1 AND id = $2`
	tag, err := r.pool.Exec(ctx, query, userID, int64(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrActivityNotFound
	}
	return nil
}

func scanActivity(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Activity, error) {
	var activity domain.Activity
	var (
		id                           int64
		duration, leads, visits, sch int
		status                       string
	)

	if err := row.Scan(
		&id,
		&activity.Name,
		&activity.StartTime,
		&activity.EndTime,
		&duration,
		&status,
		&leads,
		&visits,
		&sch,
		&activity.Notes,
		&activity.ActualStart,
		&activity.ActualEnd,
		&activity.NotificationSent,
		&activity.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrActivityNotFound
		}
		return nil, err
	}

	activity.ID = domain.ActivityID(id)
	activity.Duration = domain.Counter(duration)
	activity.Status = domain.ActivityStatus(status)
	activity.LeadsContacted = domain.Counter(leads)
	activity.VisitsDone = domain.Counter(visits)
	activity.SchedulingsMade = domain.Counter(sch)
	return &activity, nil
}
