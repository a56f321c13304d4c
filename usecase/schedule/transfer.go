package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vendaplan/backend/domain"
	"github.com/vendaplan/backend/repository"
)

// ExportBlob is the human-downloadable whole-state snapshot. The same shape
// is accepted back on import.
type ExportBlob struct {
	ExportedAt     string                       `json:"exported_at,omitempty"`
	LastActiveDate string                       `json:"lastActiveDate,omitempty"`
	Activities     []domain.Activity            `json:"atividades"`
	History        map[string][]domain.Activity `json:"scheduleHistory,omitempty"`
}

// Export runs the load pipeline and packages the result, so an export is
// always of reconciled, rolled-over, sanitized state.
func (uc *UseCase) Export(ctx context.Context, userID string) (*ExportBlob, error) {
	sched, err := uc.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ExportBlob{
		ExportedAt:     uc.now().UTC().Format(time.RFC3339),
		LastActiveDate: sched.LastActiveDate,
		Activities:     sched.Activities,
		History:        sched.History,
	}, nil
}

// Import replaces the user's state with the blob's content. Records lacking
// a usable numeric id get a fresh clock-derived one before validation, so
// only records corrupt in name or start time are rejected; the sanitizer is
// the exact same pass a normal load runs.
func (uc *UseCase) Import(ctx context.Context, userID string, blob *ExportBlob) (*domain.Schedule, error) {
	if blob == nil {
		return nil, domain.ErrInvalidPayload
	}
	lock := uc.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	incoming := make([]domain.Activity, len(blob.Activities))
	copy(incoming, blob.Activities)
	base := uc.now().UnixMilli()
	for i := range incoming {
		if incoming[i].ID == 0 {
			incoming[i].ID = domain.ActivityID(base + int64(i))
		}
	}

	clean, dropped := Sanitize(incoming)
	if dropped > 0 {
		uc.logger.Warn("import dropped corrupt records",
			zap.String("user_id", userID), zap.Int("dropped", dropped))
	}

	if err := uc.activities.Replace(ctx, userID, clean); err != nil {
		uc.logger.Warn("imported list write-back failed", zap.String("user_id", userID), zap.Error(err))
	}
	if err := uc.local.ReplaceActivities(userID, clean); err != nil {
		return nil, err
	}

	for date, snapshot := range blob.History {
		if date == "" {
			continue
		}
		if err := uc.local.WriteArchive(userID, date, snapshot); err != nil {
			uc.logger.Warn("local archive import failed",
				zap.String("user_id", userID), zap.String("date", date), zap.Error(err))
		}
		if uc.archive != nil {
			if err := uc.archive.WriteEntry(ctx, userID, date, snapshot); err != nil {
				uc.logger.Warn("remote archive import failed",
					zap.String("user_id", userID), zap.String("date", date), zap.Error(err))
			}
		}
	}

	marker := blob.LastActiveDate
	if marker == "" {
		marker = domain.DayKey(uc.now())
	}
	if err := uc.profiles.UpsertFields(ctx, userID, repository.ProfileFields{repository.FieldLastActiveDate: marker}); err != nil {
		uc.logger.Warn("remote marker import failed", zap.String("user_id", userID), zap.Error(err))
	}
	if err := uc.local.SetLastActiveDate(userID, marker); err != nil {
		uc.logger.Warn("local marker import failed", zap.String("user_id", userID), zap.Error(err))
	}

	uc.invalidateSnapshot(ctx, userID)

	history, err := uc.local.History(userID)
	if err != nil {
		history = nil
	}
	return &domain.Schedule{
		UserID:         userID,
		LastActiveDate: marker,
		Activities:     clean,
		History:        history,
		UpdatedAt:      uc.now(),
	}, nil
}
