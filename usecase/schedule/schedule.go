package schedule

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vendaplan/backend/domain"
	"github.com/vendaplan/backend/repository"
	"github.com/vendaplan/backend/usecase"
)

// LocalStore is the durable on-device replica consulted before the network:
// the cached live list keyed by activity id, the rollover marker and the
// local copy of day archives.
type LocalStore interface {
	GetActivities(userID string) ([]domain.Activity, error)
	ReplaceActivities(userID string, activities []domain.Activity) error
	PutActivity(userID string, activity domain.Activity) error
	DeleteActivity(userID string, id domain.ActivityID) error
	GetLastActiveDate(userID string) (string, error)
	SetLastActiveDate(userID, date string) error
	WriteArchive(userID, dateKey string, snapshot []domain.Activity) error
	History(userID string) (map[string][]domain.Activity, error)
}

// UseCase orchestrates the load pipeline (reconcile, rollover, sanitize,
// expose) and the activity mutations feeding it. At most one pipeline run
// executes per user at a time.
type UseCase struct {
	profiles   repository.ProfileRepository
	activities repository.ActivityRepository
	archive    repository.ArchiveRepository
	local      LocalStore
	snapshots  repository.SnapshotCache
	buffer     usecase.ChangeBuffer
	logger     *zap.Logger

	now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(
	profiles repository.ProfileRepository,
	activities repository.ActivityRepository,
	archive repository.ArchiveRepository,
	local LocalStore,
	snapshots repository.SnapshotCache,
	buffer usecase.ChangeBuffer,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		profiles:   profiles,
		activities: activities,
		archive:    archive,
		local:      local,
		snapshots:  snapshots,
		buffer:     buffer,
		logger:     logger,
		now:        time.Now,
		locks:      make(map[string]*sync.Mutex),
	}
}

// Load runs the full pipeline for one user and returns the authoritative
// schedule. The order is mandatory: rollover must observe the merged list,
// not a raw half-synced one, and sanitization runs last before exposure.
//
// Failure policy favors availability: an unreadable local cache degrades the
// session to remote-only, an unreachable remote store degrades it to
// local-only; only both failing at once is an error.
func (uc *UseCase) Load(ctx context.Context, userID string) (*domain.Schedule, error) {
	if userID == "" {
		return nil, domain.ErrInvalidPayload
	}
	lock := uc.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	local, localErr := uc.local.GetActivities(userID)
	if localErr != nil {
		// Degrade to remote-only rather than blocking startup.
		uc.logger.Warn("local cache unreadable, continuing remote-only",
			zap.String("user_id", userID), zap.Error(localErr))
		local = nil
	}

	remote, remoteErr := uc.activities.List(ctx, userID)
	if remoteErr != nil {
		uc.logger.Warn("remote fetch failed, continuing with local cache",
			zap.String("user_id", userID), zap.Error(remoteErr))
		if localErr != nil {
			return nil, domain.WrapError(domain.ErrCodeUnavailable, "no usable schedule data", remoteErr)
		}
	}

	var merged MergeResult
	if remoteErr != nil {
		merged = MergeResult{Activities: local}
	} else {
		merged = Merge(remote, local)
		if merged.Changed() {
			uc.logger.Info("reconciled schedule",
				zap.String("user_id", userID),
				zap.Int("inserted", merged.Inserted),
				zap.Int("replaced", merged.Replaced))
			if err := uc.activities.Replace(ctx, userID, merged.Activities); err != nil {
				uc.logger.Warn("merged list write-back failed", zap.String("user_id", userID), zap.Error(err))
			}
			if err := uc.local.ReplaceActivities(userID, merged.Activities); err != nil {
				uc.logger.Warn("local cache write failed", zap.String("user_id", userID), zap.Error(err))
			}
		}
	}

	marker := uc.loadMarker(ctx, userID, remoteErr == nil)
	today := domain.DayKey(uc.now())

	result := EvaluateRollover(merged.Activities, marker, today)
	if result.Changed {
		uc.applyRollover(ctx, userID, result, remoteErr == nil)
	}

	clean, dropped := Sanitize(result.Activities)
	if dropped > 0 {
		uc.logger.Warn("dropped corrupt activity records",
			zap.String("user_id", userID), zap.Int("dropped", dropped))
	}
	if merged.Changed() || result.Changed || dropped > 0 {
		if err := uc.local.ReplaceActivities(userID, clean); err != nil {
			uc.logger.Warn("local cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	history, err := uc.local.History(userID)
	if err != nil {
		uc.logger.Warn("local history unreadable", zap.String("user_id", userID), zap.Error(err))
		history = nil
	}

	sched := &domain.Schedule{
		UserID:         userID,
		LastActiveDate: today,
		Activities:     clean,
		History:        history,
		UpdatedAt:      uc.now(),
	}

	if uc.snapshots != nil {
		if err := uc.snapshots.Set(ctx, sched); err != nil {
			uc.logger.Debug("snapshot cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return sched, nil
}

// loadMarker prefers the remotely persisted marker, falling back to the
// local one when the profile is unreadable or absent.
func (uc *UseCase) loadMarker(ctx context.Context, userID string, online bool) string {
	if online {
		profile, err := uc.profiles.Get(ctx, userID)
		switch {
		case err == nil && profile.LastActiveDate != "":
			return profile.LastActiveDate
		case err != nil && !domain.IsDomainError(err, domain.ErrCodeNotFound):
			uc.logger.Warn("profile fetch failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	marker, err := uc.local.GetLastActiveDate(userID)
	if err != nil {
		uc.logger.Warn("local marker unreadable", zap.String("user_id", userID), zap.Error(err))
		return ""
	}
	return marker
}

// applyRollover persists a detected day transition. Write order is
// correctness-critical: the archive goes out before the reset list, and the
// marker advance is the final, defining action — if anything before it
// fails, the next load re-detects the same transition and safely repeats.
func (uc *UseCase) applyRollover(ctx context.Context, userID string, result RolloverResult, online bool) {
	log := uc.logger.With(
		zap.String("user_id", userID),
		zap.String("previous_date", result.PreviousDate),
		zap.String("today", result.Today),
	)
	log.Info("day rollover detected", zap.Stringer("state", StateDayChanged))

	if len(result.Archive) > 0 {
		completed := 0
		for i := range result.Archive {
			if result.Archive[i].IsCompleted() {
				completed++
			}
		}
		log.Debug("rollover transition",
			zap.Stringer("state", StateArchiving),
			zap.Int("archived", len(result.Archive)),
			zap.Int("completed", completed))
		if err := uc.local.WriteArchive(userID, result.PreviousDate, result.Archive); err != nil {
			log.Warn("local archive write failed", zap.Error(err))
		}
		// Best-effort remote push; a failure leaves the archive local-only
		// until the next rollover re-detection.
		if online && uc.archive != nil {
			archive := result.Archive
			date := result.PreviousDate
			go func() {
				pushCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				if err := uc.archive.WriteEntry(pushCtx, userID, date, archive); err != nil {
					log.Warn("remote archive push failed", zap.Error(err))
				}
			}()
		}
	}

	log.Debug("rollover transition", zap.Stringer("state", StateResetting))
	if online {
		if err := uc.activities.Replace(ctx, userID, result.Activities); err != nil {
			log.Warn("reset list write-back failed", zap.Error(err))
		}
	}
	if err := uc.local.ReplaceActivities(userID, result.Activities); err != nil {
		log.Warn("local reset write failed", zap.Error(err))
	}

	if online {
		fields := repository.ProfileFields{repository.FieldLastActiveDate: result.Today}
		if err := uc.profiles.UpsertFields(ctx, userID, fields); err != nil {
			log.Warn("remote marker advance failed, rollover will re-run", zap.Error(err))
		}
	}
	if err := uc.local.SetLastActiveDate(userID, result.Today); err != nil {
		log.Warn("local marker advance failed", zap.Error(err))
	}
	log.Info("day rollover complete", zap.Stringer("state", StateDone))
}

// CreateActivity validates and stores a new activity, falling back to the
// pending-change queue when the remote write fails.
func (uc *UseCase) CreateActivity(ctx context.Context, userID string, activity *domain.Activity) (*domain.Activity, error) {
	if activity == nil {
		return nil, domain.ErrInvalidPayload
	}
	if activity.ID == 0 {
		activity.ID = domain.ActivityID(uc.now().UnixMilli())
	}
	activity.Touch(uc.now())

	clean, dropped := Sanitize([]domain.Activity{*activity})
	if dropped > 0 {
		return nil, domain.ErrInvalidPayload
	}
	*activity = clean[0]

	if err := uc.activities.Upsert(ctx, userID, activity); err != nil {
		if !uc.shouldBuffer(ctx, usecase.OperationCreate, userID, activity) {
			return nil, err
		}
	}
	uc.cacheMutation(ctx, userID, activity)
	return activity, nil
}

// UpdateActivity applies an edit with the same validation and queue fallback.
func (uc *UseCase) UpdateActivity(ctx context.Context, userID string, activity *domain.Activity) (*domain.Activity, error) {
	if activity == nil || activity.ID == 0 {
		return nil, domain.ErrInvalidPayload
	}
	activity.Touch(uc.now())

	clean, dropped := Sanitize([]domain.Activity{*activity})
	if dropped > 0 {
		return nil, domain.ErrInvalidPayload
	}
	*activity = clean[0]

	if err := uc.activities.Upsert(ctx, userID, activity); err != nil {
		if !uc.shouldBuffer(ctx, usecase.OperationUpdate, userID, activity) {
			return nil, err
		}
	}
	uc.cacheMutation(ctx, userID, activity)
	return activity, nil
}

// DeleteActivity removes an activity everywhere, queueing the remote delete
// when it cannot be confirmed.
func (uc *UseCase) DeleteActivity(ctx context.Context, userID string, id domain.ActivityID) error {
	if id == 0 {
		return domain.ErrInvalidPayload
	}
	if err := uc.activities.Delete(ctx, userID, id); err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return err
		}
		if !uc.shouldBuffer(ctx, usecase.OperationDelete, userID, &domain.Activity{ID: id}) {
			return err
		}
	}
	if err := uc.local.DeleteActivity(userID, id); err != nil {
		uc.logger.Warn("local delete failed", zap.String("user_id", userID), zap.Error(err))
	}
	uc.invalidateSnapshot(ctx, userID)
	return nil
}

func (uc *UseCase) cacheMutation(ctx context.Context, userID string, activity *domain.Activity) {
	if err := uc.local.PutActivity(userID, *activity); err != nil {
		uc.logger.Warn("local cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
	uc.invalidateSnapshot(ctx, userID)
}

func (uc *UseCase) invalidateSnapshot(ctx context.Context, userID string) {
	if uc.snapshots == nil {
		return
	}
	if err := uc.snapshots.Invalidate(ctx, userID); err != nil {
		uc.logger.Debug("snapshot invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (uc *UseCase) shouldBuffer(ctx context.Context, kind, userID string, activity *domain.Activity) bool {
	if uc.buffer == nil {
		return false
	}
	if err := uc.buffer.BufferActivity(ctx, kind, userID, activity); err != nil {
		uc.logger.Error("failed to queue activity change",
			zap.String("kind", kind), zap.String("user_id", userID), zap.Error(err))
		return false
	}
	uc.logger.Warn("activity change queued for replay",
		zap.String("kind", kind), zap.String("user_id", userID), zap.Int64("activity_id", int64(activity.ID)))
	return true
}

func (uc *UseCase) userLock(userID string) *sync.Mutex {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	lock, ok := uc.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		uc.locks[userID] = lock
	}
	return lock
}
