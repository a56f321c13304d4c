// Package maintenance holds on-demand repair passes over the remote
// collection, independent of the per-load pipeline.
package maintenance

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/vendaplan/backend/domain"
	"github.com/vendaplan/backend/repository"
)

type UseCase struct {
	activities repository.ActivityRepository
	logger     *zap.Logger
}

func New(activities repository.ActivityRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		activities: activities,
		logger:     logger,
	}
}

// Report summarizes one deduplication pass.
type Report struct {
	Deleted int `json:"deleted"`
	Errors  int `json:"errors"`
}

// Deduplicate collapses records that are the same logical activity but were
// physically duplicated by repeated non-atomic merges. Within each identity
// signature group the most recently updated record survives, ties broken by
// the numerically larger id. Deletions are independent: one failure is
// counted and never aborts the rest. There is no automatic retry; running
// the pass again on clean data is a no-op.
func (uc *UseCase) Deduplicate(ctx context.Context, userID string) (Report, error) {
	list, err := uc.activities.List(ctx, userID)
	if err != nil {
		return Report{}, domain.WrapError(domain.ErrCodeUnavailable, "could not list activities", err)
	}

	groups := make(map[string][]domain.Activity)
	for _, activity := range list {
		sig := activity.Signature()
		groups[sig] = append(groups[sig], activity)
	}

	signatures := make([]string, 0, len(groups))
	for sig := range groups {
		if len(groups[sig]) > 1 {
			signatures = append(signatures, sig)
		}
	}
	sort.Strings(signatures)

	var report Report
	for _, sig := range signatures {
		group := groups[sig]
		sort.Slice(group, func(i, j int) bool {
			return newerThan(&group[i], &group[j])
		})

		for _, duplicate := range group[1:] {
			if err := uc.activities.Delete(ctx, userID, duplicate.ID); err != nil {
				report.Errors++
				uc.logger.Warn("duplicate deletion failed",
					zap.String("user_id", userID),
					zap.Int64("activity_id", int64(duplicate.ID)),
					zap.Error(err))
				continue
			}
			report.Deleted++
		}
		uc.logger.Info("collapsed duplicate group",
			zap.String("user_id", userID),
			zap.String("signature", sig),
			zap.Int("size", len(group)),
			zap.Int64("kept", int64(group[0].ID)))
	}
	return report, nil
}

// newerThan orders descending by (parsed updatedAt, numeric id). A record
// without a usable clock sorts below any record with one.
func newerThan(a, b *domain.Activity) bool {
	clockA, okA := a.Clock()
	clockB, okB := b.Clock()
	switch {
	case okA && !okB:
		return true
	case !okA && okB:
		return false
	case okA && okB && !clockA.Equal(clockB):
		return clockA.After(clockB)
	default:
		return a.ID > b.ID
	}
}
