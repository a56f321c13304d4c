package schedule

import (
	"github.com/vendaplan/backend/domain"
)

// RolloverState names the phases of the day-boundary transition, used for
// structured logging by the orchestrator.
type RolloverState int

const (
	StateSameDay RolloverState = iota
	StateDayChanged
	StateArchiving
	StateResetting
	StateDone
)

func (s RolloverState) String() string {
	switch s {
	case StateSameDay:
		return "same_day"
	case StateDayChanged:
		return "day_changed"
	case StateArchiving:
		return "archiving"
	case StateResetting:
		return "resetting"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// RolloverResult is the outcome of evaluating the day boundary. When Changed
// is false the working set passes through untouched. When Changed is true,
// Archive holds the stamped snapshot of the previous day (nil when the list
// was empty), Activities holds the reset working set and the marker must be
// advanced to Today as the final persisted action.
type RolloverResult struct {
	Changed      bool
	PreviousDate string
	Today        string
	Archive      []domain.Activity
	Activities   []domain.Activity
}

// EvaluateRollover compares the persisted last-active-date marker against
// today's calendar-day key and, on a day change, produces the archive copy
// and the reset working set.
//
// The archive copies are taken before any reset: archiving after the reset
// would snapshot already-cleared data. An empty marker (first load ever)
// advances the marker without archiving or resetting — there is no previous
// day to snapshot. Re-running after a partial failure is safe: the archive
// write replaces and the reset is a no-op on already-reset fields.
func EvaluateRollover(activities []domain.Activity, lastActiveDate, today string) RolloverResult {
	if today == "" || lastActiveDate == today {
		return RolloverResult{Today: today, Activities: activities}
	}

	result := RolloverResult{
		Changed:      true,
		PreviousDate: lastActiveDate,
		Today:        today,
	}

	if lastActiveDate == "" {
		result.Activities = activities
		return result
	}

	if len(activities) > 0 {
		archive := make([]domain.Activity, len(activities))
		for i := range activities {
			archive[i] = activities[i].Stamped(lastActiveDate)
		}
		result.Archive = archive
	}

	reset := make([]domain.Activity, len(activities))
	copy(reset, activities)
	for i := range reset {
		reset[i].ResetForNewDay()
	}
	if len(reset) == 0 {
		reset = nil
	}
	result.Activities = reset
	return result
}
