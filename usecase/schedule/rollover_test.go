package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaplan/backend/domain"
)

func TestRolloverSameDayIsNoOp(t *testing.T) {
	activities := []domain.Activity{{ID: 1, Name: "a", StartTime: "09:00", Status: domain.StatusInProgress}}

	result := EvaluateRollover(activities, "2024-01-02", "2024-01-02")

	assert.False(t, result.Changed)
	assert.Equal(t, activities, result.Activities)
	assert.Nil(t, result.Archive)
}

func TestRolloverArchivesAndResets(t *testing.T) {
	activities := []domain.Activity{{
		ID:             1,
		Name:           "Prospecção",
		StartTime:      "09:00",
		Status:         domain.StatusCompleted,
		LeadsContacted: 3,
		Notes:          "dia bom",
	}}

	result := EvaluateRollover(activities, "2024-01-01", "2024-01-02")

	require.True(t, result.Changed)
	assert.Equal(t, "2024-01-01", result.PreviousDate)
	assert.Equal(t, "2024-01-02", result.Today)

	// Archive keeps the end-of-day values, stamped with the previous date.
	require.Len(t, result.Archive, 1)
	assert.Equal(t, domain.StatusCompleted, result.Archive[0].Status)
	assert.Equal(t, domain.Counter(3), result.Archive[0].LeadsContacted)
	assert.Equal(t, "2024-01-01", result.Archive[0].Date)

	// The live copy carries the same identity with per-day fields cleared.
	require.Len(t, result.Activities, 1)
	assert.Equal(t, domain.ActivityID(1), result.Activities[0].ID)
	assert.Equal(t, domain.StatusNotStarted, result.Activities[0].Status)
	assert.Zero(t, result.Activities[0].LeadsContacted)
	assert.Empty(t, result.Activities[0].Notes)
}

// Archiving must snapshot the list before any reset touches it; seeing reset
// values in the archive means the copy happened too late.
func TestRolloverArchiveTakenBeforeReset(t *testing.T) {
	activities := []domain.Activity{
		{ID: 1, Name: "a", StartTime: "08:00", Status: domain.StatusCompleted, LeadsContacted: 9, VisitsDone: 4},
		{ID: 2, Name: "b", StartTime: "10:00", Status: domain.StatusPaused, SchedulingsMade: 2},
	}

	result := EvaluateRollover(activities, "2024-01-01", "2024-01-02")

	require.Len(t, result.Archive, 2)
	for i := range activities {
		assert.Equal(t, activities[i].Status, result.Archive[i].Status)
		assert.Equal(t, activities[i].LeadsContacted, result.Archive[i].LeadsContacted)
		assert.Equal(t, activities[i].VisitsDone, result.Archive[i].VisitsDone)
		assert.Equal(t, activities[i].SchedulingsMade, result.Archive[i].SchedulingsMade)
	}
	for i := range result.Activities {
		assert.Equal(t, domain.StatusNotStarted, result.Activities[i].Status)
		assert.Zero(t, result.Activities[i].LeadsContacted)
	}
	// The input list itself is never mutated.
	assert.Equal(t, domain.StatusCompleted, activities[0].Status)
}

func TestRolloverEmptyListSkipsArchiveButAdvances(t *testing.T) {
	result := EvaluateRollover(nil, "2024-01-01", "2024-01-02")

	assert.True(t, result.Changed)
	assert.Nil(t, result.Archive)
	assert.Nil(t, result.Activities)
	assert.Equal(t, "2024-01-02", result.Today)
}

func TestRolloverEmptyMarkerAdoptsTodayWithoutArchiving(t *testing.T) {
	activities := []domain.Activity{{ID: 1, Name: "a", StartTime: "09:00", Status: domain.StatusInProgress}}

	result := EvaluateRollover(activities, "", "2024-01-02")

	assert.True(t, result.Changed)
	assert.Nil(t, result.Archive)
	// Nothing to reset: there was no previous day on this device.
	assert.Equal(t, activities, result.Activities)
}

// Re-running the transition on already-reset data (marker advance failed)
// must be safe: the archive for the date is rebuilt identically and the
// reset is a no-op.
func TestRolloverReExecutionIsSafe(t *testing.T) {
	activities := []domain.Activity{{
		ID:             1,
		Name:           "Prospecção",
		StartTime:      "09:00",
		Status:         domain.StatusCompleted,
		LeadsContacted: 3,
	}}

	first := EvaluateRollover(activities, "2024-01-01", "2024-01-02")
	second := EvaluateRollover(first.Activities, "2024-01-01", "2024-01-02")

	assert.Equal(t, first.Activities, second.Activities)
	require.Len(t, second.Archive, 1)
	assert.Equal(t, "2024-01-01", second.Archive[0].Date)
	// Same date key both times: the replace-semantics write leaves one entry.
	assert.Equal(t, first.PreviousDate, second.PreviousDate)
}

func TestRolloverScenarioFullDay(t *testing.T) {
	activities := []domain.Activity{{
		ID:             1,
		Name:           "Follow-up",
		StartTime:      "09:00",
		Status:         domain.StatusCompleted,
		LeadsContacted: 3,
	}}

	result := EvaluateRollover(activities, "2024-01-01", "2024-01-02")

	require.True(t, result.Changed)
	require.Len(t, result.Archive, 1)
	assert.Equal(t, domain.Activity{
		ID:             1,
		Name:           "Follow-up",
		StartTime:      "09:00",
		Status:         domain.StatusCompleted,
		LeadsContacted: 3,
		Date:           "2024-01-01",
	}, result.Archive[0])

	require.Len(t, result.Activities, 1)
	assert.Equal(t, domain.StatusNotStarted, result.Activities[0].Status)
	assert.Zero(t, result.Activities[0].LeadsContacted)
	assert.Equal(t, "2024-01-02", result.Today)
}
