package schedule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaplan/backend/domain"
	"github.com/vendaplan/backend/repository"
)

func TestExportPackagesPipelineOutput(t *testing.T) {
	f := newFixture(t)
	f.profiles.profile = &domain.Profile{UserID: "u1", LastActiveDate: "2024-01-02"}
	f.activities.list = []domain.Activity{
		{ID: 1, Name: "Visita", StartTime: "09:00", EndTime: "10:00"},
	}
	f.local.archives = map[string][]domain.Activity{
		"2024-01-01": {{ID: 1, Name: "Visita", StartTime: "09:00", Date: "2024-01-01"}},
	}

	blob, err := f.uc.Export(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, "2024-01-02", blob.LastActiveDate)
	assert.NotEmpty(t, blob.ExportedAt)
	require.Len(t, blob.Activities, 1)
	require.Contains(t, blob.History, "2024-01-01")
}

func TestImportReplacesStateEverywhere(t *testing.T) {
	f := newFixture(t)

	blob := &ExportBlob{
		LastActiveDate: "2024-01-02",
		Activities: []domain.Activity{
			{ID: 10, Name: "Ligações", StartTime: "08:00", EndTime: "09:00"},
		},
		History: map[string][]domain.Activity{
			"2023-12-31": {{ID: 10, Name: "Ligações", StartTime: "08:00", Date: "2023-12-31"}},
		},
	}

	sched, err := f.uc.Import(context.Background(), "u1", blob)
	require.NoError(t, err)

	require.Len(t, f.activities.replaced, 1)
	require.Len(t, sched.Activities, 1)
	assert.Equal(t, domain.ActivityID(10), sched.Activities[0].ID)
	assert.Equal(t, "2024-01-02", f.local.marker)
	require.Len(t, f.profiles.fields, 1)
	assert.Equal(t, "2024-01-02", f.profiles.fields[0][repository.FieldLastActiveDate])
	require.Len(t, f.archive.entry("2023-12-31"), 1)
	assert.Equal(t, []string{"u1"}, f.snapshots.invalidated)
}

func TestImportRegeneratesMissingIDs(t *testing.T) {
	f := newFixture(t)

	blob := &ExportBlob{
		Activities: []domain.Activity{
			{Name: "Sem id", StartTime: "08:00", EndTime: "09:00"},
			{Name: "Também sem id", StartTime: "10:00", EndTime: "11:00"},
		},
	}

	sched, err := f.uc.Import(context.Background(), "u1", blob)
	require.NoError(t, err)

	require.Len(t, sched.Activities, 2)
	assert.NotZero(t, sched.Activities[0].ID)
	assert.NotZero(t, sched.Activities[1].ID)
	assert.NotEqual(t, sched.Activities[0].ID, sched.Activities[1].ID)
}

func TestImportDropsCorruptRecords(t *testing.T) {
	f := newFixture(t)

	blob := &ExportBlob{
		Activities: []domain.Activity{
			{ID: 1, Name: "Válida", StartTime: "08:00", EndTime: "09:00"},
			{ID: 2, Name: "undefined", StartTime: "08:00"},
			{ID: 3, Name: "Sem horário", StartTime: "--:--"},
		},
	}

	sched, err := f.uc.Import(context.Background(), "u1", blob)
	require.NoError(t, err)

	require.Len(t, sched.Activities, 1)
	assert.Equal(t, domain.ActivityID(1), sched.Activities[0].ID)
}

func TestImportDefaultsMissingMarkerToToday(t *testing.T) {
	f := newFixture(t)

	sched, err := f.uc.Import(context.Background(), "u1", &ExportBlob{})
	require.NoError(t, err)

	assert.Equal(t, "2024-01-02", sched.LastActiveDate)
	assert.Equal(t, "2024-01-02", f.local.marker)
}

func TestImportNilBlobRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Import(context.Background(), "u1", nil)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestExportImportRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.profiles.profile = &domain.Profile{UserID: "u1", LastActiveDate: "2024-01-02"}
	f.activities.list = []domain.Activity{
		{ID: 1, Name: "Visita", StartTime: "09:00", EndTime: "10:00", UpdatedAt: "2024-01-02T09:00"},
	}

	blob, err := f.uc.Export(context.Background(), "u1")
	require.NoError(t, err)

	restored, err := f.uc.Import(context.Background(), "u2", blob)
	require.NoError(t, err)

	require.Len(t, restored.Activities, len(blob.Activities))
	assert.Equal(t, blob.Activities[0].Name, restored.Activities[0].Name)
	assert.Equal(t, blob.Activities[0].StartTime, restored.Activities[0].StartTime)
	assert.Equal(t, blob.LastActiveDate, restored.LastActiveDate)
}
