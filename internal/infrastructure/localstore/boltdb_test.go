package localstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaplan/backend/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "schedule.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestActivitiesRoundTrip(t *testing.T) {
	s := openTestStore(t)

	activities := []domain.Activity{
		{ID: 2, Name: "Visita", StartTime: "10:00", EndTime: "11:00"},
		{ID: 1, Name: "Ligações", StartTime: "08:00", EndTime: "09:00"},
	}
	require.NoError(t, s.ReplaceActivities("u1", activities))

	got, err := s.GetActivities("u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Keys are zero-padded ids, so the cursor walk sorts numerically.
	assert.Equal(t, domain.ActivityID(1), got[0].ID)
	assert.Equal(t, domain.ActivityID(2), got[1].ID)
}

func TestActivitiesIsolatedPerUser(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.PutActivity("u1", domain.Activity{ID: 1, Name: "a", StartTime: "08:00"}))
	require.NoError(t, s.PutActivity("u2", domain.Activity{ID: 2, Name: "b", StartTime: "09:00"}))

	got, err := s.GetActivities("u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Name)
}

func TestReplaceActivitiesDropsStaleEntries(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.PutActivity("u1", domain.Activity{ID: 1, Name: "old", StartTime: "08:00"}))
	require.NoError(t, s.ReplaceActivities("u1", []domain.Activity{
		{ID: 2, Name: "new", StartTime: "09:00"},
	}))

	got, err := s.GetActivities("u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.ActivityID(2), got[0].ID)
}

func TestPutActivityRejectsZeroID(t *testing.T) {
	s := openTestStore(t)
	err := s.PutActivity("u1", domain.Activity{Name: "a", StartTime: "08:00"})
	require.Error(t, err)
}

func TestDeleteActivityMissingIsNotAnError(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.DeleteActivity("u1", 99))
}

func TestLastActiveDateMarker(t *testing.T) {
	s := openTestStore(t)

	marker, err := s.GetLastActiveDate("u1")
	require.NoError(t, err)
	assert.Empty(t, marker)

	require.NoError(t, s.SetLastActiveDate("u1", "2024-01-02"))
	marker, err = s.GetLastActiveDate("u1")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", marker)
}

func TestArchiveRoundTripAndHistory(t *testing.T) {
	s := openTestStore(t)

	snapshot := []domain.Activity{
		{ID: 1, Name: "Visita", StartTime: "09:00", Status: domain.StatusCompleted, Date: "2024-01-01"},
	}
	require.NoError(t, s.WriteArchive("u1", "2024-01-01", snapshot))
	require.NoError(t, s.WriteArchive("u1", "2024-01-02", nil))
	require.NoError(t, s.WriteArchive("u2", "2024-01-01", snapshot))

	got, err := s.GetArchive("u1", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.StatusCompleted, got[0].Status)

	_, err = s.GetArchive("u1", "2023-12-31")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))

	history, err := s.History("u1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Contains(t, history, "2024-01-01")
	assert.Contains(t, history, "2024-01-02")
}

func TestWriteArchiveReplacesSameDate(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.WriteArchive("u1", "2024-01-01", []domain.Activity{{ID: 1, Name: "v1", StartTime: "08:00"}}))
	require.NoError(t, s.WriteArchive("u1", "2024-01-01", []domain.Activity{{ID: 1, Name: "v2", StartTime: "08:00"}}))

	got, err := s.GetArchive("u1", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "v2", got[0].Name)
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.PutActivity("u1", domain.Activity{ID: 7, Name: "persistente", StartTime: "08:00"}))
	require.NoError(t, s.SetLastActiveDate("u1", "2024-01-02"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetActivities("u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "persistente", got[0].Name)

	marker, err := s.GetLastActiveDate("u1")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", marker)
}
