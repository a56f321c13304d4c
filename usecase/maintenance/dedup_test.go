package maintenance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaplan/backend/domain"
)

type stubActivityRepo struct {
	list      []domain.Activity
	listErr   error
	deleted   []domain.ActivityID
	deleteErr map[domain.ActivityID]error
}

func (s *stubActivityRepo) List(context.Context, string) ([]domain.Activity, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.list, nil
}

func (s *stubActivityRepo) Replace(context.Context, string, []domain.Activity) error { return nil }

func (s *stubActivityRepo) Upsert(context.Context, string, *domain.Activity) error { return nil }

func (s *stubActivityRepo) Delete(_ context.Context, _ string, id domain.ActivityID) error {
	if err, ok := s.deleteErr[id]; ok {
		return err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func TestDeduplicateKeepsNewestDeletesRest(t *testing.T) {
	repo := &stubActivityRepo{list: []domain.Activity{
		{ID: 100, Name: "Follow-up", StartTime: "09:00", EndTime: "10:00", UpdatedAt: "2024-01-01T09:00"},
		{ID: 200, Name: "Follow-up", StartTime: "09:00", EndTime: "10:00", UpdatedAt: "2024-01-02T08:00"},
	}}
	uc := New(repo, nil)

	report, err := uc.Deduplicate(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, Report{Deleted: 1, Errors: 0}, report)
	assert.Equal(t, []domain.ActivityID{100}, repo.deleted)
}

func TestDeduplicateTieBrokenByLargerID(t *testing.T) {
	repo := &stubActivityRepo{list: []domain.Activity{
		{ID: 100, Name: "Follow-up", StartTime: "09:00", EndTime: "10:00", UpdatedAt: "2024-01-01T09:00"},
		{ID: 200, Name: "Follow-up", StartTime: "09:00", EndTime: "10:00", UpdatedAt: "2024-01-01T09:00"},
	}}
	uc := New(repo, nil)

	report, err := uc.Deduplicate(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, 1, report.Deleted)
	assert.Equal(t, []domain.ActivityID{100}, repo.deleted)
}

func TestDeduplicateIdentityIgnoresNameCaseAndSpace(t *testing.T) {
	repo := &stubActivityRepo{list: []domain.Activity{
		{ID: 1, Name: "  follow-up ", StartTime: "09:00", EndTime: "10:00", UpdatedAt: "2024-01-01T09:00"},
		{ID: 2, Name: "Follow-Up", StartTime: "09:00", EndTime: "10:00", UpdatedAt: "2024-01-02T09:00"},
	}}
	uc := New(repo, nil)

	report, err := uc.Deduplicate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deleted)
	assert.Equal(t, []domain.ActivityID{1}, repo.deleted)
}

func TestDeduplicateDifferentWindowsUntouched(t *testing.T) {
	repo := &stubActivityRepo{list: []domain.Activity{
		{ID: 1, Name: "Follow-up", StartTime: "09:00", EndTime: "10:00"},
		{ID: 2, Name: "Follow-up", StartTime: "11:00", EndTime: "12:00"},
	}}
	uc := New(repo, nil)

	report, err := uc.Deduplicate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, report.Deleted)
	assert.Empty(t, repo.deleted)
}

func TestDeduplicateSecondRunIsNoOp(t *testing.T) {
	repo := &stubActivityRepo{list: []domain.Activity{
		{ID: 100, Name: "Follow-up", StartTime: "09:00", EndTime: "10:00", UpdatedAt: "2024-01-01T09:00"},
		{ID: 200, Name: "Follow-up", StartTime: "09:00", EndTime: "10:00", UpdatedAt: "2024-01-02T08:00"},
	}}
	uc := New(repo, nil)

	_, err := uc.Deduplicate(context.Background(), "u1")
	require.NoError(t, err)

	repo.list = []domain.Activity{repo.list[1]}
	repo.deleted = nil

	report, err := uc.Deduplicate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
	assert.Empty(t, repo.deleted)
}

func TestDeduplicateCountsFailedDeletions(t *testing.T) {
	repo := &stubActivityRepo{
		list: []domain.Activity{
			{ID: 1, Name: "a", StartTime: "09:00", EndTime: "10:00", UpdatedAt: "2024-01-01T09:00"},
			{ID: 2, Name: "a", StartTime: "09:00", EndTime: "10:00", UpdatedAt: "2024-01-02T09:00"},
			{ID: 3, Name: "b", StartTime: "09:00", EndTime: "10:00", UpdatedAt: "2024-01-01T09:00"},
			{ID: 4, Name: "b", StartTime: "09:00", EndTime: "10:00", UpdatedAt: "2024-01-02T09:00"},
		},
		deleteErr: map[domain.ActivityID]error{1: errors.New("connection reset")},
	}
	uc := New(repo, nil)

	report, err := uc.Deduplicate(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, Report{Deleted: 1, Errors: 1}, report)
	assert.Equal(t, []domain.ActivityID{3}, repo.deleted)
}

func TestDeduplicateListFailure(t *testing.T) {
	repo := &stubActivityRepo{listErr: errors.New("connection refused")}
	uc := New(repo, nil)

	_, err := uc.Deduplicate(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnavailable))
}

func TestDeduplicateUnclockedRecordLoses(t *testing.T) {
	repo := &stubActivityRepo{list: []domain.Activity{
		{ID: 500, Name: "Visita", StartTime: "09:00", EndTime: "10:00"},
		{ID: 100, Name: "Visita", StartTime: "09:00", EndTime: "10:00", UpdatedAt: "2024-01-01T09:00"},
	}}
	uc := New(repo, nil)

	report, err := uc.Deduplicate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deleted)
	assert.Equal(t, []domain.ActivityID{500}, repo.deleted)
}
