package buffer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaplan/backend/domain"
)

func openTestQueue(t *testing.T) *Queue {
	t.Helper()
	q, err := Open(filepath.Join(t.TempDir(), "pending.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })
	return q
}

func TestQueuePreservesInsertionOrder(t *testing.T) {
	q := openTestQueue(t)
	base := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Change{
			UserID:     "u1",
			Kind:       KindCreate,
			ActivityID: domain.ActivityID(i + 1),
			Timestamp:  base.Add(time.Duration(i) * time.Millisecond),
		}))
	}

	changes, err := q.Peek(10)
	require.NoError(t, err)
	require.Len(t, changes, 5)
	for i, change := range changes {
		assert.Equal(t, domain.ActivityID(i+1), change.ActivityID)
	}
}

func TestQueuePeekHonorsLimit(t *testing.T) {
	q := openTestQueue(t)
	base := time.Now()
	for i := 0; i < 4; i++ {
		require.NoError(t, q.Enqueue(Change{
			UserID:     "u1",
			Kind:       KindUpdate,
			ActivityID: domain.ActivityID(i + 1),
			Timestamp:  base.Add(time.Duration(i) * time.Millisecond),
		}))
	}

	changes, err := q.Peek(2)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, domain.ActivityID(1), changes[0].ActivityID)
}

func TestQueueRemove(t *testing.T) {
	q := openTestQueue(t)
	require.NoError(t, q.Enqueue(Change{UserID: "u1", Kind: KindDelete, ActivityID: 7}))

	changes, err := q.Peek(1)
	require.NoError(t, err)
	require.Len(t, changes, 1)

	require.NoError(t, q.Remove(changes[0]))
	size, err := q.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestQueueUpdateKeepsPosition(t *testing.T) {
	q := openTestQueue(t)
	base := time.Now()
	require.NoError(t, q.Enqueue(Change{UserID: "u1", Kind: KindCreate, ActivityID: 1, Timestamp: base}))
	require.NoError(t, q.Enqueue(Change{UserID: "u1", Kind: KindCreate, ActivityID: 2, Timestamp: base.Add(time.Millisecond)}))

	changes, err := q.Peek(10)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	first := changes[0]
	first.Retries = 3
	require.NoError(t, q.Update(first))

	changes, err = q.Peek(10)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, domain.ActivityID(1), changes[0].ActivityID)
	assert.Equal(t, 3, changes[0].Retries)

	size, err := q.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, size)
}

func TestQueueCleanupDropsOldEntries(t *testing.T) {
	q := openTestQueue(t)
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, q.Enqueue(Change{UserID: "u1", Kind: KindCreate, ActivityID: 1, Timestamp: old}))
	require.NoError(t, q.Enqueue(Change{UserID: "u1", Kind: KindCreate, ActivityID: 2}))

	require.NoError(t, q.Cleanup(time.Now().Add(-24*time.Hour)))

	changes, err := q.Peek(10)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.ActivityID(2), changes[0].ActivityID)
}

func TestQueueSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pending.db")

	q, err := Open(path, "")
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(Change{UserID: "u1", Kind: KindCreate, ActivityID: 42}))
	require.NoError(t, q.Close())

	q, err = Open(path, "")
	require.NoError(t, err)
	defer q.Close()

	changes, err := q.Peek(1)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.ActivityID(42), changes[0].ActivityID)
	assert.Equal(t, "u1", changes[0].UserID)
}

func TestChangeValid(t *testing.T) {
	valid := Change{UserID: "u1", Kind: KindCreate, ActivityID: 1}
	assert.True(t, valid.Valid())

	cases := []Change{
		{Kind: KindCreate, ActivityID: 1},
		{UserID: "u1", ActivityID: 1},
		{UserID: "u1", Kind: "merge", ActivityID: 1},
		{UserID: "u1", Kind: KindDelete},
	}
	for _, c := range cases {
		assert.False(t, c.Valid())
	}
}
