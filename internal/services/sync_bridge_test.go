package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaplan/backend/domain"
	"github.com/vendaplan/backend/internal/infrastructure/buffer"
)

func TestBufferActivityAppliesImmediatelyWhenOnline(t *testing.T) {
	q := openQueue(t)
	repo := &stubActivityRepo{}
	qp := NewQueueProcessor(q, &stubMonitor{online: true}, repo, nil, nil, ProcessorConfig{})
	bridge := NewSyncBridge(qp)

	err := bridge.BufferActivity(context.Background(), buffer.KindCreate, "u1",
		&domain.Activity{ID: 1, Name: "Visita", StartTime: "09:00"})
	require.NoError(t, err)

	require.Len(t, repo.upserts, 1)
	assert.Zero(t, qp.Size())
}

func TestBufferActivityEnqueuesWhenOffline(t *testing.T) {
	q := openQueue(t)
	repo := &stubActivityRepo{}
	qp := NewQueueProcessor(q, &stubMonitor{online: false}, repo, nil, nil, ProcessorConfig{})
	bridge := NewSyncBridge(qp)

	err := bridge.BufferActivity(context.Background(), buffer.KindUpdate, "u1",
		&domain.Activity{ID: 1, Name: "Visita", StartTime: "09:00"})
	require.NoError(t, err)

	assert.Empty(t, repo.upserts)
	assert.Equal(t, 1, qp.Size())
}

func TestBufferActivityEnqueuesWhenApplyFails(t *testing.T) {
	q := openQueue(t)
	repo := &stubActivityRepo{upsertErr: errors.New("connection refused")}
	qp := NewQueueProcessor(q, &stubMonitor{online: true}, repo, nil, nil, ProcessorConfig{})
	bridge := NewSyncBridge(qp)

	err := bridge.BufferActivity(context.Background(), buffer.KindCreate, "u1",
		&domain.Activity{ID: 1, Name: "Visita", StartTime: "09:00"})
	require.NoError(t, err)
	assert.Equal(t, 1, qp.Size())
}

func TestBufferActivityDeleteCarriesNoPayload(t *testing.T) {
	q := openQueue(t)
	qp := NewQueueProcessor(q, &stubMonitor{online: false}, &stubActivityRepo{}, nil, nil, ProcessorConfig{})
	bridge := NewSyncBridge(qp)

	err := bridge.BufferActivity(context.Background(), buffer.KindDelete, "u1", &domain.Activity{ID: 9})
	require.NoError(t, err)

	changes, err := q.Peek(1)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Empty(t, changes[0].Payload)
	assert.Equal(t, domain.ActivityID(9), changes[0].ActivityID)
}

func TestBufferActivityRejectsBadInput(t *testing.T) {
	bridge := NewSyncBridge(nil)
	err := bridge.BufferActivity(context.Background(), buffer.KindCreate, "u1", &domain.Activity{ID: 1})
	require.Error(t, err)

	qp := NewQueueProcessor(openQueue(t), nil, &stubActivityRepo{}, nil, nil, ProcessorConfig{})
	bridge = NewSyncBridge(qp)
	require.Error(t, bridge.BufferActivity(context.Background(), buffer.KindCreate, "", &domain.Activity{ID: 1}))
	require.Error(t, bridge.BufferActivity(context.Background(), buffer.KindCreate, "u1", nil))
}
