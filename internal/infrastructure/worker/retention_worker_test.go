package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockLifecycle struct {
	expired atomic.Int64
	removed atomic.Int64
}

func (m *mockLifecycle) ExpirePendingOlderThan(ctx context.Context, age time.Duration) int {
	m.expired.Add(1)
	return 2
}

func (m *mockLifecycle) CleanupTerminalOlderThan(age time.Duration) int {
	m.removed.Add(1)
	return 1
}

type mockPurger struct {
	deleteFunc func(ctx context.Context, age time.Duration) (int64, error)
}

func (m *mockPurger) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, age)
	}
	return 0, nil
}

func TestSweep(t *testing.T) {
	lifecycle := &mockLifecycle{}
	purged := atomic.Int64{}
	purger := &mockPurger{
		deleteFunc: func(ctx context.Context, age time.Duration) (int64, error) {
			purged.Add(1)
			return 3, nil
		},
	}

	w := NewRetentionWorker(DefaultRetentionConfig(), lifecycle, purger, zap.NewNop())
	w.Sweep(context.Background())

	assert.Equal(t, int64(1), lifecycle.expired.Load())
	assert.Equal(t, int64(1), lifecycle.removed.Load())
	assert.Equal(t, int64(1), purged.Load())
}

func TestSweepPurgeFailureIsNonFatal(t *testing.T) {
	lifecycle := &mockLifecycle{}
	purger := &mockPurger{
		deleteFunc: func(ctx context.Context, age time.Duration) (int64, error) {
			return 0, errors.New("disk full")
		},
	}

	w := NewRetentionWorker(DefaultRetentionConfig(), lifecycle, purger, zap.NewNop())
	w.Sweep(context.Background())

	// Store maintenance ran despite the purge failure
	assert.Equal(t, int64(1), lifecycle.expired.Load())
	assert.Equal(t, int64(1), lifecycle.removed.Load())
}

func TestStartStop(t *testing.T) {
	lifecycle := &mockLifecycle{}
	cfg := DefaultRetentionConfig()
	cfg.SweepInterval = 10 * time.Millisecond

	w := NewRetentionWorker(cfg, lifecycle, nil, zap.NewNop())
	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()), "double start is rejected")

	assert.Eventually(t, func() bool {
		return lifecycle.expired.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop(), "stop is idempotent")
}

func TestManagerLifecycle(t *testing.T) {
	lifecycle := &mockLifecycle{}
	cfg := DefaultRetentionConfig()
	cfg.SweepInterval = 10 * time.Millisecond

	m := NewManager(zap.NewNop())
	m.Register(NewRetentionWorker(cfg, lifecycle, nil, zap.NewNop()))

	require.NoError(t, m.StartAll(context.Background()))
	assert.Error(t, m.StartAll(context.Background()))

	m.StopAll()
	m.StopAll()
}
