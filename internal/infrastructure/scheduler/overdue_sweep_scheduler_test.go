package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSweeper records sweep invocations per tenant
type fakeSweeper struct {
	mu       sync.Mutex
	tenants  []uuid.UUID
	swept    map[uuid.UUID]int
	sweepErr map[uuid.UUID]error
	marked   int
}

func newFakeSweeper(tenants ...uuid.UUID) *fakeSweeper {
	return &fakeSweeper{
		tenants:  tenants,
		swept:    make(map[uuid.UUID]int),
		sweepErr: make(map[uuid.UUID]error),
		marked:   2,
	}
}

func (f *fakeSweeper) ListSweepTenants(ctx context.Context) ([]uuid.UUID, error) {
	return f.tenants, nil
}

func (f *fakeSweeper) RunOverdueSweep(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.sweepErr[tenantID]; err != nil {
		return 0, err
	}
	f.swept[tenantID]++
	return f.marked, nil
}

func (f *fakeSweeper) sweepCount(tenantID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.swept[tenantID]
}

func TestDefaultOverdueSweepConfig(t *testing.T) {
	cfg := DefaultOverdueSweepConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 3, cfg.SweepHour)
	assert.Equal(t, 10*time.Minute, cfg.CheckInterval)
	assert.Equal(t, 5*time.Minute, cfg.SweepTimeout)
}

func TestOverdueSweepScheduler_ShouldRun(t *testing.T) {
	cfg := DefaultOverdueSweepConfig()
	cfg.SweepHour = 3

	t.Run("before sweep hour", func(t *testing.T) {
		s := &OverdueSweepScheduler{config: cfg}
		assert.False(t, s.shouldRun(time.Date(2026, 3, 20, 2, 59, 0, 0, time.UTC)))
	})

	t.Run("at sweep hour with no prior sweep", func(t *testing.T) {
		s := &OverdueSweepScheduler{config: cfg}
		assert.True(t, s.shouldRun(time.Date(2026, 3, 20, 3, 0, 0, 0, time.UTC)))
	})

	t.Run("late tick still fires", func(t *testing.T) {
		s := &OverdueSweepScheduler{config: cfg}
		assert.True(t, s.shouldRun(time.Date(2026, 3, 20, 17, 45, 0, 0, time.UTC)))
	})

	t.Run("already swept today", func(t *testing.T) {
		s := &OverdueSweepScheduler{config: cfg}
		swept := time.Date(2026, 3, 20, 3, 10, 0, 0, time.UTC)
		s.lastSweptAt = &swept
		assert.False(t, s.shouldRun(time.Date(2026, 3, 20, 13, 0, 0, 0, time.UTC)))
	})

	t.Run("next day fires again", func(t *testing.T) {
		s := &OverdueSweepScheduler{config: cfg}
		swept := time.Date(2026, 3, 20, 3, 10, 0, 0, time.UTC)
		s.lastSweptAt = &swept
		assert.True(t, s.shouldRun(time.Date(2026, 3, 21, 3, 10, 0, 0, time.UTC)))
	})
}

func TestOverdueSweepScheduler_RunSweep(t *testing.T) {
	t.Run("sweeps every property", func(t *testing.T) {
		tenant1 := uuid.New()
		tenant2 := uuid.New()
		sweeper := newFakeSweeper(tenant1, tenant2)

		s := NewOverdueSweepScheduler(DefaultOverdueSweepConfig(), sweeper, zap.NewNop())
		s.runSweep(context.Background(), time.Now())

		assert.Equal(t, 1, sweeper.sweepCount(tenant1))
		assert.Equal(t, 1, sweeper.sweepCount(tenant2))
	})

	t.Run("a failing property does not stop the others", func(t *testing.T) {
		tenant1 := uuid.New()
		tenant2 := uuid.New()
		sweeper := newFakeSweeper(tenant1, tenant2)
		sweeper.sweepErr[tenant1] = errors.New("db unavailable")

		s := NewOverdueSweepScheduler(DefaultOverdueSweepConfig(), sweeper, zap.NewNop())
		s.runSweep(context.Background(), time.Now())

		assert.Equal(t, 0, sweeper.sweepCount(tenant1))
		assert.Equal(t, 1, sweeper.sweepCount(tenant2))
	})

	t.Run("records last run time", func(t *testing.T) {
		sweeper := newFakeSweeper()
		s := NewOverdueSweepScheduler(DefaultOverdueSweepConfig(), sweeper, zap.NewNop())

		now := time.Now()
		s.runSweep(context.Background(), now)

		status := s.GetStatus()
		require.NotNil(t, status["last_run_at"])
		assert.Equal(t, now, *status["last_run_at"].(*time.Time))
	})
}

func TestOverdueSweepScheduler_StartStop(t *testing.T) {
	t.Run("start and stop are idempotent", func(t *testing.T) {
		sweeper := newFakeSweeper()
		s := NewOverdueSweepScheduler(DefaultOverdueSweepConfig(), sweeper, zap.NewNop())

		require.NoError(t, s.Start(context.Background()))
		require.NoError(t, s.Start(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, s.Stop(ctx))
		require.NoError(t, s.Stop(ctx))
	})
}

func TestOverdueSweepScheduler_TriggerManualRun(t *testing.T) {
	t.Run("rejects trigger when stopped", func(t *testing.T) {
		sweeper := newFakeSweeper()
		s := NewOverdueSweepScheduler(DefaultOverdueSweepConfig(), sweeper, zap.NewNop())

		err := s.TriggerManualRun()

		assert.Equal(t, ErrSchedulerNotRunning, err)
	})

	t.Run("runs sweep when started", func(t *testing.T) {
		tenantID := uuid.New()
		sweeper := newFakeSweeper(tenantID)
		s := NewOverdueSweepScheduler(DefaultOverdueSweepConfig(), sweeper, zap.NewNop())

		require.NoError(t, s.Start(context.Background()))
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = s.Stop(ctx)
		}()

		require.NoError(t, s.TriggerManualRun())

		assert.Eventually(t, func() bool {
			return sweeper.sweepCount(tenantID) == 1
		}, time.Second, 10*time.Millisecond)
	})
}
