package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSchedulerNotRunning is returned when a trigger is requested on a stopped scheduler
var ErrSchedulerNotRunning = errors.New("scheduler is not running")

// OverdueSweeper marks unpaid billing records past their due date as overdue.
// Implemented by the billing application service.
type OverdueSweeper interface {
	RunOverdueSweep(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (int, error)
	ListSweepTenants(ctx context.Context) ([]uuid.UUID, error)
}

// OverdueSweepConfig holds configuration for the overdue sweep scheduler
type OverdueSweepConfig struct {
	// Enabled indicates if the sweep scheduler is enabled
	Enabled bool
	// SweepHour is the hour (0-23) at which the daily sweep runs
	SweepHour int
	// CheckInterval is how often the scheduler checks whether the sweep is due
	CheckInterval time.Duration
	// SweepTimeout is the maximum time a single sweep run can take
	SweepTimeout time.Duration
}

// DefaultOverdueSweepConfig returns the default sweep configuration.
// The sweep runs daily at 3 AM.
func DefaultOverdueSweepConfig() OverdueSweepConfig {
	return OverdueSweepConfig{
		Enabled:       true,
		SweepHour:     3,
		CheckInterval: 10 * time.Minute,
		SweepTimeout:  5 * time.Minute,
	}
}

// OverdueSweepScheduler runs the daily overdue sweep across all hotel properties.
// It ticks at CheckInterval and fires once per day once SweepHour has passed.
type OverdueSweepScheduler struct {
	config  OverdueSweepConfig
	sweeper OverdueSweeper
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastRunAt   *time.Time
	lastSweptAt *time.Time // day boundary of the last completed sweep
}

// NewOverdueSweepScheduler creates a new overdue sweep scheduler
func NewOverdueSweepScheduler(config OverdueSweepConfig, sweeper OverdueSweeper, logger *zap.Logger) *OverdueSweepScheduler {
	if config.CheckInterval <= 0 {
		config.CheckInterval = 10 * time.Minute
	}
	if config.SweepTimeout <= 0 {
		config.SweepTimeout = 5 * time.Minute
	}
	return &OverdueSweepScheduler{
		config:  config,
		sweeper: sweeper,
		logger:  logger,
	}
}

// Start starts the sweep loop
func (s *OverdueSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.sweepLoop(ctx)

	s.logger.Info("Overdue sweep scheduler started",
		zap.Int("sweep_hour", s.config.SweepHour),
		zap.Duration("check_interval", s.config.CheckInterval),
	)

	return nil
}

// Stop stops the sweep loop and waits for an in-flight sweep to finish
func (s *OverdueSweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Overdue sweep scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Overdue sweep scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *OverdueSweepScheduler) sweepLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if s.shouldRun(now) {
				s.runSweep(ctx, now)
			}
		}
	}
}

// shouldRun reports whether the daily sweep is due. The sweep fires on the
// first tick at or after SweepHour that has not already swept today, so a
// missed tick (restart, clock skew) is caught by the next one.
func (s *OverdueSweepScheduler) shouldRun(now time.Time) bool {
	if now.Hour() < s.config.SweepHour {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSweptAt == nil {
		return true
	}
	y1, m1, d1 := s.lastSweptAt.Date()
	y2, m2, d2 := now.Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}

// runSweep marks overdue records for every property that has billing activity.
// A failure on one property does not stop the others.
func (s *OverdueSweepScheduler) runSweep(ctx context.Context, now time.Time) {
	s.mu.Lock()
	s.lastRunAt = &now
	s.lastSweptAt = &now
	s.mu.Unlock()

	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	tenantIDs, err := s.sweeper.ListSweepTenants(sweepCtx)
	if err != nil {
		s.logger.Error("Failed to list properties for overdue sweep", zap.Error(err))
		return
	}

	totalMarked := 0
	for _, tenantID := range tenantIDs {
		marked, err := s.sweeper.RunOverdueSweep(sweepCtx, tenantID, now)
		if err != nil {
			s.logger.Error("Overdue sweep failed for property",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}
		totalMarked += marked
	}

	s.logger.Info("Overdue sweep completed",
		zap.Int("property_count", len(tenantIDs)),
		zap.Int("records_marked", totalMarked),
	)
}

// TriggerManualRun runs the sweep immediately, outside the daily schedule.
// Uses a background context so an HTTP caller disconnecting does not abort it.
func (s *OverdueSweepScheduler) TriggerManualRun() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	go s.runSweep(context.Background(), time.Now())
	return nil
}

// GetStatus returns the current status of the sweep scheduler
func (s *OverdueSweepScheduler) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]any{
		"enabled":        s.config.Enabled,
		"is_running":     s.isRunning,
		"sweep_hour":     s.config.SweepHour,
		"check_interval": s.config.CheckInterval.String(),
		"last_run_at":    s.lastRunAt,
	}
}
