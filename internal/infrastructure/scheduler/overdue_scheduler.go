// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
	ErrInvalidConfig       = errors.New("invalid scheduler configuration")
)

// OverdueSweeper moves invoices past their due date to overdue.
// It returns how many invoices were changed.
type OverdueSweeper interface {
	MarkOverdue(ctx context.Context, asOf time.Time, limit int) (int, error)
}

// OverdueSchedulerConfig holds configuration for the overdue scheduler
type OverdueSchedulerConfig struct {
	Enabled bool

	// Interval between sweeps
	Interval time.Duration

	// BatchSize caps how many invoices one sweep touches
	BatchSize int

	// JobTimeout bounds a single sweep
	JobTimeout time.Duration
}

// DefaultOverdueSchedulerConfig returns default configuration
func DefaultOverdueSchedulerConfig() OverdueSchedulerConfig {
	return OverdueSchedulerConfig{
		Enabled:    true,
		Interval:   time.Hour,
		BatchSize:  200,
		JobTimeout: 5 * time.Minute,
	}
}

// Validate checks the configuration
func (c OverdueSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidConfig)
	}
	return nil
}

// OverdueScheduler sweeps for overdue invoices on a fixed interval.
// The first sweep runs immediately on Start.
type OverdueScheduler struct {
	sweeper OverdueSweeper
	logger  *zap.Logger
	config  OverdueSchedulerConfig
	now     func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewOverdueScheduler creates a new overdue scheduler
func NewOverdueScheduler(sweeper OverdueSweeper, logger *zap.Logger, config OverdueSchedulerConfig) *OverdueScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 5 * time.Minute
	}
	return &OverdueScheduler{
		sweeper: sweeper,
		logger:  logger,
		config:  config,
		now:     time.Now,
	}
}

// Start launches the sweep loop
func (s *OverdueScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.config.Enabled {
		s.logger.Info("overdue scheduler is disabled")
		return nil
	}
	if err := s.config.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.isRunning = true

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("overdue scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("batch_size", s.config.BatchSize),
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight sweep
func (s *OverdueScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("overdue scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("overdue scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *OverdueScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep keeps marking batches until a short batch shows nothing is left
func (s *OverdueScheduler) sweep(ctx context.Context) {
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	asOf := s.now()
	started := time.Now()
	total := 0
	for {
		n, err := s.sweeper.MarkOverdue(jobCtx, asOf, s.config.BatchSize)
		total += n
		if err != nil {
			s.logger.Error("overdue sweep failed",
				zap.Int("marked", total),
				zap.Duration("duration", time.Since(started)),
				zap.Error(err),
			)
			return
		}
		if n < s.config.BatchSize || jobCtx.Err() != nil {
			break
		}
	}

	if total > 0 {
		s.logger.Info("overdue sweep completed",
			zap.Int("marked", total),
			zap.Duration("duration", time.Since(started)),
		)
	}
}

// TriggerNow runs one sweep in the background
func (s *OverdueScheduler) TriggerNow(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.sweep(ctx)
	}()
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *OverdueScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
