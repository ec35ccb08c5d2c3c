package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driving"
	"github.com/custodia-labs/sharewatch-cli/internal/logger"
)

// Scheduler runs scans on a fixed interval in the background, so a
// long-lived dashboard process keeps its data fresh without an
// external cron entry.
type Scheduler struct {
	scans    driving.ScanService
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler triggering a scan every interval.
func NewScheduler(scans driving.ScanService, interval time.Duration) *Scheduler {
	return &Scheduler{
		scans:    scans,
		interval: interval,
	}
}

// Start begins the scheduler loop. Blocks until Stop is called or the
// context is cancelled. The first scan fires after one full interval;
// an operator who wants data now runs the scan command directly.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.runScan(ctx)
		}
	}
}

// Stop gracefully shuts down the scheduler and waits for an in-flight
// scan to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// runScan executes one scheduled scan. Failures are logged, never
// fatal: the next tick tries again.
func (s *Scheduler) runScan(ctx context.Context) {
	s.wg.Add(1)
	defer s.wg.Done()

	logger.Info("Scheduled scan starting")
	result, err := s.scans.Scan(ctx, driving.ScanOptions{})
	switch {
	case errors.Is(err, domain.ErrScanInProgress):
		logger.Warn("Scheduled scan skipped: a scan is already running")
	case err != nil:
		logger.Error("Scheduled scan failed: %v", err)
	default:
		logger.Info("Scheduled scan %s completed (%s): %d grants, %d errors",
			result.RunID, result.ScanType, result.GrantsRecorded, result.ErrorCount)
	}
}
