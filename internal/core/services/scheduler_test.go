package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driving"
)

// tickingScanService counts scans.
type tickingScanService struct {
	scans atomic.Int32
	err   error
}

func (t *tickingScanService) Scan(_ context.Context, _ driving.ScanOptions) (*driving.ScanResult, error) {
	t.scans.Add(1)
	if t.err != nil {
		return nil, t.err
	}
	return &driving.ScanResult{RunID: "run-1", ScanType: domain.ScanTypeDelta}, nil
}

func (t *tickingScanService) Status(_ context.Context) (*driving.ScanStatus, error) {
	return &driving.ScanStatus{}, nil
}

func TestSchedulerRunsScansOnInterval(t *testing.T) {
	svc := &tickingScanService{}
	sched := NewScheduler(svc, 20*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- sched.Start(context.Background()) }()

	assert.Eventually(t, func() bool {
		return svc.scans.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	assert.NoError(t, sched.Stop())
	assert.NoError(t, <-done)
}

func TestSchedulerAbsorbsScanFailures(t *testing.T) {
	svc := &tickingScanService{err: domain.ErrScanInProgress}
	sched := NewScheduler(svc, 20*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- sched.Start(context.Background()) }()

	assert.Eventually(t, func() bool {
		return svc.scans.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	assert.NoError(t, sched.Stop())
	assert.NoError(t, <-done)
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	sched := NewScheduler(&tickingScanService{}, time.Hour)
	assert.NoError(t, sched.Stop())
}

func TestSchedulerContextCancellation(t *testing.T) {
	sched := NewScheduler(&tickingScanService{}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Start(ctx) }()

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
