package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sharewatch-cli/internal/core/classify"
	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driving"
)

// Ensure Dashboard implements the interface.
var _ driving.DashboardService = (*Dashboard)(nil)

// Dashboard serves per-owner exposure views for the web UI.
type Dashboard struct {
	store driven.GraphStore
	cls   *classify.Classifier
}

// NewDashboard creates a dashboard service.
func NewDashboard(store driven.GraphStore, cls *classify.Classifier) *Dashboard {
	return &Dashboard{store: store, cls: cls}
}

// OwnerExposures returns the deduplicated records for files in sites
// owned by the principal. Composite identifiers are included so the
// caller can issue remediation requests.
func (d *Dashboard) OwnerExposures(ctx context.Context, ownerEmail string) ([]domain.FileExposure, error) {
	run, err := d.store.LatestCompletedRun(ctx)
	if err != nil {
		return nil, err
	}

	records, err := d.store.OwnerSharingRecords(ctx, ownerEmail, run.ID)
	if err != nil {
		return nil, fmt.Errorf("read owner records: %w", err)
	}

	return Deduplicate(records, d.cls, DedupOptions{IncludeIDs: true, TagTeams: true}), nil
}

// OwnerStats returns aggregate counts over the owner's deduplicated
// exposures.
func (d *Dashboard) OwnerStats(ctx context.Context, ownerEmail string) (*driving.OwnerStats, error) {
	run, err := d.store.LatestCompletedRun(ctx)
	if err != nil {
		return nil, err
	}

	records, err := d.store.OwnerSharingRecords(ctx, ownerEmail, run.ID)
	if err != nil {
		return nil, fmt.Errorf("read owner records: %w", err)
	}
	deduped := Deduplicate(records, d.cls, DedupOptions{IncludeIDs: true, TagTeams: true})

	stats := &driving.OwnerStats{
		Total:    len(deduped),
		RunID:    run.ID,
		ScanTime: run.StartedAt.Format(time.RFC3339),
	}
	for _, e := range deduped {
		switch e.RiskLevel {
		case domain.RiskHigh:
			stats.High++
		case domain.RiskMedium:
			stats.Medium++
		case domain.RiskLow:
			stats.Low++
		}
	}
	return stats, nil
}
