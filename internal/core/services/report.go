package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sharewatch-cli/internal/core/classify"
	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driving"
	"github.com/custodia-labs/sharewatch-cli/internal/logger"
)

// Ensure Reporter implements the interface.
var _ driving.ReportService = (*Reporter)(nil)

// Reporter renders the latest completed run as risk-ranked reports.
type Reporter struct {
	store        driven.GraphStore
	cls          *classify.Classifier
	writers      []driven.ReportWriter
	dashboardURL string
}

// NewReporter creates a reporter rendering through the given writers.
func NewReporter(
	store driven.GraphStore,
	cls *classify.Classifier,
	writers []driven.ReportWriter,
	dashboardURL string,
) *Reporter {
	return &Reporter{
		store:        store,
		cls:          cls,
		writers:      writers,
		dashboardURL: dashboardURL,
	}
}

// Generate deduplicates the latest completed run and renders every
// configured writer. Fails on the first writer error: partial report
// sets are worse than none, a missing file is obvious but a stale one
// is not.
func (r *Reporter) Generate(ctx context.Context) (*driving.ReportResult, error) {
	deduped, run, err := r.Exposures(ctx)
	if err != nil {
		return nil, err
	}

	meta := driven.ReportMeta{
		RunID:        run.ID,
		GeneratedAt:  time.Now().UTC(),
		DashboardURL: r.dashboardURL,
	}

	outputs := make(map[string]string, len(r.writers))
	for _, w := range r.writers {
		path, err := w.Write(deduped, meta)
		if err != nil {
			return nil, fmt.Errorf("write %s report: %w", w.Format(), err)
		}
		logger.Info("%s report: %s (%d records)", w.Format(), path, len(deduped))
		outputs[w.Format()] = path
	}

	result := &driving.ReportResult{
		RunID:   run.ID,
		Files:   len(deduped),
		Outputs: outputs,
	}
	for _, e := range deduped {
		switch e.RiskLevel {
		case domain.RiskHigh:
			result.HighCount++
		case domain.RiskMedium:
			result.MediumCount++
		default:
			result.LowCount++
		}
	}
	return result, nil
}

// Exposures returns the deduplicated records of the latest completed
// run without rendering them.
func (r *Reporter) Exposures(ctx context.Context) ([]domain.FileExposure, *domain.ScanRun, error) {
	run, err := r.store.LatestCompletedRun(ctx)
	if err != nil {
		return nil, nil, err
	}

	records, err := r.store.SharingRecords(ctx, run.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("read sharing records: %w", err)
	}
	logger.Info("Run %s: %d raw sharing records", run.ID, len(records))

	deduped := Deduplicate(records, r.cls, DedupOptions{TagTeams: true})
	logger.Info("Unique files after deduplication: %d", len(deduped))
	return deduped, run, nil
}
