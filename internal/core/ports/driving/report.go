package driving

import (
	"context"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
)

// ReportResult lists the rendered outputs of one report generation.
type ReportResult struct {
	// RunID is the scan run the report covers.
	RunID string
	// Files is the deduplicated file count.
	Files int
	// HighCount, MediumCount and LowCount break Files down by risk
	// level.
	HighCount   int
	MediumCount int
	LowCount    int
	// Outputs maps writer format to output path.
	Outputs map[string]string
}

// ReportService turns the latest completed run into risk-ranked
// reports.
type ReportService interface {
	// Generate reads the latest completed run, deduplicates its
	// sharing records, and renders every configured writer. Returns
	// domain.ErrNoCompletedRun when no run has completed yet.
	Generate(ctx context.Context) (*ReportResult, error)

	// Exposures returns the deduplicated records of the latest
	// completed run without rendering them.
	Exposures(ctx context.Context) ([]domain.FileExposure, *domain.ScanRun, error)
}
