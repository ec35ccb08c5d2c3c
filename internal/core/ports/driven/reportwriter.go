package driven

import (
	"time"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
)

// ReportMeta carries run context into rendered reports.
type ReportMeta struct {
	// RunID is the scan run the report covers.
	RunID string
	// GeneratedAt is the report generation time.
	GeneratedAt time.Time
	// DashboardURL links readers to the self-service dashboard.
	// Optional.
	DashboardURL string
}

// ReportWriter renders deduplicated exposure records to a file.
// Writers receive records already risk-sorted and must not reorder
// or mutate them.
type ReportWriter interface {
	// Format returns a short format label ("csv", "html") for logging.
	Format() string

	// Write renders the records and returns the output path.
	Write(records []domain.FileExposure, meta ReportMeta) (string, error)
}
