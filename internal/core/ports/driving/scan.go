package driving

import (
	"context"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
)

// ScanOptions control one audit run.
type ScanOptions struct {
	// ForceFull overrides mode selection and runs a full scan.
	ForceFull bool

	// Accounts restricts the personal-drive pass to these user
	// principal names. Empty means all licensed accounts.
	Accounts []string

	// SkipSites skips the team-site pass.
	SkipSites bool
}

// ScanResult summarises a finished run.
type ScanResult struct {
	RunID          string
	ScanType       domain.ScanType
	GrantsRecorded int
	ErrorCount     int
}

// ScanStatus reports progress of an in-flight run.
type ScanStatus struct {
	Running        bool
	RunID          string
	ScanType       domain.ScanType
	GrantsRecorded int
	ErrorCount     int
}

// ScanService runs audit passes over the tenant.
type ScanService interface {
	// Scan executes one run: selects full or delta mode, walks every
	// storage root, and marks the run completed or failed. Per-item
	// provider failures are absorbed and counted; fatal errors are
	// returned after the run is marked failed.
	Scan(ctx context.Context, opts ScanOptions) (*ScanResult, error)

	// Status returns progress of the current run, or an idle status.
	Status(ctx context.Context) (*ScanStatus, error)
}
