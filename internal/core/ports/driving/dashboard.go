package driving

import (
	"context"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
)

// OwnerStats are aggregate exposure counts for one file owner.
type OwnerStats struct {
	Total  int
	High   int
	Medium int
	Low    int

	// RunID and ScanTime identify the completed run the counts
	// were computed from.
	RunID    string
	ScanTime string
}

// DashboardService serves per-owner views of the latest completed run.
type DashboardService interface {
	// OwnerExposures returns the deduplicated records for files in
	// sites owned by the principal, composite IDs included so the
	// dashboard can issue remediation requests.
	OwnerExposures(ctx context.Context, ownerEmail string) ([]domain.FileExposure, error)

	// OwnerStats returns aggregate counts for the principal.
	OwnerStats(ctx context.Context, ownerEmail string) (*OwnerStats, error)
}
