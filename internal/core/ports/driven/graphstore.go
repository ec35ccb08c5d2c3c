package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
)

// GraphStore persists the sharing graph. Every mutation is an
// idempotent merge keyed by a stable identifier, so repeated or
// retried application converges to the same state.
type GraphStore interface {
	// CreateRun records a new scan run with status running.
	CreateRun(ctx context.Context, run domain.ScanRun) error

	// CompleteRun transitions a run to completed.
	CompleteRun(ctx context.Context, runID string) error

	// FailRun transitions a run to failed.
	FailRun(ctx context.Context, runID string) error

	// ListRuns returns all runs, newest first.
	ListRuns(ctx context.Context) ([]domain.ScanRun, error)

	// LatestCompletedRun returns the most recent completed run.
	// Returns domain.ErrNoCompletedRun when none exists.
	LatestCompletedRun(ctx context.Context) (*domain.ScanRun, error)

	// LatestFullScanTime returns the start time of the most recent
	// completed full scan. Returns domain.ErrNotFound when none exists.
	LatestFullScanTime(ctx context.Context) (time.Time, error)

	// MergePrincipal upserts a principal keyed by email.
	// Last write wins on display name and origin.
	MergePrincipal(ctx context.Context, p domain.Principal) error

	// MergeSite upserts a site keyed by id.
	MergeSite(ctx context.Context, s domain.Site) error

	// MergeFile upserts a file keyed by (drive id, item id); path, URL
	// and type are overwritten with the latest observation.
	MergeFile(ctx context.Context, f domain.File) error

	// MergeGrant upserts a sharing grant keyed by
	// (drive id, item id, principal email). A new observation
	// overwrites all attributes including the last-seen run.
	MergeGrant(ctx context.Context, g domain.SharingGrant) error

	// MergeContains links a site to a file it contains.
	MergeContains(ctx context.Context, siteID, driveID, itemID string) error

	// MergeOwns links an owning principal to a site.
	MergeOwns(ctx context.Context, ownerEmail, siteID string) error

	// MarkFileFound links a file to the run that observed it.
	MarkFileFound(ctx context.Context, driveID, itemID, runID string) error

	// RemoveFileGrants deletes every grant on a file and tombstones the
	// file with the run that observed the deletion. The file row itself
	// is retained for audit history.
	RemoveFileGrants(ctx context.Context, driveID, itemID, runID string) error

	// PurgeGrants deletes every grant on a file without tombstoning.
	// Used after verified remediation: the file still exists upstream.
	PurgeGrants(ctx context.Context, driveID, itemID string) error

	// SaveDeltaCursor stores or overwrites a drive's change-feed cursor.
	SaveDeltaCursor(ctx context.Context, c domain.DeltaCursor) error

	// GetDeltaCursor returns the cursor for a drive.
	// Returns domain.ErrNotFound when no cursor is stored.
	GetDeltaCursor(ctx context.Context, driveID string) (*domain.DeltaCursor, error)

	// HasDeltaCursors reports whether any drive has a stored cursor.
	// Absence forces a full scan.
	HasDeltaCursors(ctx context.Context) (bool, error)

	// SharingRecords returns every grant last confirmed by the run,
	// joined with file, principal, site, and optional owner.
	SharingRecords(ctx context.Context, runID string) ([]domain.SharingRecord, error)

	// OwnerSharingRecords is SharingRecords restricted to files in
	// sites owned by the given principal.
	OwnerSharingRecords(ctx context.Context, ownerEmail, runID string) ([]domain.SharingRecord, error)

	// Close releases the underlying connection.
	Close() error
}
