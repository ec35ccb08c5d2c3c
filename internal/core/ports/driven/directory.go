package driven

import (
	"context"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
)

// DirectoryService reads identity and permission data from the cloud
// provider. Implementations handle pagination, rate-limit backoff, and
// retries internally; errors that reach the caller are permanent for
// the requested item or fatal for the run.
type DirectoryService interface {
	// TenantDomain returns the tenant's default verified domain, used
	// to distinguish internal from external recipients.
	TenantDomain(ctx context.Context) (string, error)

	// ListAccounts returns enabled, licensed user accounts.
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// GetAccountDrive returns an account's personal drive.
	// Returns domain.ErrDriveUnavailable when none is provisioned.
	GetAccountDrive(ctx context.Context, accountID string) (*domain.Drive, error)

	// ListSites enumerates team sites, personal sites included;
	// callers filter.
	ListSites(ctx context.Context) ([]domain.SiteInfo, error)

	// ListSiteDrives returns a site's document libraries.
	ListSiteDrives(ctx context.Context, siteID string) ([]domain.Drive, error)

	// ListChildren returns the children of a drive item.
	// Item "root" addresses the drive root.
	ListChildren(ctx context.Context, driveID, itemID string) ([]domain.DriveItem, error)

	// ListPermissions returns an item's active permission set with
	// inherited grants already filtered out.
	ListPermissions(ctx context.Context, driveID, itemID string) ([]domain.Permission, error)

	// Changes returns the items changed since the cursor plus the new
	// cursor. An empty cursor starts a fresh enumeration: the provider
	// returns every item and issues an initial cursor.
	Changes(ctx context.Context, driveID, cursor string) ([]domain.DriveItem, string, error)
}
