package driven

import (
	"context"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
)

// PermissionRemover mutates sharing state upstream on behalf of a
// dashboard user. Calls carry the user's delegated access token; the
// adapter retries transient failures (throttling, 5xx) internally.
type PermissionRemover interface {
	// ListItemPermissions returns an item's full permission set,
	// inherited grants included; the remediation service decides
	// removability.
	ListItemPermissions(ctx context.Context, accessToken, driveID, itemID string) ([]domain.Permission, error)

	// DeletePermission removes a single permission from an item.
	DeletePermission(ctx context.Context, accessToken, driveID, itemID, permissionID string) error
}
