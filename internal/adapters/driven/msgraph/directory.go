package msgraph

import (
	"context"
	"fmt"
	"net/url"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driven"
)

// Directory implements the directory service on the Graph API.
type Directory struct {
	client *Client
}

var _ driven.DirectoryService = (*Directory)(nil)

// NewDirectory wraps a Graph client as a directory service.
func NewDirectory(client *Client) *Directory {
	return &Directory{client: client}
}

type organization struct {
	VerifiedDomains []struct {
		Name      string `json:"name"`
		IsDefault bool   `json:"isDefault"`
	} `json:"verifiedDomains"`
}

// TenantDomain returns the tenant's default verified domain.
func (d *Directory) TenantDomain(ctx context.Context) (string, error) {
	raw, _, err := d.client.getPaged(ctx, d.client.BaseURL()+"/organization")
	if err != nil {
		return "", toDomain(err)
	}
	orgs, err := decodeItems[organization](raw)
	if err != nil {
		return "", err
	}
	for _, org := range orgs {
		for _, vd := range org.VerifiedDomains {
			if vd.IsDefault {
				return vd.Name, nil
			}
		}
	}
	return "", fmt.Errorf("no default verified domain: %w", domain.ErrNotFound)
}

// ListAccounts returns enabled, licensed user accounts.
func (d *Directory) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	query := url.Values{}
	query.Set("$filter", "accountEnabled eq true")
	query.Set("$select", "id,displayName,userPrincipalName,accountEnabled,assignedLicenses")
	query.Set("$top", "999")

	raw, _, err := d.client.getPaged(ctx, d.client.BaseURL()+"/users?"+query.Encode())
	if err != nil {
		return nil, toDomain(err)
	}
	accounts, err := decodeItems[domain.Account](raw)
	if err != nil {
		return nil, err
	}

	// The filter is advisory; guests and service accounts slip through
	// without a license and have no drive to scan.
	licensed := accounts[:0]
	for _, a := range accounts {
		if a.AccountEnabled && len(a.AssignedLicenses) > 0 {
			licensed = append(licensed, a)
		}
	}
	return licensed, nil
}

// GetAccountDrive returns an account's personal drive.
func (d *Directory) GetAccountDrive(ctx context.Context, accountID string) (*domain.Drive, error) {
	var drive domain.Drive
	err := d.client.getJSON(ctx, d.client.BaseURL()+"/users/"+url.PathEscape(accountID)+"/drive", &drive)
	if err != nil {
		// Unprovisioned drives surface as 404s but other tenants
		// return 400s for the same condition.
		return nil, fmt.Errorf("%w: %v", domain.ErrDriveUnavailable, err)
	}
	return &drive, nil
}

// ListSites enumerates every site in the tenant, personal sites
// included.
func (d *Directory) ListSites(ctx context.Context) ([]domain.SiteInfo, error) {
	raw, _, err := d.client.getPaged(ctx, d.client.BaseURL()+"/sites/getAllSites?$top=1000")
	if err != nil {
		return nil, toDomain(err)
	}
	return decodeItems[domain.SiteInfo](raw)
}

// ListSiteDrives returns a site's document libraries.
func (d *Directory) ListSiteDrives(ctx context.Context, siteID string) ([]domain.Drive, error) {
	raw, _, err := d.client.getPaged(ctx, d.client.BaseURL()+"/sites/"+url.PathEscape(siteID)+"/drives")
	if err != nil {
		return nil, toDomain(err)
	}
	return decodeItems[domain.Drive](raw)
}

// ListChildren returns the children of a drive item.
func (d *Directory) ListChildren(ctx context.Context, driveID, itemID string) ([]domain.DriveItem, error) {
	u := fmt.Sprintf("%s/drives/%s/items/%s/children", d.client.BaseURL(), url.PathEscape(driveID), url.PathEscape(itemID))
	raw, _, err := d.client.getPaged(ctx, u)
	if err != nil {
		return nil, toDomain(err)
	}
	return decodeItems[domain.DriveItem](raw)
}

// ListPermissions returns an item's permissions with inherited grants
// filtered out.
func (d *Directory) ListPermissions(ctx context.Context, driveID, itemID string) ([]domain.Permission, error) {
	u := fmt.Sprintf("%s/drives/%s/items/%s/permissions", d.client.BaseURL(), url.PathEscape(driveID), url.PathEscape(itemID))
	raw, _, err := d.client.getPaged(ctx, u)
	if err != nil {
		return nil, toDomain(err)
	}
	perms, err := decodeItems[domain.Permission](raw)
	if err != nil {
		return nil, err
	}
	direct := perms[:0]
	for _, p := range perms {
		if !p.Inherited() {
			direct = append(direct, p)
		}
	}
	return direct, nil
}

// Changes returns the items changed since the cursor plus the new
// cursor. The cursor is an opaque delta link URL; an empty cursor
// starts a fresh enumeration at the drive root.
func (d *Directory) Changes(ctx context.Context, driveID, cursor string) ([]domain.DriveItem, string, error) {
	u := cursor
	if u == "" {
		u = fmt.Sprintf("%s/drives/%s/root/delta", d.client.BaseURL(), url.PathEscape(driveID))
	}
	raw, deltaLink, err := d.client.getPaged(ctx, u)
	if err != nil {
		return nil, "", toDomain(err)
	}
	if deltaLink == "" {
		return nil, "", fmt.Errorf("delta feed for drive %s ended without a delta link", driveID)
	}
	items, err := decodeItems[domain.DriveItem](raw)
	if err != nil {
		return nil, "", err
	}
	return items, deltaLink, nil
}
