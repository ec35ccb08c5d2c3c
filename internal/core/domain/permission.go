package domain

// Provider wire shapes, modelled as tagged unions with explicit optional
// fields rather than open maps so the classifier can branch exhaustively.
// Field names and JSON tags follow the Microsoft Graph drive item and
// permission resources.

// Identity is a single named identity.
type Identity struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

// IdentitySet groups the possible identity kinds of a grantee.
// At most one of the fields is normally set.
type IdentitySet struct {
	User        *Identity `json:"user,omitempty"`
	Group       *Identity `json:"group,omitempty"`
	Application *Identity `json:"application,omitempty"`
}

// SharingLink describes a link-based permission. Present only on
// link grants; its Scope drives sharing-type classification.
type SharingLink struct {
	// Scope is "anonymous", "organization", or "users".
	Scope string `json:"scope,omitempty"`
	// Type is "view" or "edit"; used as a role fallback.
	Type   string `json:"type,omitempty"`
	WebURL string `json:"webUrl,omitempty"`
}

// ItemReference points at another drive item, used for permission
// inheritance and for delta parent paths.
type ItemReference struct {
	DriveID string `json:"driveId,omitempty"`
	ID      string `json:"id,omitempty"`
	// Path is the provider-relative form "/drive/root:/Folder/Sub".
	Path string `json:"path,omitempty"`
}

// Permission is one raw permission entry on a drive item.
// Link grants carry Link plus GrantedToIdentitiesV2; direct grants
// carry GrantedToV2 (or the legacy GrantedTo).
type Permission struct {
	ID    string   `json:"id,omitempty"`
	Roles []string `json:"roles,omitempty"`

	Link *SharingLink `json:"link,omitempty"`

	GrantedToV2           *IdentitySet  `json:"grantedToV2,omitempty"`
	GrantedTo             *IdentitySet  `json:"grantedTo,omitempty"`
	GrantedToIdentitiesV2 []IdentitySet `json:"grantedToIdentitiesV2,omitempty"`

	GrantedByV2 *IdentitySet `json:"grantedByV2,omitempty"`
	GrantedBy   *IdentitySet `json:"grantedBy,omitempty"`

	InheritedFrom *ItemReference `json:"inheritedFrom,omitempty"`

	CreatedDateTime string `json:"createdDateTime,omitempty"`
}

// Inherited reports whether the permission is inherited from an
// ancestor item. Inherited grants are not independently actionable
// and are filtered at the provider boundary.
func (p *Permission) Inherited() bool {
	return p.InheritedFrom != nil && (p.InheritedFrom.DriveID != "" || p.InheritedFrom.Path != "")
}

// FolderFacet marks an item as a folder.
type FolderFacet struct {
	ChildCount int `json:"childCount"`
}

// DeletedFacet marks a delta item as deleted.
type DeletedFacet struct {
	State string `json:"state,omitempty"`
}

// DriveItem is a file or folder as returned by child enumeration or
// the change feed. Delta responses additionally set ParentReference,
// Deleted, and the SharedChanged annotation.
type DriveItem struct {
	ID              string         `json:"id"`
	Name            string         `json:"name,omitempty"`
	WebURL          string         `json:"webUrl,omitempty"`
	Folder          *FolderFacet   `json:"folder,omitempty"`
	Deleted         *DeletedFacet  `json:"deleted,omitempty"`
	ParentReference *ItemReference `json:"parentReference,omitempty"`

	// SharedChanged is the provider's annotation that the item's
	// sharing state changed. Delta items without it are content-only
	// changes and need no permission fetch.
	SharedChanged bool `json:"@microsoft.graph.sharedChanged,omitempty"`
}

// IsFolder reports whether the item is a folder.
func (d *DriveItem) IsFolder() bool {
	return d.Folder != nil
}

// Type returns the persisted item type.
func (d *DriveItem) Type() ItemType {
	if d.IsFolder() {
		return ItemTypeFolder
	}
	return ItemTypeFile
}

// Drive is a storage root: a personal drive or one document library.
type Drive struct {
	ID     string       `json:"id"`
	Name   string       `json:"name,omitempty"`
	WebURL string       `json:"webUrl,omitempty"`
	Owner  *IdentitySet `json:"owner,omitempty"`
}

// SiteInfo is a team site as enumerated from the provider.
type SiteInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	WebURL      string `json:"webUrl,omitempty"`
}

// Account is a directory user account.
type Account struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName,omitempty"`
	UserPrincipalName string `json:"userPrincipalName,omitempty"`
	AccountEnabled    bool   `json:"accountEnabled,omitempty"`

	// AssignedLicenses is non-empty for licensed accounts. Unlicensed
	// accounts have no drive and are skipped during collection.
	AssignedLicenses []AssignedLicense `json:"assignedLicenses,omitempty"`
}

// AssignedLicense is one license SKU assignment.
type AssignedLicense struct {
	SKUID string `json:"skuId,omitempty"`
}
