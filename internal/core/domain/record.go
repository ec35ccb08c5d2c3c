package domain

// SharingRecord is one raw sharing row read back from the store for a
// run: a grant joined with its file, principal, containing site, and
// (when known) the site owner. This is the deduplication input.
type SharingRecord struct {
	DriveID string
	ItemID  string

	RiskLevel RiskLevel

	// Source is the containing site's source kind.
	Source string

	ItemPath   string
	ItemWebURL string
	ItemType   ItemType

	SharingType SharingType

	// SharedWith is the grantee email (or placeholder).
	SharedWith     string
	SharedWithName string
	AudienceType   AudienceType

	Role            string
	CreatedDateTime string
	GrantedBy       string

	OwnerEmail string
	OwnerName  string
	SiteName   string
}

// FileExposure is one deduplicated, risk-scored row per file: the unit
// of reporting and of the dashboard list. Multi-valued fields are
// comma-joined for display.
type FileExposure struct {
	// ID is "driveID:itemID" when identifier output is requested
	// (dashboard mode); empty otherwise.
	ID      string
	DriveID string
	ItemID  string

	RiskScore int
	RiskLevel RiskLevel

	Source     string
	ItemType   ItemType
	ItemPath   string
	ItemWebURL string

	SharingTypes  string
	SharedWith    string
	AudienceTypes string
	Roles         string
}
