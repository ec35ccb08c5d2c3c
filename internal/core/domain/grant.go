package domain

// SharingType is the closed set of sharing mechanisms.
type SharingType string

const (
	// SharingLinkAnyone is a public link usable by anyone.
	SharingLinkAnyone SharingType = "Link-Anyone"
	// SharingLinkOrganization is a link usable by any tenant member.
	SharingLinkOrganization SharingType = "Link-Organization"
	// SharingLinkSpecificPeople is a link scoped to named recipients.
	SharingLinkSpecificPeople SharingType = "Link-SpecificPeople"
	// SharingGroup is a direct grant to a group.
	SharingGroup SharingType = "Group"
	// SharingUser is a direct grant to an individual.
	SharingUser SharingType = "User"
	// SharingUnknown is the fallback for unrecognised permission shapes.
	SharingUnknown SharingType = "Unknown"
)

// AudienceType classifies who can use a grant.
type AudienceType string

const (
	// AudienceAnonymous means anyone, no identity required.
	AudienceAnonymous AudienceType = "Anonymous"
	// AudienceInternal means tenant members only.
	AudienceInternal AudienceType = "Internal"
	// AudienceExternal means at least one recipient outside the tenant.
	AudienceExternal AudienceType = "External"
	// AudienceGuest means at least one externally-invited guest account.
	AudienceGuest AudienceType = "Guest"
	// AudienceUnknown is the fallback when no audience can be determined.
	AudienceUnknown AudienceType = "Unknown"
)

// RiskLevel is the categorical exposure severity.
type RiskLevel string

const (
	// RiskHigh marks externally reachable or sensitive exposure.
	RiskHigh RiskLevel = "HIGH"
	// RiskMedium marks organization-wide link exposure.
	RiskMedium RiskLevel = "MEDIUM"
	// RiskLow marks everything else.
	RiskLow RiskLevel = "LOW"
)

// Permission roles. RoleOf may also return a comma-joined list of raw
// provider roles when none of the well-known ones apply.
const (
	RoleOwner   = "Owner"
	RoleWrite   = "Write"
	RoleRead    = "Read"
	RoleUnknown = "Unknown"
)

// SharingGrant is one active permission grant as currently known,
// keyed by (DriveID, ItemID, PrincipalEmail). At most one grant per
// distinct principal per file is retained; a new observation
// overwrites all attributes.
type SharingGrant struct {
	// DriveID and ItemID identify the file.
	DriveID string
	ItemID  string

	// PrincipalEmail identifies the grantee (or placeholder).
	PrincipalEmail string

	// SharingType is the mechanism of the grant.
	SharingType SharingType

	// AudienceType classifies the grant's reach.
	AudienceType AudienceType

	// Role is the permission level.
	Role string

	// RiskLevel is the computed categorical severity.
	RiskLevel RiskLevel

	// CreatedDateTime is the provider's grant creation timestamp.
	// May be empty; the provider does not always report it.
	CreatedDateTime string

	// LastSeenRunID tracks the most recent run that reconfirmed the
	// grant. Grants not reconfirmed by the current run are stale but
	// are only removed via explicit deletion handling.
	LastSeenRunID string

	// GrantedBy is the email of the principal who created the grant,
	// when the provider reports it.
	GrantedBy string
}
