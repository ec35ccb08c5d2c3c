package classify

import (
	"path"
	"strings"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
)

// guestMarker is the provider's convention for externally-invited
// guest accounts: the marker is embedded in the account's email.
const guestMarker = "#EXT#"

// Extensions of structured/document formats that typically hold
// sensitive data.
var sensitiveExtensions = map[string]bool{
	".xlsx": true, ".xls": true, ".csv": true, ".pdf": true,
	".docx": true, ".doc": true, ".pptx": true, ".ppt": true,
	".accdb": true, ".mdb": true,
}

// Extensions of media formats that rarely hold sensitive data.
var lowRiskExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".svg": true, ".ico": true,
	".mp4": true, ".mov": true, ".avi": true, ".mp3": true, ".wav": true,
}

// Audience describes who a grant reaches: a display label plus the
// audience classification.
type Audience struct {
	Label string
	Type  domain.AudienceType
}

// Classifier evaluates grants against a tenant domain and a
// sensitive-path matcher.
type Classifier struct {
	tenantDomain string
	sensitive    *Matcher
}

// New creates a classifier. A nil matcher disables path sensitivity.
func New(tenantDomain string, sensitive *Matcher) *Classifier {
	if sensitive == nil {
		sensitive = &Matcher{}
	}
	return &Classifier{tenantDomain: tenantDomain, sensitive: sensitive}
}

// SensitivePath reports whether the path matches the configured
// sensitive vocabulary.
func (c *Classifier) SensitivePath(p string) bool {
	return c.sensitive.SensitivePath(p)
}

// SharingTypeOf classifies a permission into one of the six sharing
// types. Link permissions branch on scope; unknown scopes fall back to
// Link-SpecificPeople since a link without a recognised scope still
// targets named recipients.
func SharingTypeOf(p *domain.Permission) domain.SharingType {
	if p.Link != nil {
		switch p.Link.Scope {
		case "anonymous":
			return domain.SharingLinkAnyone
		case "organization":
			return domain.SharingLinkOrganization
		default:
			return domain.SharingLinkSpecificPeople
		}
	}

	if p.GrantedToV2 != nil {
		if p.GrantedToV2.Group != nil {
			return domain.SharingGroup
		}
		if p.GrantedToV2.User != nil {
			return domain.SharingUser
		}
	}
	if p.GrantedTo != nil && p.GrantedTo.User != nil {
		return domain.SharingUser
	}

	return domain.SharingUnknown
}

// AudienceOf determines who the permission reaches.
//
// Anonymous and organization links classify on scope alone. Links to
// specific identities aggregate: any guest-marked email wins, then any
// email outside the tenant domain, else Internal. A recipient with no
// email but a display name never counts as External. Direct grants apply
// the same check to the single grantee; groups are always Internal.
func (c *Classifier) AudienceOf(p *domain.Permission) Audience {
	if p.Link != nil {
		switch p.Link.Scope {
		case "anonymous":
			return Audience{Label: "Anyone with the link", Type: domain.AudienceAnonymous}
		case "organization":
			return Audience{Label: "All organization members", Type: domain.AudienceInternal}
		}

		if len(p.GrantedToIdentitiesV2) > 0 {
			var names, emails []string
			for _, identity := range p.GrantedToIdentitiesV2 {
				if identity.User == nil {
					continue
				}
				switch {
				case identity.User.Email != "":
					names = append(names, identity.User.Email)
					emails = append(emails, identity.User.Email)
				case identity.User.DisplayName != "":
					names = append(names, identity.User.DisplayName)
				}
			}
			return Audience{
				Label: strings.Join(names, "; "),
				Type:  c.classifyEmails(emails),
			}
		}

		return Audience{Label: "Specific people (details unavailable)", Type: domain.AudienceInternal}
	}

	if p.GrantedToV2 != nil && p.GrantedToV2.Group != nil {
		label := p.GrantedToV2.Group.DisplayName
		if label == "" {
			label = "Unknown Group"
		}
		return Audience{Label: label, Type: domain.AudienceInternal}
	}

	var user *domain.Identity
	if p.GrantedToV2 != nil && p.GrantedToV2.User != nil {
		user = p.GrantedToV2.User
	} else if p.GrantedTo != nil && p.GrantedTo.User != nil {
		user = p.GrantedTo.User
	}
	if user != nil {
		label := user.Email
		if label == "" {
			label = user.DisplayName
			if label == "" {
				label = "Unknown User"
			}
		}
		return Audience{Label: label, Type: c.classifyEmail(user.Email)}
	}

	return Audience{Label: "", Type: domain.AudienceUnknown}
}

// classifyEmails aggregates a recipient email list: Guest beats
// External beats Internal.
func (c *Classifier) classifyEmails(emails []string) domain.AudienceType {
	hasExternal := false
	for _, email := range emails {
		if strings.Contains(email, guestMarker) {
			return domain.AudienceGuest
		}
		if c.tenantDomain != "" && !strings.HasSuffix(email, "@"+c.tenantDomain) {
			hasExternal = true
		}
	}
	if hasExternal {
		return domain.AudienceExternal
	}
	return domain.AudienceInternal
}

// classifyEmail classifies a single direct grantee. An empty email is
// Internal: identity-only grantees come from the directory.
func (c *Classifier) classifyEmail(email string) domain.AudienceType {
	if strings.Contains(email, guestMarker) {
		return domain.AudienceGuest
	}
	if email != "" && c.tenantDomain != "" && !strings.HasSuffix(email, "@"+c.tenantDomain) {
		return domain.AudienceExternal
	}
	return domain.AudienceInternal
}

// RiskLevelFor assigns the categorical severity. Path sensitivity is
// evaluated before the organization-link rule, so a sensitive path is
// HIGH even behind an organization-scoped link.
func (c *Classifier) RiskLevelFor(sharingType domain.SharingType, audience domain.AudienceType, itemPath string) domain.RiskLevel {
	switch audience {
	case domain.AudienceAnonymous, domain.AudienceExternal, domain.AudienceGuest:
		return domain.RiskHigh
	}
	if sharingType == domain.SharingLinkAnyone {
		return domain.RiskHigh
	}
	if c.SensitivePath(itemPath) {
		return domain.RiskHigh
	}
	if sharingType == domain.SharingLinkOrganization {
		return domain.RiskMedium
	}
	return domain.RiskLow
}

// RiskScore computes the 0-100 numeric severity as a sum of six
// independently-capped factors, clamped to 100. Additive capped terms
// rather than a weighted average: any single strong signal (a public
// link to a payroll folder) dominates, while scores still
// differentiate within a tier.
func (c *Classifier) RiskScore(
	audience domain.AudienceType,
	sharingType domain.SharingType,
	itemPath string,
	role string,
	itemType domain.ItemType,
	recipientCount int,
) int {
	score := 0

	// 1. Audience scope (max 30)
	switch {
	case audience == domain.AudienceAnonymous || sharingType == domain.SharingLinkAnyone:
		score += 30
	case audience == domain.AudienceExternal || audience == domain.AudienceGuest:
		score += 25
	case sharingType == domain.SharingLinkOrganization:
		score += 15
	default:
		score += 5
	}

	// 2. Recipient fan-out (max 15)
	switch {
	case recipientCount >= 20 || audience == domain.AudienceAnonymous:
		score += 15
	case recipientCount >= 6:
		score += 10
	case recipientCount >= 2:
		score += 5
	default:
		score += 2
	}

	// 3. Sensitive path (max 20)
	if c.SensitivePath(itemPath) {
		score += 20
	}

	// 4. File extension (max 15)
	ext := strings.ToLower(path.Ext(itemPath))
	switch {
	case sensitiveExtensions[ext]:
		score += 15
	case lowRiskExtensions[ext]:
		score += 3
	default:
		score += 8
	}

	// 5. Permission level (max 10)
	switch role {
	case domain.RoleWrite, domain.RoleOwner:
		score += 10
	case domain.RoleRead:
		score += 3
	default:
		score += 5
	}

	// 6. Asset type (max 10)
	if itemType == domain.ItemTypeFolder {
		score += 10
	} else {
		score += 3
	}

	if score > 100 {
		return 100
	}
	return score
}

// RoleOf derives the permission level from the explicit role list
// (owner > write > read) or, absent that, from the link type.
func RoleOf(p *domain.Permission) string {
	for _, role := range p.Roles {
		if role == "owner" {
			return domain.RoleOwner
		}
	}
	for _, role := range p.Roles {
		if role == "write" {
			return domain.RoleWrite
		}
	}
	for _, role := range p.Roles {
		if role == "read" {
			return domain.RoleRead
		}
	}
	if p.Link != nil {
		switch p.Link.Type {
		case "edit":
			return domain.RoleWrite
		case "view":
			return domain.RoleRead
		}
	}
	if len(p.Roles) > 0 {
		return strings.Join(p.Roles, ", ")
	}
	return domain.RoleUnknown
}

// GrantedByOf extracts who created the grant, preferring the current
// field over the legacy one. Returns an empty string when unreported.
func GrantedByOf(p *domain.Permission) string {
	granted := p.GrantedByV2
	if granted == nil {
		granted = p.GrantedBy
	}
	if granted == nil || granted.User == nil {
		return ""
	}
	return granted.User.Email
}
