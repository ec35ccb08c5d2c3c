package domain

// Placeholder principal emails for grants that do not name an identity.
const (
	// PrincipalAnonymous stands in for "anyone with the link".
	PrincipalAnonymous = "anonymous"
	// PrincipalOrganization stands in for organization-wide links.
	PrincipalOrganization = "organization"
)

// Principal is an identity a file can be shared with, keyed by email.
// Non-identity grants use the placeholder emails above.
type Principal struct {
	// Email is the unique key. Last write wins on the other fields.
	Email string

	// DisplayName is the human-readable name.
	DisplayName string

	// Origin classifies where the principal comes from: "internal" for
	// tenant accounts, otherwise the audience type that introduced it
	// (External, Guest, Anonymous, ...).
	Origin string
}
