package domain

// Site source kinds. Teams is a display relabel applied during
// deduplication for OneDrive items under the Teams chat-files folder;
// it is never written to the store.
const (
	SourceOneDrive   = "OneDrive"
	SourceSharePoint = "SharePoint"
	SourceTeams      = "Teams"
)

// Site is a personal or team storage location grouping one or more drives.
// Sites are upserted whenever observed and never deleted.
type Site struct {
	// ID is the stable provider site identifier. Personal drives use a
	// synthetic "onedrive-<user-id>" identifier since the provider does
	// not expose OneDrive roots as sites.
	ID string

	// Name is the display name.
	Name string

	// WebURL is the browsable location.
	WebURL string

	// Source is SourceOneDrive or SourceSharePoint.
	Source string
}
