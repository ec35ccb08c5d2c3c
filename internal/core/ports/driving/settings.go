package driving

import "github.com/custodia-labs/sharewatch-cli/internal/core/domain"

// SettingsService manages persisted application settings.
type SettingsService interface {
	// Get returns current settings with defaults and environment
	// overrides applied.
	Get() (*domain.AppSettings, error)

	// Save persists settings. Empty secrets are left untouched so a
	// partial save never blanks a stored credential.
	Save(settings *domain.AppSettings) error

	// SetSecret stores the client secret without touching other
	// settings.
	SetSecret(secret string) error
}
