package driven

// ConfigStore provides access to persisted application configuration.
// Implementations handle storage (e.g. TOML files) and type
// conversion; keys use dot notation ("graph.tenant_id").
type ConfigStore interface {
	// Get retrieves a value by key, reporting whether it exists.
	Get(key string) (any, bool)

	// GetString returns a string value, or "" when absent or not a
	// string.
	GetString(key string) string

	// GetInt returns an integer value, or 0 when absent or not an
	// integer.
	GetInt(key string) int

	// GetBool returns a boolean value, or false when absent or not a
	// boolean.
	GetBool(key string) bool

	// GetStringSlice returns a string slice value, or nil when absent
	// or not a slice.
	GetStringSlice(key string) []string

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Load re-reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
