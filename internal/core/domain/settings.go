package domain

import "time"

// GraphSettings configure the app-only provider connection.
type GraphSettings struct {
	TenantID     string
	ClientID     string
	ClientSecret string

	// TenantDomain is the default verified domain, used by reporting
	// to classify recipients without a provider round trip. The scan
	// resolves it live and ignores this value.
	TenantDomain string

	// Delay paces successive provider requests.
	Delay time.Duration
}

// ScanSettings control collection passes.
type ScanSettings struct {
	// FullScanInterval is how stale the last full scan may be before
	// delta mode is refused.
	FullScanInterval time.Duration

	// ScheduleInterval is how often the dashboard process triggers a
	// background scan.
	ScheduleInterval time.Duration

	// Accounts restricts the personal-drive pass. Empty means all
	// licensed accounts.
	Accounts []string

	// SkipSites disables the team-site pass.
	SkipSites bool
}

// ReportSettings control report generation.
type ReportSettings struct {
	OutputDir string
}

// DashboardSettings configure the self-service dashboard.
type DashboardSettings struct {
	// URL is the public dashboard address embedded in reports.
	URL string

	// ListenAddr is the serve bind address.
	ListenAddr string
}

// AppSettings aggregate all runtime configuration.
type AppSettings struct {
	Graph     GraphSettings
	Scan      ScanSettings
	Report    ReportSettings
	Dashboard DashboardSettings

	// DataDir overrides the store location. Empty means the default
	// under the user config directory.
	DataDir string

	// SensitiveKeywords override the built-in sensitive path and
	// filename matcher. Empty means the defaults.
	SensitiveKeywords []string
}

// DefaultAppSettings returns the built-in defaults.
func DefaultAppSettings() *AppSettings {
	return &AppSettings{
		Graph: GraphSettings{
			Delay: 100 * time.Millisecond,
		},
		Scan: ScanSettings{
			FullScanInterval: 7 * 24 * time.Hour,
			ScheduleInterval: 24 * time.Hour,
		},
		Report: ReportSettings{
			OutputDir: "./reports",
		},
		Dashboard: DashboardSettings{
			ListenAddr: ":8000",
		},
	}
}
