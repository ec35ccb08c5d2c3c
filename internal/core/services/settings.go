package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driving"
)

var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyTenantID     = "graph.tenant_id"
	keyClientID     = "graph.client_id"
	keyClientSecret = "graph.client_secret"
	keyTenantDomain = "graph.tenant_domain"
	keyDelayMS      = "graph.delay_ms"

	keyFullScanDays  = "scan.full_scan_interval_days"
	keyScheduleHours = "scan.schedule_interval_hours"
	keyScanAccounts  = "scan.accounts"
	keySkipSites     = "scan.skip_sites"

	keyReportOutputDir = "report.output_dir"

	keyDashboardURL  = "dashboard.url"
	keyListenAddr    = "dashboard.listen_addr"
	keyDataDir       = "storage.data_dir"
	keySensitiveList = "classify.sensitive_keywords"
)

// Environment overrides take precedence over the stored file so
// scheduled and containerized runs need no config file at all.
const (
	envTenantID     = "SHAREWATCH_TENANT_ID"
	envClientID     = "SHAREWATCH_CLIENT_ID"
	envClientSecret = "SHAREWATCH_CLIENT_SECRET"
	envTenantDomain = "SHAREWATCH_TENANT_DOMAIN"
	envDelayMS      = "SHAREWATCH_DELAY_MS"
	envScheduleHrs  = "SHAREWATCH_SCHEDULE_HOURS"
	envAccounts     = "SHAREWATCH_USERS_TO_AUDIT"
	envSkipSites    = "SHAREWATCH_SKIP_SHAREPOINT"
	envOutputDir    = "SHAREWATCH_REPORT_OUTPUT_DIR"
	envDashboardURL = "SHAREWATCH_DASHBOARD_URL"
	envListenAddr   = "SHAREWATCH_LISTEN_ADDR"
	envDataDir      = "SHAREWATCH_DATA_DIR"
)

// SettingsService manages application settings on a config store.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get returns current settings: defaults, overlaid with the stored
// file, overlaid with environment variables.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Graph: domain.GraphSettings{
			TenantID:     s.getString(keyTenantID, envTenantID, defaults.Graph.TenantID),
			ClientID:     s.getString(keyClientID, envClientID, defaults.Graph.ClientID),
			ClientSecret: s.getString(keyClientSecret, envClientSecret, defaults.Graph.ClientSecret),
			TenantDomain: s.getString(keyTenantDomain, envTenantDomain, defaults.Graph.TenantDomain),
			Delay:        s.getDuration(keyDelayMS, envDelayMS, time.Millisecond, defaults.Graph.Delay),
		},
		Scan: domain.ScanSettings{
			FullScanInterval: s.getDuration(keyFullScanDays, "", 24*time.Hour, defaults.Scan.FullScanInterval),
			ScheduleInterval: s.getDuration(keyScheduleHours, envScheduleHrs, time.Hour, defaults.Scan.ScheduleInterval),
			Accounts:         s.getStringSlice(keyScanAccounts, envAccounts),
			SkipSites:        s.getBool(keySkipSites, envSkipSites),
		},
		Report: domain.ReportSettings{
			OutputDir: s.getString(keyReportOutputDir, envOutputDir, defaults.Report.OutputDir),
		},
		Dashboard: domain.DashboardSettings{
			URL:        s.getString(keyDashboardURL, envDashboardURL, defaults.Dashboard.URL),
			ListenAddr: s.getString(keyListenAddr, envListenAddr, defaults.Dashboard.ListenAddr),
		},
		DataDir:           s.getString(keyDataDir, envDataDir, defaults.DataDir),
		SensitiveKeywords: s.getStringSlice(keySensitiveList, ""),
	}

	return settings, nil
}

// Save persists settings. An empty client secret is skipped so that
// saving other settings never blanks a stored credential.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := s.configStore.Set(keyTenantID, settings.Graph.TenantID); err != nil {
		return fmt.Errorf("save tenant id: %w", err)
	}
	if err := s.configStore.Set(keyClientID, settings.Graph.ClientID); err != nil {
		return fmt.Errorf("save client id: %w", err)
	}
	if settings.Graph.ClientSecret != "" {
		if err := s.configStore.Set(keyClientSecret, settings.Graph.ClientSecret); err != nil {
			return fmt.Errorf("save client secret: %w", err)
		}
	}
	if err := s.configStore.Set(keyTenantDomain, settings.Graph.TenantDomain); err != nil {
		return fmt.Errorf("save tenant domain: %w", err)
	}
	if err := s.configStore.Set(keyDelayMS, int(settings.Graph.Delay/time.Millisecond)); err != nil {
		return fmt.Errorf("save delay: %w", err)
	}
	if err := s.configStore.Set(keyFullScanDays, int(settings.Scan.FullScanInterval/(24*time.Hour))); err != nil {
		return fmt.Errorf("save full scan interval: %w", err)
	}
	if err := s.configStore.Set(keyScheduleHours, int(settings.Scan.ScheduleInterval/time.Hour)); err != nil {
		return fmt.Errorf("save schedule interval: %w", err)
	}
	if err := s.configStore.Set(keyScanAccounts, settings.Scan.Accounts); err != nil {
		return fmt.Errorf("save accounts: %w", err)
	}
	if err := s.configStore.Set(keySkipSites, settings.Scan.SkipSites); err != nil {
		return fmt.Errorf("save skip sites: %w", err)
	}
	if err := s.configStore.Set(keyReportOutputDir, settings.Report.OutputDir); err != nil {
		return fmt.Errorf("save output dir: %w", err)
	}
	if err := s.configStore.Set(keyDashboardURL, settings.Dashboard.URL); err != nil {
		return fmt.Errorf("save dashboard url: %w", err)
	}
	if err := s.configStore.Set(keyListenAddr, settings.Dashboard.ListenAddr); err != nil {
		return fmt.Errorf("save listen addr: %w", err)
	}
	if err := s.configStore.Set(keyDataDir, settings.DataDir); err != nil {
		return fmt.Errorf("save data dir: %w", err)
	}
	if err := s.configStore.Set(keySensitiveList, settings.SensitiveKeywords); err != nil {
		return fmt.Errorf("save sensitive keywords: %w", err)
	}
	return nil
}

// SetSecret stores the client secret without touching other settings.
func (s *SettingsService) SetSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("client secret must not be empty")
	}
	if err := s.configStore.Set(keyClientSecret, secret); err != nil {
		return fmt.Errorf("save client secret: %w", err)
	}
	return nil
}

func (s *SettingsService) getString(key, envKey, fallback string) string {
	if envKey != "" {
		if v := os.Getenv(envKey); v != "" {
			return v
		}
	}
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return fallback
}

func (s *SettingsService) getBool(key, envKey string) bool {
	if envKey != "" {
		switch strings.ToLower(os.Getenv(envKey)) {
		case "1", "true", "yes":
			return true
		}
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getStringSlice(key, envKey string) []string {
	if envKey != "" {
		if raw := os.Getenv(envKey); raw != "" {
			var out []string
			for _, part := range strings.Split(raw, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
			return out
		}
	}
	return s.configStore.GetStringSlice(key)
}

func (s *SettingsService) getDuration(key, envKey string, unit, fallback time.Duration) time.Duration {
	if envKey != "" {
		if raw := os.Getenv(envKey); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				return time.Duration(n) * unit
			}
		}
	}
	if n := s.configStore.GetInt(key); n > 0 {
		return time.Duration(n) * unit
	}
	return fallback
}
