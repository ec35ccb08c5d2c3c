// Package cli implements the sharewatch command-line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driving"
)

var version = "dev"

// DashboardRunner serves the dashboard until the context is
// cancelled.
type DashboardRunner interface {
	ListenAndServe(ctx context.Context, addr string) error
}

// ScanScheduler triggers background scans while the dashboard runs.
type ScanScheduler interface {
	Start(ctx context.Context) error
	Stop() error
}

// Services injected by main before Execute. Commands guard against
// nil services so the command tree stays testable in isolation.
var (
	scanService     driving.ScanService
	reportService   driving.ReportService
	settingsService driving.SettingsService
	graphStore      driven.GraphStore
	dashboardServer DashboardRunner
	scanScheduler   ScanScheduler
)

// Services bundles everything the command tree needs.
type Services struct {
	Scan      driving.ScanService
	Report    driving.ReportService
	Settings  driving.SettingsService
	Store     driven.GraphStore
	Dashboard DashboardRunner

	// Scheduler is optional. When set, serve runs background scans.
	Scheduler ScanScheduler
}

// Configure injects the service implementations.
func Configure(s Services) {
	scanService = s.Scan
	reportService = s.Report
	settingsService = s.Settings
	graphStore = s.Store
	dashboardServer = s.Dashboard
	scanScheduler = s.Scheduler
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "sharewatch",
	Short: "Audit file sharing exposure across OneDrive and SharePoint",
	Long: `sharewatch collects sharing permissions from every OneDrive and
SharePoint document library in the tenant, classifies each grant by
audience and risk, and produces risk-ranked reports plus a
self-service dashboard where owners fix their own exposure.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
