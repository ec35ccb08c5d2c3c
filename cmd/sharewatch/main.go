package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/sharewatch-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sharewatch-cli/internal/adapters/driven/entra"
	"github.com/custodia-labs/sharewatch-cli/internal/adapters/driven/export"
	"github.com/custodia-labs/sharewatch-cli/internal/adapters/driven/msgraph"
	"github.com/custodia-labs/sharewatch-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sharewatch-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/sharewatch-cli/internal/adapters/driving/web"
	"github.com/custodia-labs/sharewatch-cli/internal/cache"
	"github.com/custodia-labs/sharewatch-cli/internal/core/classify"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sharewatch-cli/internal/core/services"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	store, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	sensitive := classify.DefaultMatcher()
	if len(settings.SensitiveKeywords) > 0 {
		sensitive, err = classify.NewMatcher(settings.SensitiveKeywords)
		if err != nil {
			return fmt.Errorf("invalid sensitive keywords: %w", err)
		}
	}

	graphClient := msgraph.NewClient(msgraph.Config{
		TenantID:     settings.Graph.TenantID,
		ClientID:     settings.Graph.ClientID,
		ClientSecret: settings.Graph.ClientSecret,
		Delay:        settings.Graph.Delay,
	})
	directory := msgraph.NewDirectory(graphClient)

	scanService := services.NewScanOrchestrator(directory, store, sensitive, settings.Scan.FullScanInterval)

	// Reporting classifies with the configured tenant domain; the
	// scan resolves the live domain itself.
	cls := classify.New(settings.Graph.TenantDomain, sensitive)
	writers := []driven.ReportWriter{
		export.NewCSVWriter(settings.Report.OutputDir),
		export.NewHTMLWriter(settings.Report.OutputDir),
	}
	reportService := services.NewReporter(store, cls, writers, settings.Dashboard.URL)

	dashboard := services.NewDashboard(store, cls)
	remediation := services.NewRemediator(msgraph.NewRemover("", nil), store)
	verifier := entra.NewVerifier(settings.Graph.TenantID, settings.Graph.ClientID, "", nil,
		cache.NewTTL(entra.JWKSTTL))
	server := web.NewServer(dashboard, remediation, verifier)

	cli.SetVersion(version)
	cli.Configure(cli.Services{
		Scan:      scanService,
		Report:    reportService,
		Settings:  settingsService,
		Store:     store,
		Dashboard: server,
		Scheduler: services.NewScheduler(scanService, settings.Scan.ScheduleInterval),
	})
	return cli.Execute()
}
