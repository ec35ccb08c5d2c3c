package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage application settings",
	Long: `View and configure tenant credentials, scan behaviour, and
dashboard options. Settings live in ~/.sharewatch/config.toml and can
be overridden per run with SHAREWATCH_* environment variables.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runConfigShow,
}

var configSetSecretCmd = &cobra.Command{
	Use:   "set-secret",
	Short: "Store the app registration client secret",
	Long:  `Prompts for the client secret without echoing it and stores it in the config file.`,
	RunE:  runConfigSetSecret,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetSecretCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Graph]")
	cmd.Printf("  Tenant ID: %s\n", orUnset(settings.Graph.TenantID))
	cmd.Printf("  Client ID: %s\n", orUnset(settings.Graph.ClientID))
	if settings.Graph.ClientSecret != "" {
		cmd.Printf("  Client Secret: %s\n", maskSecret(settings.Graph.ClientSecret))
	} else {
		cmd.Printf("  Client Secret: (not set)\n")
	}
	cmd.Printf("  Request Delay: %s\n", settings.Graph.Delay)
	cmd.Println()

	cmd.Println("[Scan]")
	cmd.Printf("  Full Scan Interval: %dd\n", int(settings.Scan.FullScanInterval/(24*time.Hour)))
	cmd.Printf("  Schedule Interval: %dh\n", int(settings.Scan.ScheduleInterval/time.Hour))
	if len(settings.Scan.Accounts) > 0 {
		cmd.Printf("  Accounts: %s\n", strings.Join(settings.Scan.Accounts, ", "))
	} else {
		cmd.Printf("  Accounts: (all licensed)\n")
	}
	cmd.Printf("  Skip Sites: %t\n", settings.Scan.SkipSites)
	cmd.Println()

	cmd.Println("[Report]")
	cmd.Printf("  Output Dir: %s\n", settings.Report.OutputDir)
	cmd.Println()

	cmd.Println("[Dashboard]")
	cmd.Printf("  URL: %s\n", orUnset(settings.Dashboard.URL))
	cmd.Printf("  Listen Addr: %s\n", settings.Dashboard.ListenAddr)

	return nil
}

func runConfigSetSecret(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Print("Client secret: ")
	secret := readPassword()
	cmd.Println()

	if err := settingsService.SetSecret(secret); err != nil {
		return fmt.Errorf("failed to store secret: %w", err)
	}
	cmd.Println("Client secret stored.")
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Read without echo when attached to a terminal
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskSecret(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func orUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}
