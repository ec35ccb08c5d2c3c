package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	serveAddr   string
	serveNoScan bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the self-service dashboard",
	Long: `Starts the dashboard API where file owners sign in with their
organization account, review their exposed files, and remove sharing.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from settings)")
	serveCmd.Flags().BoolVar(&serveNoScan, "no-scan", false, "disable scheduled background scans")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if dashboardServer == nil {
		return errors.New("dashboard not configured")
	}

	addr := serveAddr
	if addr == "" {
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		addr = settings.Dashboard.ListenAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if scanScheduler != nil && !serveNoScan {
		go func() {
			if err := scanScheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				cmd.PrintErrf("scheduler stopped: %v\n", err)
			}
		}()
		defer scanScheduler.Stop() //nolint:errcheck // Stop never fails.
	}

	cmd.Printf("Serving dashboard on %s. Press Ctrl+C to stop.\n", addr)
	if err := dashboardServer.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve failed: %w", err)
	}
	return nil
}
