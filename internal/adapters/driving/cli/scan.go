package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driving"
)

var (
	scanFull      bool
	scanAccounts  []string
	scanSkipSites bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a sharing audit over the tenant",
	Long: `Collects sharing permissions from personal drives and team sites.
The scan runs in delta mode when possible, processing only items
changed since the previous run; otherwise a full walk is performed.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanFull, "full", false, "force a full scan")
	scanCmd.Flags().StringSliceVar(&scanAccounts, "user", nil, "audit only these user principal names")
	scanCmd.Flags().BoolVar(&scanSkipSites, "skip-sites", false, "skip the team-site pass")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	if scanService == nil {
		return errors.New("scan service not configured")
	}

	ctx := context.Background()
	opts := driving.ScanOptions{
		ForceFull: scanFull,
		Accounts:  scanAccounts,
		SkipSites: scanSkipSites,
	}

	cmd.Println("Starting scan...")
	result, err := scanWithProgress(ctx, cmd, opts)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	errorsLine := styleSuccess.Render(fmt.Sprintf("%d errors", result.ErrorCount))
	if result.ErrorCount > 0 {
		errorsLine = styleWarning.Render(fmt.Sprintf("%d errors", result.ErrorCount))
	}
	cmd.Printf("%s %s (%s): %d grants recorded, %s.\n",
		styleSuccess.Render("Scan completed:"),
		styleAccent.Render(result.RunID), result.ScanType, result.GrantsRecorded, errorsLine)
	return nil
}

// scanWithProgress runs the scan while printing progress updates.
func scanWithProgress(ctx context.Context, cmd *cobra.Command, opts driving.ScanOptions) (*driving.ScanResult, error) {
	type outcome struct {
		result *driving.ScanResult
		err    error
	}
	resCh := make(chan outcome, 1)
	go func() {
		result, err := scanService.Scan(ctx, opts)
		resCh <- outcome{result, err}
	}()

	// Poll status every 500ms
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case out := <-resCh:
			return out.result, out.err
		case <-ticker.C:
			// Best effort; a status error never aborts the scan.
			status, err := scanService.Status(ctx)
			if err == nil && status != nil && status.GrantsRecorded > lastCount {
				cmd.Printf("\rCollecting... %d grants", status.GrantsRecorded)
				lastCount = status.GrantsRecorded
			}
		}
	}
}
