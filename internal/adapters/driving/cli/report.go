package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate reports from the latest completed scan",
	Long: `Deduplicates the sharing records of the latest completed scan run
into one risk-scored row per file and renders every configured
report format.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	if reportService == nil {
		return errors.New("report service not configured")
	}

	result, err := reportService.Generate(context.Background())
	if errors.Is(err, domain.ErrNoCompletedRun) {
		return errors.New("no completed scan run found; run 'sharewatch scan' first")
	}
	if err != nil {
		return fmt.Errorf("report generation failed: %w", err)
	}

	cmd.Printf("Run %s: %d unique files (%s, %s, %s).\n",
		styleAccent.Render(result.RunID), result.Files,
		riskStyle(domain.RiskHigh).Render(fmt.Sprintf("%d high", result.HighCount)),
		riskStyle(domain.RiskMedium).Render(fmt.Sprintf("%d medium", result.MediumCount)),
		riskStyle(domain.RiskLow).Render(fmt.Sprintf("%d low", result.LowCount)))
	for format, path := range result.Outputs {
		cmd.Printf("  %s: %s\n", format, path)
	}
	return nil
}
