package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
)

// Styles for command output. lipgloss downgrades the palette to the
// terminal's capabilities and strips it entirely on non-TTY output.
var (
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")) // Green
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")) // Yellow
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")) // Red
	styleAccent  = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")) // Cyan

	styleRiskHigh   = styleError.Bold(true)
	styleRiskMedium = styleWarning
	styleRiskLow    = styleSuccess
)

// riskStyle returns the style for a risk level.
func riskStyle(level domain.RiskLevel) lipgloss.Style {
	switch level {
	case domain.RiskHigh:
		return styleRiskHigh
	case domain.RiskMedium:
		return styleRiskMedium
	default:
		return styleRiskLow
	}
}
