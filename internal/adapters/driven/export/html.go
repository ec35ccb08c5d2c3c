package export

import (
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driven"
)

//go:embed report.html.tmpl
var reportTemplate string

// HTMLWriter renders exposures as a styled, printable HTML report.
type HTMLWriter struct {
	outputDir string
	title     string
	tmpl      *template.Template
}

var _ driven.ReportWriter = (*HTMLWriter)(nil)

// NewHTMLWriter creates an HTML report writer targeting outputDir.
func NewHTMLWriter(outputDir string) *HTMLWriter {
	return &HTMLWriter{
		outputDir: outputDir,
		title:     "Sharing Audit Report",
		tmpl:      template.Must(template.New("report").Parse(reportTemplate)),
	}
}

// Format returns "html".
func (w *HTMLWriter) Format() string {
	return "html"
}

type reportData struct {
	Title        string
	GeneratedAt  string
	RunID        string
	DashboardURL string
	Records      []domain.FileExposure
	HighCount    int
	MediumCount  int
	LowCount     int
}

// Write renders the records to SharingAudit_<timestamp>.html and
// returns the output path.
func (w *HTMLWriter) Write(records []domain.FileExposure, meta driven.ReportMeta) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(w.outputDir, fmt.Sprintf("SharingAudit_%s.html", meta.GeneratedAt.UTC().Format("2006-01-02_150405")))

	data := reportData{
		Title:        w.title,
		GeneratedAt:  meta.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"),
		RunID:        meta.RunID,
		DashboardURL: meta.DashboardURL,
		Records:      records,
	}
	for _, r := range records {
		switch r.RiskLevel {
		case domain.RiskHigh:
			data.HighCount++
		case domain.RiskMedium:
			data.MediumCount++
		case domain.RiskLow:
			data.LowCount++
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	if err := w.tmpl.Execute(f, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return path, nil
}
