package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driven"
)

// csvHeader is the audit column order consumed by downstream
// spreadsheets. CreatedDateTime is per-grant and has no single value
// after consolidation; the column stays for compatibility.
var csvHeader = []string{
	"RiskLevel",
	"Source",
	"ItemPath",
	"ItemWebUrl",
	"SharingType",
	"SharedWith",
	"SharedWithType",
	"Role",
	"CreatedDateTime",
}

// CSVWriter renders exposures as a timestamped CSV file.
type CSVWriter struct {
	outputDir string
}

var _ driven.ReportWriter = (*CSVWriter)(nil)

// NewCSVWriter creates a CSV report writer targeting outputDir.
func NewCSVWriter(outputDir string) *CSVWriter {
	return &CSVWriter{outputDir: outputDir}
}

// Format returns "csv".
func (w *CSVWriter) Format() string {
	return "csv"
}

// Write renders the records to SharingAudit_<timestamp>.csv and
// returns the output path.
func (w *CSVWriter) Write(records []domain.FileExposure, meta driven.ReportMeta) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(w.outputDir, fmt.Sprintf("SharingAudit_%s.csv", meta.GeneratedAt.UTC().Format("2006-01-02_150405")))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			string(r.RiskLevel),
			r.Source,
			r.ItemPath,
			r.ItemWebURL,
			r.SharingTypes,
			r.SharedWith,
			r.AudienceTypes,
			r.Roles,
			"",
		}
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush report: %w", err)
	}
	return path, nil
}
