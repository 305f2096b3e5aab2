package sla

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LocalFileGenerator is a stub FileGenerator writing JSON report snapshots
// to disk — enough to exercise the collaborator interface end to end.
// Other formats (pdf, csv) are an external collaborator's concern.
type LocalFileGenerator struct {
	Dir string
}

// Generate writes req.Report as an indented JSON file under g.Dir and
// returns its path.
func (g LocalFileGenerator) Generate(req ReportFileRequest) (string, error) {
	if req.Format != FormatJSON {
		return "", fmt.Errorf("local file generator only supports %q, got %q", FormatJSON, req.Format)
	}

	if err := os.MkdirAll(g.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	name := fmt.Sprintf("%s_%d.json", req.Report.SLATargetID, time.Now().UnixMilli())
	path := filepath.Join(g.Dir, name)

	data, err := json.MarshalIndent(req.Report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report file: %w", err)
	}
	return path, nil
}
