package sla

import (
	"encoding/json"
	"os"
	"testing"
	"time"
)

func TestLocalFileGenerator_WritesJSONReport(t *testing.T) {
	dir := t.TempDir()
	gen := LocalFileGenerator{Dir: dir}

	report := Report{SLATargetID: "sla-1", WindowStart: time.Now(), Summary: "test"}
	path, err := gen.Generate(ReportFileRequest{Report: report, Format: FormatJSON})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading generated file: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decoding generated file: %v", err)
	}
	if decoded.SLATargetID != "sla-1" {
		t.Fatalf("expected roundtripped SLATargetID, got %s", decoded.SLATargetID)
	}
}

func TestLocalFileGenerator_RejectsUnsupportedFormat(t *testing.T) {
	gen := LocalFileGenerator{Dir: t.TempDir()}
	if _, err := gen.Generate(ReportFileRequest{Format: FormatPDF}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
