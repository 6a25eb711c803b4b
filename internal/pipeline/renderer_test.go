package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chartfact/chartfact/internal/model"
)

func renderedReport(t *testing.T) *model.Report {
	t.Helper()
	p := NewPipeline(testConfig(1))
	report, err := p.Extract(context.Background(), scenarioFragments(), "all")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	report.Patient = "P0042"
	return report
}

func TestRenderer_JSONRoundTrip(t *testing.T) {
	report := renderedReport(t)
	path := filepath.Join(t.TempDir(), "report.json")

	if err := NewRenderer().RenderJSON(report, path); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var decoded model.Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if decoded.Patient != "P0042" {
		t.Errorf("Expected patient preserved, got %q", decoded.Patient)
	}
	if decoded.FactCount() != report.FactCount() {
		t.Errorf("Expected %d facts after round trip, got %d", report.FactCount(), decoded.FactCount())
	}
}

func TestRenderer_CSVPerKind(t *testing.T) {
	report := renderedReport(t)
	dir := t.TempDir()

	files, err := NewRenderer().RenderCSV(report, dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(files) == 0 {
		t.Fatal("Expected at least one CSV file")
	}

	var psaPath string
	for _, f := range files {
		if strings.HasSuffix(f, "P0042_psa.csv") {
			psaPath = f
		}
	}
	if psaPath == "" {
		t.Fatalf("Expected a patient-prefixed PSA file, got %v", files)
	}

	f, err := os.Open(psaPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Expected parseable CSV, got %v", err)
	}
	if len(rows) != len(report.Facts[model.KindPSA])+1 {
		t.Errorf("Expected header plus %d rows, got %d", len(report.Facts[model.KindPSA]), len(rows))
	}
	if rows[0][0] != "value" || rows[0][2] != "date" {
		t.Errorf("Unexpected header %v", rows[0])
	}
}

func TestRenderer_Markdown(t *testing.T) {
	report := renderedReport(t)
	path := filepath.Join(t.TempDir(), "timeline.md")

	if err := NewRenderer().RenderMarkdown(report, path); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	md := string(data)

	if !strings.Contains(md, "# Extraction Timeline: P0042") {
		t.Error("Expected the patient in the title")
	}
	if !strings.Contains(md, "| Date | Finding | Source |") {
		t.Error("Expected a timeline table")
	}
	if !strings.Contains(md, "Latest PSA:") {
		t.Error("Expected the latest PSA callout")
	}
	if !strings.Contains(md, "2020-11-03") {
		t.Error("Expected the normalized date in the table")
	}
}
