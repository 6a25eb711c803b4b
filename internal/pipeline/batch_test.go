package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/chartfact/chartfact/internal/loader"
	"github.com/chartfact/chartfact/internal/model"
)

func TestPipeline_ExtractFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "lab.txt")
	if err := os.WriteFile(good, []byte("PSA (H)6.04 ng/mL Collection Date: 11/03/2020"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	missing := filepath.Join(dir, "absent.txt")

	cfg := testConfig(1)
	ldr := loader.New(cfg.Loader, nil, 0)
	p := NewPipeline(cfg)

	results := p.ExtractFiles(context.Background(), []string{good, missing}, "all", ldr, 2)
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	// Results come back in input order regardless of completion order.
	if results[0].Path != good || results[1].Path != missing {
		t.Errorf("Expected input order preserved, got %q then %q", results[0].Path, results[1].Path)
	}

	if results[0].Error != nil {
		t.Fatalf("Expected the readable file to succeed, got %v", results[0].Error)
	}
	psa := results[0].Report.Facts[model.KindPSA]
	if len(psa) != 1 || psa[0].PSA.Value != 6.04 {
		t.Errorf("Expected one PSA fact of 6.04, got %+v", psa)
	}

	// A missing file fails its own result without aborting the batch.
	if results[1].Error == nil {
		t.Error("Expected an error for the missing file")
	}
	if results[1].Report != nil {
		t.Error("Expected no report for the failed file")
	}
}

func TestPipeline_ExtractFiles_Empty(t *testing.T) {
	cfg := testConfig(1)
	p := NewPipeline(cfg)
	ldr := loader.New(cfg.Loader, nil, 0)

	results := p.ExtractFiles(context.Background(), nil, "all", ldr, 4)
	if len(results) != 0 {
		t.Errorf("Expected no results for no paths, got %d", len(results))
	}
}
