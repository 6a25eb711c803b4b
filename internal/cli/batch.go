package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chartfact/chartfact/internal/pipeline"
)

var (
	batchConcurrency int
	batchOutDir      string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Extract each document in a directory into its own report",
	Long: `Batch treats every supported file in the directory as an independent
document set (one report per file) and processes them concurrently.
Reports are written as <out-dir>/<file>.json.

Example:
  chartfact batch incoming-reports/ --out-dir reports/ --concurrency 8`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "documents processed in parallel")
	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "reports", "directory for per-document JSON reports")
	batchCmd.Flags().StringVar(&kind, "kind", "all", "fact kind to extract")
	batchCmd.Flags().IntVar(&chunkSize, "chunk-size", 500, "fragment size in characters")
	batchCmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", 100, "characters shared between adjacent fragments")
}

func runBatch(cmd *cobra.Command, args []string) error {
	dir := args[0]

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	ldr := newLoader(cfg)

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && ldr.Supported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no supported documents under %s", dir)
	}

	if err := os.MkdirAll(batchOutDir, 0755); err != nil {
		return fmt.Errorf("create out dir: %w", err)
	}

	p := pipeline.NewPipeline(cfg)
	renderer := pipeline.NewRenderer()
	results := p.ExtractFiles(context.Background(), paths, cfg.Extract.Kind, ldr, batchConcurrency)

	failed := 0
	for _, result := range results {
		if result.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}
		base := strings.TrimSuffix(filepath.Base(result.Path), filepath.Ext(result.Path))
		outPath := filepath.Join(batchOutDir, base+".json")
		if err := renderer.RenderJSON(result.Report, outPath); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: write report: %v\n", result.Path, err)
			continue
		}
		fmt.Printf("✓ %s: %d fact(s) → %s\n", result.Path, result.Report.FactCount(), outPath)
	}

	fmt.Printf("\nProcessed %d document(s), %d failed\n", len(results), failed)
	if failed > 0 {
		return fmt.Errorf("%d document(s) failed", failed)
	}
	return nil
}
