package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/chartfact/chartfact/internal/loader"
	"github.com/chartfact/chartfact/internal/pipeline"
)

var watchOutDir string

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a directory and re-extract documents as they change",
	Long: `Watch monitors a directory with fsnotify and re-runs extraction for
every supported file that is created or modified, writing the report to
<out-dir>/<file>.json. Stop with Ctrl-C.

Example:
  chartfact watch scans/ --out-dir reports/`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchOutDir, "out-dir", "reports", "directory for per-document JSON reports")
	watchCmd.Flags().StringVar(&kind, "kind", "all", "fact kind to extract")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	ldr := newLoader(cfg)
	p := pipeline.NewPipeline(cfg)
	renderer := pipeline.NewRenderer()

	if err := os.MkdirAll(watchOutDir, 0755); err != nil {
		return fmt.Errorf("create out dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	fmt.Fprintf(os.Stderr, "Watching %s (Ctrl-C to stop)\n", dir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Editors and scanners fire several events per save; coalesce
	// bursts per path before extracting.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "Stopping")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 || !ldr.Supported(event.Name) {
				continue
			}
			pending[event.Name] = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)

		case <-ticker.C:
			for path, seen := range pending {
				if time.Since(seen) < 400*time.Millisecond {
					continue
				}
				delete(pending, path)
				extractOne(ctx, p, renderer, ldr, path, cfg.Extract.Kind)
			}
		}
	}
}

func extractOne(ctx context.Context, p *pipeline.Pipeline, renderer *pipeline.Renderer, ldr *loader.Loader, path, kind string) {
	fragments, err := ldr.LoadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %s: %v\n", path, err)
		return
	}

	report, err := p.Extract(ctx, fragments, kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %s: %v\n", path, err)
		return
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(watchOutDir, base+".json")
	if err := renderer.RenderJSON(report, outPath); err != nil {
		fmt.Fprintf(os.Stderr, "✗ %s: write report: %v\n", path, err)
		return
	}
	fmt.Printf("✓ %s: %d fact(s) → %s\n", path, report.FactCount(), outPath)
}
