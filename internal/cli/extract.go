package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chartfact/chartfact/internal/cache"
	"github.com/chartfact/chartfact/internal/loader"
	"github.com/chartfact/chartfact/internal/model"
	"github.com/chartfact/chartfact/internal/pipeline"
	"github.com/chartfact/chartfact/internal/store"
)

var (
	kind         string
	outJSON      string
	outCSVDir    string
	outMD        string
	workers      int
	chunkSize    int
	chunkOverlap int
	noCache      bool
	patient      string
	dbPath       string
	llmProvider  string
	llmModel     string
	llmBaseURL   string
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <file-or-dir> [more paths...]",
	Short: "Extract clinical facts from documents into a chronological report",
	Long: `Extract scans text documents (.txt, .md, .html) for clinical facts:
PSA values, Gleason scores, cancer stage, treatments, biopsy and
imaging results. Facts are dated, deduplicated, sorted oldest-first
(unknown dates first), and rendered as JSON, CSV, and Markdown.

Example:
  chartfact extract reports/ --json timeline.json --md timeline.md
  chartfact extract page1.txt page2.txt --kind psa
  chartfact extract reports/ --patient P0042 --db facts.db
  chartfact extract reports/ --llm-provider ollama --llm-base-url http://localhost:11434/v1`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&kind, "kind", "all", "fact kind to extract (psa, gleason, stage, treatment, biopsy, imaging, all)")
	extractCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path (empty to disable)")
	extractCmd.Flags().StringVar(&outCSVDir, "csv-dir", "", "directory for per-kind CSV exports (optional)")
	extractCmd.Flags().StringVar(&outMD, "md", "", "output Markdown timeline path (optional)")
	extractCmd.Flags().IntVar(&workers, "workers", 4, "fragment extraction workers")
	extractCmd.Flags().IntVar(&chunkSize, "chunk-size", 500, "fragment size in characters")
	extractCmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", 100, "characters shared between adjacent fragments")
	extractCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the document content cache")
	extractCmd.Flags().StringVar(&patient, "patient", "", "patient identifier for the report and fact store")
	extractCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database for fact persistence (optional)")

	extractCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM narrative provider (openai, ollama; empty disables)")
	extractCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
	extractCmd.Flags().StringVar(&llmBaseURL, "llm-base-url", "", "LLM endpoint base URL (for Ollama or compatible servers)")
}

// buildConfig assembles the effective config: defaults, then the config
// file and CHARTFACT_* environment variables (via viper), then any flag
// the user explicitly set on this command.
func buildConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := effectiveConfig()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("kind") {
		cfg.Extract.Kind = kind
	}
	if flags.Changed("workers") {
		cfg.Extract.Workers = workers
	}
	if flags.Changed("chunk-size") {
		cfg.Loader.ChunkSize = chunkSize
	}
	if flags.Changed("chunk-overlap") {
		cfg.Loader.ChunkOverlap = chunkOverlap
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("db") {
		cfg.Store.Path = dbPath
	}
	if flags.Changed("patient") {
		cfg.Store.Patient = patient
	}
	if flags.Changed("json") {
		cfg.Output.JSON = outJSON
	}
	if flags.Changed("csv-dir") {
		cfg.Output.CSVDir = outCSVDir
	}
	if flags.Changed("md") {
		cfg.Output.MD = outMD
	}
	if verbose {
		cfg.Output.Verbose = true
	}

	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if flags.Changed("llm-base-url") {
		cfg.LLM.BaseURL = llmBaseURL
	}
	if cfg.LLM.Provider == "openai" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}
	return cfg, nil
}

func newLoader(cfg *model.Config) *loader.Loader {
	var c cache.Cache
	if cfg.Cache.Enabled {
		c = cache.NewMemory(cfg.Cache.TTL, cfg.Cache.TTL)
	}
	return loader.New(cfg.Loader, c, cfg.Cache.TTL)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	ldr := newLoader(cfg)
	fragments, err := ldr.LoadPaths(args)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Loaded %d fragment(s)\n", len(fragments))
	}

	p := pipeline.NewPipeline(cfg)
	report, err := p.Extract(context.Background(), fragments, cfg.Extract.Kind)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Extracted %d fact(s)\n", report.FactCount())
	}

	if cfg.Store.Path != "" {
		if err := persistReport(cfg.Store.Path, report); err != nil {
			return err
		}
	}

	if err := p.RenderReport(report, cfg.Output); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

func persistReport(path string, report *model.Report) error {
	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	inserted, err := st.SaveReport(context.Background(), report)
	if err != nil {
		return fmt.Errorf("save facts: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Stored %d new fact(s) in %s\n", inserted, path)
	}
	return nil
}
