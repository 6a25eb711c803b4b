package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chartfact/chartfact/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "chartfact",
	Short: "chartfact - clinical fact extraction from scanned medical documents",
	Long: `chartfact scans noisy, OCR/PDF-derived medical text and extracts
structured clinical facts: PSA lab values, Gleason scores, cancer
stage, treatments, biopsy results, and imaging results.

Each fact gets a best-effort normalized date, duplicates are collapsed,
and the result is a stable chronological timeline per fact kind.

Dates parsed from ambiguous numeric notations (11/03/2020) rest on a
documented day/month heuristic; the raw date text is always kept
alongside the normalized date so interpretations can be re-checked.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("chartfact v0.2.1")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.chartfact/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	bindConfig()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.chartfact")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// bindConfig registers every config key with its built-in default and
// binds CHARTFACT_* environment variables (dots become underscores, so
// extract.workers reads CHARTFACT_EXTRACT_WORKERS). Registering the
// defaults is what lets env-only values reach Unmarshal.
func bindConfig() {
	viper.SetEnvPrefix("CHARTFACT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	d := model.DefaultConfig()
	viper.SetDefault("extract.kind", d.Extract.Kind)
	viper.SetDefault("extract.workers", d.Extract.Workers)
	viper.SetDefault("loader.chunk_size", d.Loader.ChunkSize)
	viper.SetDefault("loader.chunk_overlap", d.Loader.ChunkOverlap)
	viper.SetDefault("loader.extensions", d.Loader.Extensions)
	viper.SetDefault("cache.enabled", d.Cache.Enabled)
	viper.SetDefault("cache.ttl", d.Cache.TTL)
	viper.SetDefault("store.path", d.Store.Path)
	viper.SetDefault("store.patient", d.Store.Patient)
	viper.SetDefault("llm.provider", d.LLM.Provider)
	viper.SetDefault("llm.model", d.LLM.Model)
	viper.SetDefault("llm.base_url", d.LLM.BaseURL)
	viper.SetDefault("llm.timeout_seconds", d.LLM.TimeoutSeconds)
	viper.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	viper.SetDefault("llm.requests_per_minute", d.LLM.RequestsPerMinute)
	viper.SetDefault("output.json", d.Output.JSON)
	viper.SetDefault("output.csv_dir", d.Output.CSVDir)
	viper.SetDefault("output.md", d.Output.MD)
	viper.SetDefault("output.verbose", d.Output.Verbose)
}

// effectiveConfig resolves defaults, the config file, and CHARTFACT_*
// environment variables into one Config. Flag overrides are applied on
// top by buildConfig.
func effectiveConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	}); err != nil {
		return nil, fmt.Errorf("resolve config: %w", err)
	}
	return cfg, nil
}
