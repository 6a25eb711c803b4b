package model

import "time"

// Config is the complete chartfact configuration. Values flow from CLI
// flags, CHARTFACT_* environment variables, ~/.chartfact/config.yaml,
// and the defaults below, in that priority order.
type Config struct {
	Extract ExtractConfig `yaml:"extract" json:"extract"`
	Loader  LoaderConfig  `yaml:"loader" json:"loader"`
	Cache   CacheConfig   `yaml:"cache" json:"cache"`
	Store   StoreConfig   `yaml:"store" json:"store"`
	LLM     LLMConfig     `yaml:"llm" json:"llm"`
	Output  OutputConfig  `yaml:"output" json:"output"`
}

// ExtractConfig controls the extraction pipeline.
type ExtractConfig struct {
	Kind    string `yaml:"kind" json:"kind"`       // fact kind filter, "all" by default
	Workers int    `yaml:"workers" json:"workers"` // per-fragment extraction workers
}

// LoaderConfig controls document loading and chunking.
type LoaderConfig struct {
	ChunkSize    int      `yaml:"chunk_size" json:"chunk_size"`       // characters per fragment
	ChunkOverlap int      `yaml:"chunk_overlap" json:"chunk_overlap"` // characters shared between adjacent fragments
	Extensions   []string `yaml:"extensions" json:"extensions"`       // file extensions to load
}

// CacheConfig controls the loader's in-memory content cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
}

// StoreConfig controls optional SQLite persistence of extracted facts.
type StoreConfig struct {
	Path    string `yaml:"path" json:"path"`       // database file, empty disables persistence
	Patient string `yaml:"patient" json:"patient"` // patient identifier for stored facts
}

// LLMConfig controls the optional timeline summarizer.
type LLMConfig struct {
	Provider          string  `yaml:"provider" json:"provider"` // "openai", "ollama", "" (disabled)
	Model             string  `yaml:"model" json:"model"`
	APIKey            string  `yaml:"-" json:"-"` // from environment only, never persisted
	BaseURL           string  `yaml:"base_url" json:"base_url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" json:"timeout_seconds"`
	MaxTokens         int     `yaml:"max_tokens" json:"max_tokens"`
	RequestsPerMinute float64 `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	JSON    string `yaml:"json" json:"json"`       // JSON report path, "" disables
	CSVDir  string `yaml:"csv_dir" json:"csv_dir"` // directory for per-kind CSV files, "" disables
	MD      string `yaml:"md" json:"md"`           // Markdown timeline path, "" disables
	Verbose bool   `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Extract: ExtractConfig{
			Kind:    "all",
			Workers: 4,
		},
		Loader: LoaderConfig{
			ChunkSize:    500,
			ChunkOverlap: 100,
			Extensions:   []string{".txt", ".md", ".html"},
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     15 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:          "",
			Model:             "",
			TimeoutSeconds:    30,
			MaxTokens:         1000,
			RequestsPerMinute: 20,
		},
		Output: OutputConfig{
			JSON: "report.json",
		},
	}
}
