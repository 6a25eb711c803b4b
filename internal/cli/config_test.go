package cli

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	bindConfig()
}

func readConfigYAML(t *testing.T, yaml string) {
	t.Helper()
	viper.SetConfigType("yaml")
	if err := viper.ReadConfig(strings.NewReader(yaml)); err != nil {
		t.Fatalf("read config: %v", err)
	}
}

func TestBuildConfig_FileValuesApplied(t *testing.T) {
	resetViper(t)
	readConfigYAML(t, `
extract:
  workers: 8
loader:
  chunk_size: 900
llm:
  provider: ollama
  base_url: http://localhost:11434/v1
`)

	cfg, err := buildConfig(extractCmd)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Extract.Workers != 8 {
		t.Errorf("Expected workers 8 from the config file, got %d", cfg.Extract.Workers)
	}
	if cfg.Loader.ChunkSize != 900 {
		t.Errorf("Expected chunk size 900 from the config file, got %d", cfg.Loader.ChunkSize)
	}
	if cfg.LLM.Provider != "ollama" || cfg.LLM.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("Expected LLM settings from the config file, got %+v", cfg.LLM)
	}
	// Keys the file does not mention keep their defaults.
	if cfg.Extract.Kind != "all" {
		t.Errorf("Expected default kind, got %q", cfg.Extract.Kind)
	}
	if cfg.Loader.ChunkOverlap != 100 {
		t.Errorf("Expected default chunk overlap, got %d", cfg.Loader.ChunkOverlap)
	}
}

func TestBuildConfig_FlagBeatsFile(t *testing.T) {
	resetViper(t)
	readConfigYAML(t, "extract:\n  workers: 8\n")

	flag := extractCmd.Flags().Lookup("workers")
	if err := extractCmd.Flags().Set("workers", "2"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	t.Cleanup(func() {
		flag.Changed = false
		workers = 4
	})

	cfg, err := buildConfig(extractCmd)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Extract.Workers != 2 {
		t.Errorf("Expected the explicit flag to beat the file, got %d", cfg.Extract.Workers)
	}
}

func TestBuildConfig_EnvBeatsFile(t *testing.T) {
	t.Setenv("CHARTFACT_EXTRACT_WORKERS", "6")
	resetViper(t)
	readConfigYAML(t, "extract:\n  workers: 8\n")

	cfg, err := buildConfig(extractCmd)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Extract.Workers != 6 {
		t.Errorf("Expected the environment to beat the file, got %d", cfg.Extract.Workers)
	}
}

func TestBuildConfig_DefaultsWithoutFileOrEnv(t *testing.T) {
	resetViper(t)

	cfg, err := buildConfig(extractCmd)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Extract.Workers != 4 || cfg.Loader.ChunkSize != 500 || cfg.Extract.Kind != "all" {
		t.Errorf("Expected built-in defaults, got %+v", cfg)
	}
}
