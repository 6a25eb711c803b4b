// Package llm generates an optional narrative summary of an extraction
// timeline. The narrative is produced after extraction completes and
// never feeds back into it; a summarization failure degrades to a
// warning, not an extraction error.
package llm

import (
	"context"
	"fmt"

	"github.com/chartfact/chartfact/internal/model"
)

// Provider is an LLM backend capable of summarizing a report.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Summarize generates a timeline narrative for the report.
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks the provider is configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest is the input for narrative generation.
type SummarizeRequest struct {
	Report    *model.Report
	Prompt    string // optional custom prompt; default built from the report
	Model     string
	MaxTokens int
}

// SummarizeResponse is the generated narrative.
type SummarizeResponse struct {
	Summary    string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration.
type Config struct {
	Provider          string // "openai", "ollama", "" (disabled)
	Model             string
	APIKey            string
	BaseURL           string
	TimeoutSeconds    int
	MaxTokens         int
	RequestsPerMinute float64
}

// ConfigFromModel converts the application config section.
func ConfigFromModel(cfg model.LLMConfig) Config {
	return Config{
		Provider:          cfg.Provider,
		Model:             cfg.Model,
		APIKey:            cfg.APIKey,
		BaseURL:           cfg.BaseURL,
		TimeoutSeconds:    cfg.TimeoutSeconds,
		MaxTokens:         cfg.MaxTokens,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}
}

// BuildPrompt constructs the default summarization prompt. The model
// is constrained to the extracted facts: it may restate them but must
// not infer diagnoses or introduce values that are not listed.
func BuildPrompt(report *model.Report) string {
	var b []byte
	b = fmt.Appendf(b, `You are summarizing a chronological list of clinical facts extracted from a patient's scanned documents.

RULES:
1. Only restate facts from the list below. Do not invent values, dates, or findings.
2. Do not diagnose, prognose, or recommend treatment.
3. Facts with date "unknown" have no recoverable date; say so rather than guessing.
4. Dates may rest on an ambiguous day/month reading; phrase dates as reported, not as verified.

Extracted facts (oldest first; %d fragments from %d documents):
`, report.Fragments, len(report.Sources))

	count := 0
	for _, kind := range model.AllKinds() {
		for _, fact := range report.Facts[kind] {
			if count >= 60 { // Keep the prompt bounded for long histories.
				b = fmt.Appendf(b, "... and %d more facts\n", report.FactCount()-count)
				return string(b) + footer
			}
			b = fmt.Appendf(b, "- [%s] %s (source: %s)\n", fact.Date, fact.Summary(), fact.Source)
			count++
		}
	}
	return string(b) + footer
}

const footer = "\nWrite a 4-6 sentence chronological narrative of this history, in plain language, flagging unknown or ambiguous dates explicitly."
