package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/chartfact/chartfact/internal/model"
)

// Summarizer wraps a provider with rate limiting and the
// degrade-to-warning behavior the pipeline relies on.
type Summarizer struct {
	provider Provider
	limiter  *rate.Limiter
	config   Config
}

// NewSummarizer creates a summarizer for the configured provider. An
// empty provider name yields a disabled summarizer and no error.
func NewSummarizer(config Config) (*Summarizer, error) {
	s := &Summarizer{config: config}

	switch config.Provider {
	case "":
		return s, nil
	case "openai", "ollama":
		// Ollama exposes the same Chat Completions surface; it only
		// differs in BaseURL and not needing a key.
		provider, err := NewOpenAIProvider(config)
		if err != nil {
			return nil, err
		}
		s.provider = provider
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (want openai or ollama)", config.Provider)
	}

	rpm := config.RequestsPerMinute
	if rpm <= 0 {
		rpm = 20
	}
	s.limiter = rate.NewLimiter(rate.Limit(rpm/60), 1)
	return s, nil
}

// IsEnabled reports whether a provider is configured.
func (s *Summarizer) IsEnabled() bool {
	return s.provider != nil
}

// ProviderName returns the configured provider name, or "".
func (s *Summarizer) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary produces the narrative for a report. A disabled
// summarizer returns (nil, nil); an unreachable provider returns a
// summary object carrying a warning instead of an error, so callers
// can always attach whatever was produced.
func (s *Summarizer) GenerateSummary(ctx context.Context, report *model.Report) (*model.LLMSummary, error) {
	if s.provider == nil {
		return nil, nil
	}

	if !s.provider.IsAvailable(ctx) {
		return &model.LLMSummary{
			Enabled:  false,
			Provider: s.provider.Name(),
			Warnings: []string{fmt.Sprintf("provider %s not available; narrative skipped", s.provider.Name())},
		}, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:    report,
		Model:     s.config.Model,
		MaxTokens: s.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	return &model.LLMSummary{
		Enabled:   true,
		Provider:  s.provider.Name(),
		Model:     resp.Model,
		SummaryMD: resp.Summary,
	}, nil
}
