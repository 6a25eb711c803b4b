package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/time/rate"

	"github.com/chartfact/chartfact/internal/model"
)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	name      string
	available bool
	response  *SummarizeResponse
	err       error
}

func (m *MockProvider) Name() string { return m.name }

func (m *MockProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool { return m.available }

func testSummarizer(p Provider) *Summarizer {
	return &Summarizer{
		provider: p,
		limiter:  rate.NewLimiter(rate.Inf, 1),
	}
}

func timelineReport() *model.Report {
	return &model.Report{
		Sources:   []string{"lab.txt"},
		Fragments: 2,
		Facts: map[model.FactKind][]model.Fact{
			model.KindPSA: {{
				Kind:    model.KindPSA,
				Date:    model.Date{Year: 2020, Month: 11, Day: 3},
				RawDate: "11/03/2020",
				Source:  "lab.txt",
				PSA:     &model.PSAPayload{Value: 6.04, Unit: "ng/mL"},
			}},
		},
	}
}

func TestNewSummarizer_Disabled(t *testing.T) {
	s, err := NewSummarizer(Config{Provider: ""})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if s.IsEnabled() {
		t.Error("Expected summarizer to be disabled")
	}
	if s.ProviderName() != "" {
		t.Error("Expected empty provider name when disabled")
	}
}

func TestNewSummarizer_UnknownProvider(t *testing.T) {
	if _, err := NewSummarizer(Config{Provider: "bard"}); err == nil {
		t.Fatal("Expected error for unknown provider")
	}
}

func TestSummarizer_GenerateSummary_Disabled(t *testing.T) {
	s := &Summarizer{}

	summary, err := s.GenerateSummary(context.Background(), timelineReport())
	if err != nil {
		t.Errorf("Expected no error when disabled, got %v", err)
	}
	if summary != nil {
		t.Error("Expected nil summary when disabled")
	}
}

func TestSummarizer_GenerateSummary_ProviderUnavailable(t *testing.T) {
	s := testSummarizer(&MockProvider{name: "openai", available: false})

	summary, err := s.GenerateSummary(context.Background(), timelineReport())
	if err != nil {
		t.Fatalf("Expected degradation instead of error, got %v", err)
	}
	if summary == nil {
		t.Fatal("Expected a summary object carrying the warning")
	}
	if summary.Enabled {
		t.Error("Expected Enabled false for an unreachable provider")
	}
	if len(summary.Warnings) == 0 {
		t.Error("Expected a warning about the unreachable provider")
	}
}

func TestSummarizer_GenerateSummary_Success(t *testing.T) {
	s := testSummarizer(&MockProvider{
		name:      "openai",
		available: true,
		response: &SummarizeResponse{
			Summary: "The PSA was 6.04 ng/mL as reported on 2020-11-03.",
			Model:   "gpt-4o-mini",
		},
	})

	summary, err := s.GenerateSummary(context.Background(), timelineReport())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if summary == nil || !summary.Enabled {
		t.Fatal("Expected an enabled summary")
	}
	if summary.Provider != "openai" || summary.Model != "gpt-4o-mini" {
		t.Errorf("Expected provider metadata, got %+v", summary)
	}
	if !strings.Contains(summary.SummaryMD, "6.04") {
		t.Errorf("Expected narrative text, got %q", summary.SummaryMD)
	}
}

func TestSummarizer_GenerateSummary_ProviderError(t *testing.T) {
	provErr := errors.New("model overloaded")
	s := testSummarizer(&MockProvider{name: "openai", available: true, err: provErr})

	_, err := s.GenerateSummary(context.Background(), timelineReport())
	if err == nil {
		t.Fatal("Expected provider error to surface")
	}
	if !errors.Is(err, provErr) {
		t.Errorf("Expected wrapped provider error, got %v", err)
	}
}

func TestBuildPrompt_ListsFactsAndRules(t *testing.T) {
	prompt := BuildPrompt(timelineReport())

	if !strings.Contains(prompt, "PSA 6.04 ng/mL") {
		t.Errorf("Expected the fact line in the prompt, got %q", prompt)
	}
	if !strings.Contains(prompt, "2020-11-03") {
		t.Error("Expected the normalized date in the prompt")
	}
	if !strings.Contains(prompt, "Do not invent values") {
		t.Error("Expected the restate-only rule in the prompt")
	}
}

func TestBuildPrompt_CapsFactList(t *testing.T) {
	report := timelineReport()
	var many []model.Fact
	for i := 0; i < 80; i++ {
		many = append(many, model.Fact{
			Kind:   model.KindTreatment,
			Source: "notes.txt",
			Treatment: &model.TreatmentPayload{
				Name: "Radiation",
			},
		})
	}
	report.Facts[model.KindTreatment] = many

	prompt := BuildPrompt(report)
	if !strings.Contains(prompt, "more facts") {
		t.Error("Expected the prompt to truncate a long fact list")
	}
	if count := strings.Count(prompt, "\n- ["); count > 60 {
		t.Errorf("Expected at most 60 fact lines, got %d", count)
	}
}
