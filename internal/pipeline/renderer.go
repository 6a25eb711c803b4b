package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chartfact/chartfact/internal/model"
)

// Renderer writes extraction reports as JSON, per-kind CSV files, a
// Markdown timeline, and a human-readable stdout summary.
type Renderer struct{}

// NewRenderer creates a renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderReport writes every output enabled in the config.
func (p *Pipeline) RenderReport(report *model.Report, out model.OutputConfig) error {
	r := NewRenderer()

	if out.JSON != "" {
		if err := r.RenderJSON(report, out.JSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if out.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", out.JSON)
		}
	}
	if out.CSVDir != "" {
		files, err := r.RenderCSV(report, out.CSVDir)
		if err != nil {
			return fmt.Errorf("render CSV: %w", err)
		}
		if out.Verbose {
			for _, f := range files {
				fmt.Fprintf(os.Stderr, "✓ Wrote CSV: %s\n", f)
			}
		}
	}
	if out.MD != "" {
		if err := r.RenderMarkdown(report, out.MD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if out.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", out.MD)
		}
	}

	r.RenderSummary(report)
	return nil
}

// RenderJSON writes the full report as indented JSON.
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// RenderCSV writes one CSV file per non-empty fact kind into dir and
// returns the paths written.
func (r *Renderer) RenderCSV(report *model.Report, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	prefix := report.Patient
	if prefix == "" {
		prefix = "report"
	}

	var written []string
	for _, kind := range model.AllKinds() {
		facts := report.Facts[kind]
		if len(facts) == 0 {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", prefix, kind))
		if err := writeKindCSV(path, kind, facts); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeKindCSV(path string, kind model.FactKind, facts []model.Fact) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader(kind)); err != nil {
		return err
	}
	for _, fact := range facts {
		if err := w.Write(csvRow(kind, fact)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func csvHeader(kind model.FactKind) []string {
	common := []string{"date", "raw_date", "source", "context"}
	switch kind {
	case model.KindPSA:
		return append([]string{"value", "unit"}, common...)
	case model.KindGleason:
		return append([]string{"primary_grade", "secondary_grade", "total_score"}, common...)
	case model.KindStage:
		return append([]string{"stage"}, common...)
	case model.KindTreatment:
		return append([]string{"treatment"}, common...)
	case model.KindBiopsy:
		return append([]string{"result"}, common...)
	case model.KindImaging:
		return append([]string{"type", "result"}, common...)
	}
	return common
}

func csvRow(kind model.FactKind, fact model.Fact) []string {
	common := []string{fact.Date.String(), fact.RawDate, fact.Source, fact.Context}
	switch kind {
	case model.KindPSA:
		return append([]string{
			strconv.FormatFloat(fact.PSA.Value, 'f', -1, 64), fact.PSA.Unit,
		}, common...)
	case model.KindGleason:
		return append([]string{
			strconv.Itoa(fact.Gleason.Primary),
			strconv.Itoa(fact.Gleason.Secondary),
			strconv.Itoa(fact.Gleason.Total),
		}, common...)
	case model.KindStage:
		return append([]string{fact.Stage.Label}, common...)
	case model.KindTreatment:
		return append([]string{fact.Treatment.Name}, common...)
	case model.KindBiopsy:
		return append([]string{fact.Biopsy.Finding}, common...)
	case model.KindImaging:
		return append([]string{fact.Imaging.Modality, fact.Imaging.Finding}, common...)
	}
	return common
}

// RenderMarkdown writes the chronological timeline as Markdown tables.
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var b strings.Builder

	title := "Extraction Timeline"
	if report.Patient != "" {
		title += ": " + report.Patient
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Extracted %s from %d fragment(s) across %d document(s).\n\n",
		report.ExtractedAt.Format("2006-01-02 15:04 MST"), report.Fragments, len(report.Sources))

	if report.LatestPSA != nil {
		fmt.Fprintf(&b, "**Latest PSA:** %g %s", report.LatestPSA.Value, report.LatestPSA.Unit)
		if report.LatestPSAFallback {
			b.WriteString(" _(no dated values; highest value shown)_")
		}
		b.WriteString("\n\n")
	}

	for _, kind := range model.AllKinds() {
		facts := report.Facts[kind]
		if len(facts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", strings.ToUpper(string(kind)[:1])+string(kind)[1:])
		b.WriteString("| Date | Finding | Source |\n|---|---|---|\n")
		for _, fact := range facts {
			fmt.Fprintf(&b, "| %s | %s | %s |\n",
				fact.Date, escapePipes(fact.Summary()), escapePipes(fact.Source))
		}
		b.WriteString("\n")
	}

	if report.LLM != nil && report.LLM.SummaryMD != "" {
		b.WriteString("## Narrative (LLM-generated, not extraction output)\n\n")
		b.WriteString(report.LLM.SummaryMD)
		b.WriteString("\n")
	}

	return os.WriteFile(path, []byte(b.String()), 0644)
}

// RenderSummary prints a short per-kind summary to stdout.
func (r *Renderer) RenderSummary(report *model.Report) {
	fmt.Println("─────────────────────────────────────────────")
	if report.Patient != "" {
		fmt.Printf("Patient: %s\n", report.Patient)
	}
	fmt.Printf("Documents: %d   Fragments: %d   Facts: %d\n",
		len(report.Sources), report.Fragments, report.FactCount())

	for _, kind := range model.AllKinds() {
		facts, ok := report.Facts[kind]
		if !ok {
			continue
		}
		fmt.Printf("  %-10s %d\n", kind, len(facts))
	}
	if report.LatestPSA != nil {
		suffix := ""
		if report.LatestPSAFallback {
			suffix = " (no dated values; highest value shown)"
		}
		fmt.Printf("Latest PSA: %g %s%s\n", report.LatestPSA.Value, report.LatestPSA.Unit, suffix)
	}
	fmt.Println("─────────────────────────────────────────────")
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
