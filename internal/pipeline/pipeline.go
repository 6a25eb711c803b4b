// Package pipeline orchestrates the extraction stages: fragments are
// mapped through the value extractor (in parallel), then the merged
// candidate list is sanitized, deduplicated, and chronologically
// assembled in a single sequential pass so output order is stable.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chartfact/chartfact/internal/extract"
	"github.com/chartfact/chartfact/internal/llm"
	"github.com/chartfact/chartfact/internal/model"
	"github.com/chartfact/chartfact/internal/sanitize"
	"github.com/chartfact/chartfact/internal/timeline"
	"github.com/chartfact/chartfact/internal/worker"
)

// Pipeline runs complete extractions. It is stateless across calls:
// the extractor and sanitizer carry only read-only rule tables.
type Pipeline struct {
	extractor  *extract.Extractor
	sanitizer  *sanitize.Sanitizer
	summarizer *llm.Summarizer // nil when disabled
	workers    int
	patient    string
	verbose    bool
}

// NewPipeline creates a pipeline from configuration.
func NewPipeline(cfg *model.Config) *Pipeline {
	var summarizer *llm.Summarizer
	if cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: LLM provider unavailable: %v\n", err)
		} else {
			summarizer = s
		}
	}

	return &Pipeline{
		extractor:  extract.NewExtractor(),
		sanitizer:  sanitize.NewSanitizer(),
		summarizer: summarizer,
		workers:    cfg.Extract.Workers,
		patient:    cfg.Store.Patient,
		verbose:    cfg.Output.Verbose,
	}
}

// fragmentJob extracts one fragment on the worker pool.
type fragmentJob struct {
	index     int
	fragment  model.Fragment
	kinds     []model.FactKind
	extractor *extract.Extractor
}

type fragmentResult struct {
	index int
	facts []model.Fact
}

func (r *fragmentResult) Index() int { return r.index }
func (r *fragmentResult) Err() error { return nil }

func (j *fragmentJob) Execute(ctx context.Context) worker.Result {
	if ctx.Err() != nil {
		return &fragmentResult{index: j.index}
	}
	return &fragmentResult{
		index: j.index,
		facts: j.extractor.ExtractFragment(j.fragment, j.kinds),
	}
}

// Extract runs the full pipeline over a batch of fragments with a kind
// filter ("psa", "gleason", ..., or "all"). An invalid kind is the only
// error; empty input yields an empty report.
func (p *Pipeline) Extract(ctx context.Context, fragments []model.Fragment, kindFilter string) (*model.Report, error) {
	kinds, err := model.ResolveKinds(kindFilter)
	if err != nil {
		return nil, err
	}

	// Parallel map over fragments. Results are re-indexed to fragment
	// input order before the merge so dedup and the stable sort see
	// candidates exactly as a serial run would.
	perFragment := p.mapFragments(fragments, kinds)

	byKind := make(map[model.FactKind][]model.Fact, len(kinds))
	for _, kind := range kinds {
		byKind[kind] = []model.Fact{}
	}
	for _, facts := range perFragment {
		for _, fact := range facts {
			byKind[fact.Kind] = append(byKind[fact.Kind], fact)
		}
	}

	ordered := timeline.AssembleAll(p.sanitizer.Apply(byKind))

	report := &model.Report{
		Patient:     p.patient,
		ExtractedAt: time.Now().UTC(),
		Sources:     distinctSources(fragments),
		Fragments:   len(fragments),
		KindFilter:  kindFilter,
		Facts:       ordered,
	}
	if psa, ok := ordered[model.KindPSA]; ok {
		report.LatestPSA, report.LatestPSAFallback = timeline.LatestPSA(psa)
	}

	if p.summarizer != nil && p.summarizer.IsEnabled() {
		summary, err := p.summarizer.GenerateSummary(ctx, report)
		if err != nil {
			// The narrative is decoration; extraction output stands.
			fmt.Fprintf(os.Stderr, "Warning: LLM summary failed: %v\n", err)
		} else if summary != nil {
			report.LLM = summary
		}
	}

	return report, nil
}

func (p *Pipeline) mapFragments(fragments []model.Fragment, kinds []model.FactKind) [][]model.Fact {
	out := make([][]model.Fact, len(fragments))

	if p.workers <= 1 || len(fragments) < 2 {
		for i, frag := range fragments {
			out[i] = p.extractor.ExtractFragment(frag, kinds)
		}
		return out
	}

	pool := worker.NewPool(p.workers)
	pool.Start()
	for i, frag := range fragments {
		pool.Submit(&fragmentJob{
			index:     i,
			fragment:  frag,
			kinds:     kinds,
			extractor: p.extractor,
		})
	}
	for _, result := range pool.Wait() {
		fr := result.(*fragmentResult)
		out[fr.index] = fr.facts
	}
	return out
}

func distinctSources(fragments []model.Fragment) []string {
	seen := make(map[string]bool, len(fragments))
	sources := []string{}
	for _, frag := range fragments {
		if !seen[frag.Source] {
			seen[frag.Source] = true
			sources = append(sources, frag.Source)
		}
	}
	return sources
}
