// Package sanitize converts raw extraction candidates into durable
// facts: it drops implausible values and collapses duplicates produced
// by overlapping rules or repeated fragments. It filters only: the
// relative order of surviving facts is exactly their candidate order.
package sanitize

import (
	"github.com/chartfact/chartfact/internal/model"
)

// MaxPlausiblePSA is the domain sanity bound for PSA values in ng/mL.
// Fragment noise (reference ranges, glued OCR digits) produces absurd
// values well above it; genuine values above 50 are rare enough that
// excluding them is the safer default.
const MaxPlausiblePSA = 50.0

// Sanitizer applies plausibility checks and first-wins deduplication.
type Sanitizer struct {
	maxPSA float64
}

// NewSanitizer creates a sanitizer with the default PSA bound.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{maxPSA: MaxPlausiblePSA}
}

// Apply sanitizes every kind of a candidate map independently.
func (s *Sanitizer) Apply(candidates map[model.FactKind][]model.Fact) map[model.FactKind][]model.Fact {
	out := make(map[model.FactKind][]model.Fact, len(candidates))
	for kind, facts := range candidates {
		out[kind] = s.Facts(facts)
	}
	return out
}

// Facts sanitizes one candidate list: implausible candidates are
// dropped, Gleason totals are recomputed, and for each dedup key only
// the first occurrence survives. Later duplicates are dropped silently.
func (s *Sanitizer) Facts(candidates []model.Fact) []model.Fact {
	seen := make(map[string]bool, len(candidates))
	out := make([]model.Fact, 0, len(candidates))

	for _, fact := range candidates {
		if !s.plausible(fact) {
			continue
		}
		if fact.Gleason != nil {
			// Never trust a total parsed from text. Copy before fixing
			// it up; the candidate slice stays untouched.
			g := *fact.Gleason
			g.Total = g.Primary + g.Secondary
			fact.Gleason = &g
		}
		key := fact.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, fact)
	}
	return out
}

func (s *Sanitizer) plausible(fact model.Fact) bool {
	switch fact.Kind {
	case model.KindPSA:
		if fact.PSA == nil {
			return false
		}
		return fact.PSA.Value > 0 && fact.PSA.Value <= s.maxPSA
	case model.KindGleason:
		if fact.Gleason == nil {
			return false
		}
		return fact.Gleason.Primary >= 0 && fact.Gleason.Secondary >= 0
	case model.KindStage:
		return fact.Stage != nil && fact.Stage.Label != ""
	case model.KindTreatment:
		return fact.Treatment != nil && fact.Treatment.Name != ""
	case model.KindBiopsy:
		return fact.Biopsy != nil
	case model.KindImaging:
		return fact.Imaging != nil && fact.Imaging.Modality != ""
	}
	return false
}
