// Package timeline places sanitized facts in stable chronological
// order and answers "latest value" style queries over the result.
package timeline

import (
	"sort"

	"github.com/chartfact/chartfact/internal/model"
)

// Assemble returns the facts sorted ascending by normalized date,
// oldest first, with unknown-date facts before all known dates. The
// sort is stable: facts sharing a date key keep their input order, so
// repeated runs over the same fragments are byte-identical.
func Assemble(facts []model.Fact) []model.Fact {
	out := make([]model.Fact, len(facts))
	copy(out, facts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// AssembleAll assembles every kind of a fact map independently.
func AssembleAll(byKind map[model.FactKind][]model.Fact) map[model.FactKind][]model.Fact {
	out := make(map[model.FactKind][]model.Fact, len(byKind))
	for kind, facts := range byKind {
		out[kind] = Assemble(facts)
	}
	return out
}

// LatestPSA returns the most recent PSA value from an assembled
// (ascending-sorted) fact list: the last element whose date is known.
// When no fact carries a date, "most recent" is undefined and the
// maximum value present is returned instead, with fallback set so
// callers can surface that policy. Returns nil when the list holds no
// PSA facts.
func LatestPSA(sorted []model.Fact) (latest *model.PSAPayload, fallback bool) {
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].PSA == nil {
			continue
		}
		if !sorted[i].Date.IsUnknown() {
			v := *sorted[i].PSA
			return &v, false
		}
	}

	// All dates unknown: fall back to the maximum value.
	for _, fact := range sorted {
		if fact.PSA == nil {
			continue
		}
		if latest == nil || fact.PSA.Value > latest.Value {
			v := *fact.PSA
			latest = &v
		}
	}
	return latest, latest != nil
}
