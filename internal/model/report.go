package model

import "time"

// Report is the complete output of one extraction run: per fact kind,
// the deduplicated facts in chronological order (unknown dates first),
// plus convenience accessors for timeline-style queries.
type Report struct {
	Patient     string    `json:"patient,omitempty"` // optional patient identifier
	ExtractedAt time.Time `json:"extracted_at"`
	Sources     []string  `json:"sources"`        // distinct document labels seen, input order
	Fragments   int       `json:"fragment_count"` // number of fragments scanned
	KindFilter  string    `json:"kind_filter"`    // the filter the caller requested

	Facts map[FactKind][]Fact `json:"facts"`

	// LatestPSA is the most recent PSA value, if any PSA fact was found.
	// When no PSA fact carries a date this is the maximum value present,
	// and LatestPSAFallback is set so callers can see the policy applied.
	LatestPSA         *PSAPayload `json:"latest_psa,omitempty"`
	LatestPSAFallback bool        `json:"latest_psa_fallback,omitempty"`

	LLM *LLMSummary `json:"llm,omitempty"` // optional narrative, never affects extraction
}

// FactCount returns the total number of facts across all kinds.
func (r *Report) FactCount() int {
	n := 0
	for _, facts := range r.Facts {
		n += len(facts)
	}
	return n
}

// LLMSummary is an optional LLM-generated timeline narrative. It is
// generated after extraction completes and never feeds back into it.
type LLMSummary struct {
	Enabled   bool     `json:"enabled"`
	Provider  string   `json:"provider,omitempty"`
	Model     string   `json:"model,omitempty"`
	SummaryMD string   `json:"summary_md,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}
