package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Fragment is one unit of source text (e.g., one page or chunk of a
// scanned report) together with the label of the document it came from.
// The engine never mutates fragments.
type Fragment struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// FactKind categorizes the clinical datum being extracted.
type FactKind string

const (
	KindPSA       FactKind = "psa"
	KindGleason   FactKind = "gleason"
	KindStage     FactKind = "stage"
	KindTreatment FactKind = "treatment"
	KindBiopsy    FactKind = "biopsy"
	KindImaging   FactKind = "imaging"
)

// AllKinds lists every fact kind in a fixed, report-friendly order.
func AllKinds() []FactKind {
	return []FactKind{KindPSA, KindGleason, KindStage, KindTreatment, KindBiopsy, KindImaging}
}

// ResolveKinds parses a kind filter ("psa", "gleason", ..., or "all")
// into the concrete list of kinds to extract. An unrecognized kind is
// the one condition that aborts an extraction call.
func ResolveKinds(filter string) ([]FactKind, error) {
	switch FactKind(strings.ToLower(strings.TrimSpace(filter))) {
	case "all", "":
		return AllKinds(), nil
	case KindPSA:
		return []FactKind{KindPSA}, nil
	case KindGleason:
		return []FactKind{KindGleason}, nil
	case KindStage:
		return []FactKind{KindStage}, nil
	case KindTreatment:
		return []FactKind{KindTreatment}, nil
	case KindBiopsy:
		return []FactKind{KindBiopsy}, nil
	case KindImaging:
		return []FactKind{KindImaging}, nil
	}
	return nil, fmt.Errorf("invalid fact kind %q (want psa, gleason, stage, treatment, biopsy, imaging or all)", filter)
}

// PSAPayload is a prostate-specific antigen lab value.
type PSAPayload struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// GleasonPayload is a Gleason grading pair. Total is always recomputed
// as Primary + Secondary, never trusted from the source text.
type GleasonPayload struct {
	Primary   int `json:"primary_grade"`
	Secondary int `json:"secondary_grade"`
	Total     int `json:"total_score"`
}

// StagePayload is a cancer staging label (e.g., "IIB", "T2A").
type StagePayload struct {
	Label string `json:"stage"`
}

// TreatmentPayload names a treatment mentioned in the record.
type TreatmentPayload struct {
	Name string `json:"treatment"`
}

// BiopsyPayload is the free-text finding following a biopsy mention.
type BiopsyPayload struct {
	Finding string `json:"result"`
}

// ImagingPayload is an imaging study mention with its finding sentence.
type ImagingPayload struct {
	Modality string `json:"type"`
	Finding  string `json:"result"`
}

// Fact is one extracted clinical datum. It is a tagged variant: Kind
// discriminates which payload pointer is set, and exactly one is.
//
// Before sanitization a Fact is a raw candidate; the sanitize stage is
// the boundary between candidate and durable fact.
type Fact struct {
	Kind    FactKind `json:"kind"`
	Date    Date     `json:"date"`
	RawDate string   `json:"raw_date,omitempty"` // date text as it appeared in the source, "" if none found
	Context string   `json:"context"`            // text window around the match, kept for human review
	Source  string   `json:"source"`             // originating document label

	PSA       *PSAPayload       `json:"psa,omitempty"`
	Gleason   *GleasonPayload   `json:"gleason,omitempty"`
	Stage     *StagePayload     `json:"stage_info,omitempty"`
	Treatment *TreatmentPayload `json:"treatment_info,omitempty"`
	Biopsy    *BiopsyPayload    `json:"biopsy_info,omitempty"`
	Imaging   *ImagingPayload   `json:"imaging_info,omitempty"`
}

// valueKey renders the kind-specific value fields of the fact as a
// stable string for deduplication.
func (f Fact) valueKey() string {
	switch f.Kind {
	case KindPSA:
		if f.PSA != nil {
			return strconv.FormatFloat(f.PSA.Value, 'f', -1, 64) + " " + f.PSA.Unit
		}
	case KindGleason:
		if f.Gleason != nil {
			return fmt.Sprintf("%d+%d", f.Gleason.Primary, f.Gleason.Secondary)
		}
	case KindStage:
		if f.Stage != nil {
			return strings.ToUpper(f.Stage.Label)
		}
	case KindTreatment:
		if f.Treatment != nil {
			return strings.ToLower(f.Treatment.Name)
		}
	case KindBiopsy:
		if f.Biopsy != nil {
			return strings.ToLower(f.Biopsy.Finding)
		}
	case KindImaging:
		if f.Imaging != nil {
			return strings.ToLower(f.Imaging.Modality + ":" + f.Imaging.Finding)
		}
	}
	return ""
}

// DedupKey identifies duplicate facts: two facts sharing a key are the
// same datum re-derived from overlapping rules or repeated fragments.
// The key is the value fields, the raw date text, the first 100
// characters of context, and the source label.
func (f Fact) DedupKey() string {
	ctx := f.Context
	// Counted in runes so OCR text with multi-byte characters is never
	// cut mid-rune.
	if len(ctx) > 100 {
		if runes := []rune(ctx); len(runes) > 100 {
			ctx = string(runes[:100])
		}
	}
	return f.valueKey() + "|" + f.RawDate + "|" + strings.TrimSpace(ctx) + "|" + f.Source
}

// Summary renders a short single-line description of the fact value.
func (f Fact) Summary() string {
	switch {
	case f.PSA != nil:
		return fmt.Sprintf("PSA %g %s", f.PSA.Value, f.PSA.Unit)
	case f.Gleason != nil:
		return fmt.Sprintf("Gleason %d + %d = %d", f.Gleason.Primary, f.Gleason.Secondary, f.Gleason.Total)
	case f.Stage != nil:
		return "Stage " + f.Stage.Label
	case f.Treatment != nil:
		return f.Treatment.Name
	case f.Biopsy != nil:
		return "Biopsy: " + f.Biopsy.Finding
	case f.Imaging != nil:
		return f.Imaging.Modality + ": " + f.Imaging.Finding
	}
	return string(f.Kind)
}
