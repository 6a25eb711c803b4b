package extract

import (
	"strconv"
	"strings"

	"github.com/chartfact/chartfact/internal/model"
)

// Context window radii, clamped to fragment bounds. PSA contexts carry
// a little more surrounding text because lab result lines bury the
// value between header phrases and reference ranges.
const (
	psaContextRadius     = 150
	defaultContextRadius = 100
)

// Extractor runs the pattern catalog against text fragments and
// produces raw fact candidates. It holds only the compiled catalog and
// date forms, both read-only, so one Extractor is safe for concurrent
// use and calls share no state.
type Extractor struct {
	catalog  *Catalog
	resolver *DateResolver
}

// NewExtractor creates an extractor with the default catalog.
func NewExtractor() *Extractor {
	return &Extractor{
		catalog:  NewCatalog(),
		resolver: NewDateResolver(),
	}
}

// Flatten collapses newlines (and carriage returns) to single spaces so
// patterns can match across the line breaks OCR scatters through text.
func Flatten(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}

// Extract runs the catalog for the requested kind filter over a batch
// of fragments and returns raw candidates grouped by kind, each kind
// independent of the others. The candidates are unsanitized and may
// contain implausible values and duplicates; see the sanitize package.
//
// An invalid kind filter is the only error; empty input returns empty
// candidate lists, which is always distinguishable from "not attempted".
func (e *Extractor) Extract(fragments []model.Fragment, filter string) (map[model.FactKind][]model.Fact, error) {
	kinds, err := model.ResolveKinds(filter)
	if err != nil {
		return nil, err
	}

	out := make(map[model.FactKind][]model.Fact, len(kinds))
	for _, kind := range kinds {
		out[kind] = []model.Fact{}
	}
	for _, frag := range fragments {
		for _, fact := range e.ExtractFragment(frag, kinds) {
			out[fact.Kind] = append(out[fact.Kind], fact)
		}
	}
	return out, nil
}

// ExtractFragment extracts raw candidates of the given kinds from one
// fragment, in catalog order.
func (e *Extractor) ExtractFragment(frag model.Fragment, kinds []model.FactKind) []model.Fact {
	text := Flatten(frag.Content)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var facts []model.Fact
	for _, kind := range kinds {
		switch kind {
		case model.KindPSA:
			facts = append(facts, e.extractPSA(text, frag.Source)...)
		case model.KindGleason:
			facts = append(facts, e.extractGleason(text, frag.Source)...)
		case model.KindStage:
			facts = append(facts, e.extractStage(text, frag.Source)...)
		case model.KindTreatment:
			facts = append(facts, e.extractKeywords(text, frag.Source, model.KindTreatment, e.catalog.treatments)...)
		case model.KindBiopsy:
			facts = append(facts, e.extractBiopsy(text, frag.Source)...)
		case model.KindImaging:
			facts = append(facts, e.extractKeywords(text, frag.Source, model.KindImaging, e.catalog.imaging)...)
		}
	}
	return facts
}

func (e *Extractor) extractPSA(text, source string) []model.Fact {
	var facts []model.Fact
	for _, rule := range e.catalog.psa {
		for _, m := range rule.FindAllStringSubmatchIndex(text, -1) {
			value, err := strconv.ParseFloat(text[m[2]:m[3]], 64)
			if err != nil {
				// Malformed numeric match: skip this match only.
				continue
			}
			fact := e.newFact(text, source, m[0], m[1], psaContextRadius)
			fact.Kind = model.KindPSA
			fact.PSA = &model.PSAPayload{Value: value, Unit: "ng/mL"}
			facts = append(facts, fact)
		}
	}
	return facts
}

func (e *Extractor) extractGleason(text, source string) []model.Fact {
	var facts []model.Fact
	for _, rule := range e.catalog.gleason {
		for _, m := range rule.FindAllStringSubmatchIndex(text, -1) {
			primary, err1 := strconv.Atoi(text[m[2]:m[3]])
			secondary, err2 := strconv.Atoi(text[m[4]:m[5]])
			if err1 != nil || err2 != nil {
				continue
			}
			fact := e.newFact(text, source, m[0], m[1], defaultContextRadius)
			fact.Kind = model.KindGleason
			fact.Gleason = &model.GleasonPayload{
				Primary:   primary,
				Secondary: secondary,
				Total:     primary + secondary,
			}
			facts = append(facts, fact)
		}
	}
	return facts
}

func (e *Extractor) extractStage(text, source string) []model.Fact {
	var facts []model.Fact
	for _, rule := range e.catalog.stage {
		for _, m := range rule.FindAllStringSubmatchIndex(text, -1) {
			fact := e.newFact(text, source, m[0], m[1], defaultContextRadius)
			fact.Kind = model.KindStage
			fact.Stage = &model.StagePayload{Label: text[m[2]:m[3]]}
			facts = append(facts, fact)
		}
	}
	return facts
}

func (e *Extractor) extractBiopsy(text, source string) []model.Fact {
	var facts []model.Fact
	for _, rule := range e.catalog.biopsy {
		for _, m := range rule.FindAllStringSubmatchIndex(text, -1) {
			fact := e.newFact(text, source, m[0], m[1], defaultContextRadius)
			fact.Kind = model.KindBiopsy
			fact.Biopsy = &model.BiopsyPayload{Finding: strings.TrimSpace(text[m[2]:m[3]])}
			facts = append(facts, fact)
		}
	}
	return facts
}

// extractKeywords handles the keyword-presence kinds (treatment,
// imaging): one fact per keyword per fragment, with the sentence
// containing the keyword as both finding and context.
func (e *Extractor) extractKeywords(text, source string, kind model.FactKind, keywords []keywordRule) []model.Fact {
	var facts []model.Fact
	for _, keyword := range keywords {
		loc := keyword.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		sentence := sentenceAround(text, loc[0])
		date, rawDate := e.resolver.ResolveNear(text, loc[0], loc[1])

		fact := model.Fact{
			Kind:    kind,
			Date:    date,
			RawDate: rawDate,
			Context: sentence,
			Source:  source,
		}
		switch kind {
		case model.KindTreatment:
			fact.Treatment = &model.TreatmentPayload{Name: titleCase(keyword.name)}
		case model.KindImaging:
			fact.Imaging = &model.ImagingPayload{
				Modality: strings.ToUpper(keyword.name),
				Finding:  sentence,
			}
		}
		facts = append(facts, fact)
	}
	return facts
}

// newFact fills the fields shared by every pattern-matched candidate:
// the resolved date, its raw text, and the clamped context window.
func (e *Extractor) newFact(text, source string, start, end, radius int) model.Fact {
	date, rawDate := e.resolver.ResolveNear(text, start, end)

	lo := start - radius
	if lo < 0 {
		lo = 0
	}
	hi := end + radius
	if hi > len(text) {
		hi = len(text)
	}
	return model.Fact{
		Date:    date,
		RawDate: rawDate,
		Context: strings.TrimSpace(text[lo:hi]),
		Source:  source,
	}
}

// sentenceAround returns the period-delimited sentence containing the
// byte offset idx.
func sentenceAround(text string, idx int) string {
	start := strings.LastIndex(text[:idx], ".")
	if start < 0 {
		start = 0
	} else {
		start++
	}
	end := strings.Index(text[idx:], ".")
	if end < 0 {
		end = len(text)
	} else {
		end += idx
	}
	return strings.TrimSpace(text[start:end])
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
