package extract

import (
	"strings"
	"testing"

	"github.com/chartfact/chartfact/internal/model"
)

func TestExtractor_PSA_LabHeaderForm(t *testing.T) {
	extractor := NewExtractor()

	frag := model.Fragment{
		Content: "PROSTATE SPECIFIC ANTIGEN - PSA (H)6.04 ng/mL Reference Range: 0.00-4.00 Collection Date: 11/03/2020",
		Source:  "lab_page1.txt",
	}

	facts := extractor.ExtractFragment(frag, []model.FactKind{model.KindPSA})
	if len(facts) == 0 {
		t.Fatal("Expected at least one PSA candidate")
	}

	first := facts[0]
	if first.Kind != model.KindPSA || first.PSA == nil {
		t.Fatalf("Expected a PSA fact, got %+v", first)
	}
	if first.PSA.Value != 6.04 {
		t.Errorf("Expected value 6.04, got %g", first.PSA.Value)
	}
	if first.PSA.Unit != "ng/mL" {
		t.Errorf("Expected unit ng/mL, got %q", first.PSA.Unit)
	}
	if want := (model.Date{Year: 2020, Month: 11, Day: 3}); first.Date != want {
		t.Errorf("Expected date %v, got %v", want, first.Date)
	}
	if first.RawDate != "11/03/2020" {
		t.Errorf("Expected raw date 11/03/2020, got %q", first.RawDate)
	}
	if first.Source != "lab_page1.txt" {
		t.Errorf("Expected source lab_page1.txt, got %q", first.Source)
	}
}

func TestExtractor_PSA_MultipleValuesInFragment(t *testing.T) {
	extractor := NewExtractor()

	frag := model.Fragment{
		Content: "PSA (H)6.04 ng/mL on one line. Later follow-up PSA (L)0.02 ng/mL noted.",
		Source:  "history.txt",
	}

	facts := extractor.ExtractFragment(frag, []model.FactKind{model.KindPSA})

	values := map[float64]bool{}
	for _, f := range facts {
		values[f.PSA.Value] = true
	}
	if !values[6.04] || !values[0.02] {
		t.Errorf("Expected both 6.04 and 0.02 among candidates, got %v", values)
	}
}

func TestExtractor_PSA_MalformedNumberSkipsMatchOnly(t *testing.T) {
	extractor := NewExtractor()

	// The catalog's capture groups only match well-formed numerics, so a
	// fragment mixing garbage with a clean value still yields the value.
	frag := model.Fragment{
		Content: "PSA ..... ng/mL garbage then PSA (H)4.50 ng/mL clean",
		Source:  "noisy.txt",
	}

	facts := extractor.ExtractFragment(frag, []model.FactKind{model.KindPSA})
	if len(facts) == 0 {
		t.Fatal("Expected the clean value to survive")
	}
	for _, f := range facts {
		if f.PSA.Value != 4.5 {
			t.Errorf("Expected only 4.5, got %g", f.PSA.Value)
		}
	}
}

func TestExtractor_Gleason(t *testing.T) {
	extractor := NewExtractor()

	frag := model.Fragment{
		Content: "Pathology from Nov 5, 2019. Gleason score: 3+4 adenocarcinoma.",
		Source:  "path.txt",
	}

	facts := extractor.ExtractFragment(frag, []model.FactKind{model.KindGleason})
	if len(facts) != 1 {
		t.Fatalf("Expected 1 Gleason candidate, got %d", len(facts))
	}
	g := facts[0].Gleason
	if g.Primary != 3 || g.Secondary != 4 || g.Total != 7 {
		t.Errorf("Expected 3+4=7, got %d+%d=%d", g.Primary, g.Secondary, g.Total)
	}
	if want := (model.Date{Year: 2019, Month: 11, Day: 5}); facts[0].Date != want {
		t.Errorf("Expected date %v, got %v", want, facts[0].Date)
	}
}

func TestExtractor_Stage(t *testing.T) {
	extractor := NewExtractor()

	clinical := model.Fragment{Content: "Assessment: Clinical stage: IIB disease.", Source: "note.txt"}
	facts := extractor.ExtractFragment(clinical, []model.FactKind{model.KindStage})
	if len(facts) == 0 || facts[0].Stage.Label != "IIB" {
		t.Fatalf("Expected stage IIB, got %+v", facts)
	}

	tnm := model.Fragment{Content: "Staging T2A N0 M0 per imaging.", Source: "note.txt"}
	facts = extractor.ExtractFragment(tnm, []model.FactKind{model.KindStage})
	if len(facts) == 0 || facts[0].Stage.Label != "2A" {
		t.Fatalf("Expected TNM stage 2A, got %+v", facts)
	}
}

func TestExtractor_Biopsy(t *testing.T) {
	extractor := NewExtractor()

	frag := model.Fragment{
		Content: "Needle biopsy: adenocarcinoma present in 3 of 12 cores. Plan discussed.",
		Source:  "path.txt",
	}

	facts := extractor.ExtractFragment(frag, []model.FactKind{model.KindBiopsy})
	if len(facts) == 0 {
		t.Fatal("Expected a biopsy candidate")
	}
	if got := facts[0].Biopsy.Finding; got != "adenocarcinoma present in 3 of 12 cores" {
		t.Errorf("Unexpected finding %q", got)
	}
}

func TestExtractor_TreatmentKeywords(t *testing.T) {
	extractor := NewExtractor()

	frag := model.Fragment{
		Content: "Patient underwent radiation in June 2020. Prostatectomy was declined.",
		Source:  "note.txt",
	}

	facts := extractor.ExtractFragment(frag, []model.FactKind{model.KindTreatment})

	names := map[string]bool{}
	for _, f := range facts {
		names[f.Treatment.Name] = true
	}
	if !names["Radiation"] || !names["Prostatectomy"] {
		t.Errorf("Expected Radiation and Prostatectomy, got %v", names)
	}
}

func TestExtractor_ImagingKeywords(t *testing.T) {
	extractor := NewExtractor()

	frag := model.Fragment{
		Content: "Bone scan from Nov 2020 showed no osseous metastasis.",
		Source:  "imaging.txt",
	}

	facts := extractor.ExtractFragment(frag, []model.FactKind{model.KindImaging})
	if len(facts) == 0 {
		t.Fatal("Expected an imaging candidate")
	}
	img := facts[0].Imaging
	if img.Modality != "BONE SCAN" {
		t.Errorf("Expected modality BONE SCAN, got %q", img.Modality)
	}
	if !strings.Contains(img.Finding, "no osseous metastasis") {
		t.Errorf("Expected the finding sentence, got %q", img.Finding)
	}
}

func TestExtractor_ImagingKeywordsAreWordBounded(t *testing.T) {
	extractor := NewExtractor()

	// "Collection" must not trip the CT keyword.
	frag := model.Fragment{
		Content: "Collection Date: 11/03/2020 specimen logged without incident.",
		Source:  "lab.txt",
	}

	facts := extractor.ExtractFragment(frag, []model.FactKind{model.KindImaging})
	if len(facts) != 0 {
		t.Errorf("Expected no imaging facts, got %+v", facts)
	}

	whole := model.Fragment{Content: "CT of the pelvis unremarkable.", Source: "imaging.txt"}
	facts = extractor.ExtractFragment(whole, []model.FactKind{model.KindImaging})
	if len(facts) != 1 || facts[0].Imaging.Modality != "CT" {
		t.Errorf("Expected one CT fact, got %+v", facts)
	}
}

func TestExtractor_NewlinesDoNotBreakMatches(t *testing.T) {
	extractor := NewExtractor()

	frag := model.Fragment{
		Content: "PROSTATE SPECIFIC ANTIGEN\n- PSA (H)6.04\nng/mL\r\nCollection Date: 11/03/2020",
		Source:  "ocr.txt",
	}

	facts := extractor.ExtractFragment(frag, []model.FactKind{model.KindPSA})
	if len(facts) == 0 {
		t.Fatal("Expected the value despite scattered newlines")
	}
	if facts[0].PSA.Value != 6.04 {
		t.Errorf("Expected 6.04, got %g", facts[0].PSA.Value)
	}
}

func TestExtractor_EmptyFragment(t *testing.T) {
	extractor := NewExtractor()

	facts := extractor.ExtractFragment(model.Fragment{Content: "  \n\t ", Source: "blank.txt"}, model.AllKinds())
	if len(facts) != 0 {
		t.Errorf("Expected no candidates from a blank fragment, got %d", len(facts))
	}
}

func TestExtractor_Extract_InvalidKind(t *testing.T) {
	extractor := NewExtractor()

	_, err := extractor.Extract([]model.Fragment{{Content: "PSA 4.5 ng/mL", Source: "a.txt"}}, "bogus")
	if err == nil {
		t.Fatal("Expected error for invalid kind filter")
	}
}

func TestExtractor_Extract_EmptyInputYieldsEmptyLists(t *testing.T) {
	extractor := NewExtractor()

	out, err := extractor.Extract(nil, "all")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(out) != len(model.AllKinds()) {
		t.Fatalf("Expected a list per kind, got %d", len(out))
	}
	for kind, facts := range out {
		if facts == nil || len(facts) != 0 {
			t.Errorf("Expected empty non-nil list for %s", kind)
		}
	}
}

func TestFlatten(t *testing.T) {
	got := Flatten("a\r\nb\nc\rd")
	if got != "a b c d" {
		t.Errorf("Expected 'a b c d', got %q", got)
	}
}
