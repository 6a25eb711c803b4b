package extract

import "regexp"

// Catalog holds the compiled recognition rules for every fact kind.
// Rule order encodes precedence: the most specific, context-anchored
// rules come first and generic fallbacks last. Every rule of a kind is
// still run against the whole fragment, since several legitimate values
// can co-occur in one fragment; precedence only decides which rule gets
// first claim on a duplicate (via first-wins deduplication downstream).
//
// All rules are case-insensitive and tolerate arbitrary internal
// whitespace; fragments are flattened (newlines collapsed to spaces)
// before matching. The catalog is built once and read-only after that,
// so a single instance is safe to share across goroutines.
type Catalog struct {
	psa     []*regexp.Regexp
	gleason []*regexp.Regexp
	stage   []*regexp.Regexp
	biopsy  []*regexp.Regexp

	// Treatment and imaging facts are keyword-presence rules: the
	// sentence containing the keyword is the captured finding.
	treatments []keywordRule
	imaging    []keywordRule
}

// keywordRule is a word-bounded keyword. Short modality names like "CT"
// would otherwise match inside words ("Collection").
type keywordRule struct {
	name string
	re   *regexp.Regexp
}

// NewCatalog compiles the full rule catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		psa: compileAll(
			// Lab-report header forms, e.g. "PROSTATE SPECIFIC ANTIGEN - PSA (H)6.04 ng/mL".
			`PROSTATE\s*SPECIFIC\s*ANTIGEN\s*-\s*PSA\s*\([HL]\)\s*([0-9]+(?:\.[0-9]+)?)\s*ng/mL`,
			`PROSTATE\s*SPECIFIC\s*ANTIGEN[^0-9]*\([^)]*\)\s*([0-9]+(?:\.[0-9]+)?)\s*ng/mL`,
			`PROSTATE\s*SPECIFIC\s*ANTIGEN[^0-9]*([0-9]+(?:\.[0-9]+)?)\s*ng/mL`,
			// "PSA (H)6.04 ng/mL", no space after the flag.
			`PSA\s*\([HL]\)\s*([0-9]+(?:\.[0-9]+)?)\s*ng/mL`,
			// "-PSA (Serum) 0.02 ng/mL" and "-TOTAL (PSA) 0.02 ng/mL".
			`-PSA\s*\([^)]*\)\s*([0-9]+(?:\.[0-9]+)?)\s*ng/mL`,
			`-TOTAL\s*\(PSA\)\s*([0-9]+(?:\.[0-9]+)?)\s*ng/mL`,
			// "PSA (Serum) Result 0.01 ng/mL".
			`PSA\s*\([^)]*\)\s*Result\s*([0-9]+(?:\.[0-9]+)?)\s*ng/mL`,
			// "PSA, TOTAL 0.00 - 4.00 ng/mL11.440" style reference-range lines.
			`PSA[,\s]*TOTAL[^0-9]*([0-9]+(?:\.[0-9]+)?)\s*ng/mL`,
			// OCR sometimes glues the unit to the value: "ng/mL11.440 Note".
			`ng/mL\s*([0-9]+(?:\.[0-9]+)?)\s*(?:Note|$)`,
			`Result\s*[^0-9]*([0-9]+(?:\.[0-9]+)?)\s*ng/mL`,
			`PSA[^0-9]*([0-9]+(?:\.[0-9]+)?)\s*ng/mL`,
			// Generic fallbacks, unit optional.
			`(?:PSA|Prostate\s*Specific\s*Antigen)[:\s=]*([0-9]+(?:\.[0-9]+)?)\s*(?:ng/mL)?`,
			`PSA\s*([0-9]+(?:\.[0-9]+)?)\s*(?:ng/mL)?`,
			`Prostate\s*Specific\s*Antigen\s*([0-9]+(?:\.[0-9]+)?)\s*(?:ng/mL)?`,
		),
		gleason: compileAll(
			`Gleason\s*score[:\s]*([0-9]+)\s*\+\s*([0-9]+)`,
			`Gleason\s*([0-9]+)\s*\+\s*([0-9]+)`,
			`Grade\s*([0-9]+)\s*\+\s*([0-9]+)`,
			`([0-9]+)\s*\+\s*([0-9]+)\s*Gleason`,
		),
		stage: compileAll(
			`Clinical\s*stage[:\s]*([I1-4]+[ABC]?)`,
			`T([0-4][ABC]?)\s*N([0-3])\s*M([0-1])`,
			`TNM\s*([0-4][ABC]?)\s*([0-3])\s*([0-1])`,
			`Stage\s*([I1-4]+[ABC]?)`,
		),
		biopsy: compileAll(
			`needle\s*biopsy[:\s]*([^.]*)`,
			`core\s*biopsy[:\s]*([^.]*)`,
			`biopsy[:\s]*([^.]*)`,
		),
		treatments: compileKeywords(
			"surgery", "prostatectomy", "radiation", "chemotherapy", "hormone therapy",
			"androgen deprivation", "brachytherapy", "cryotherapy", "immunotherapy",
		),
		imaging: compileKeywords(
			"MRI", "CT", "PET", "ultrasound", "bone scan", "imaging",
		),
	}
}

func compileAll(patterns ...string) []*regexp.Regexp {
	rules := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		rules[i] = regexp.MustCompile(`(?i)` + p)
	}
	return rules
}

func compileKeywords(keywords ...string) []keywordRule {
	rules := make([]keywordRule, len(keywords))
	for i, k := range keywords {
		rules[i] = keywordRule{
			name: k,
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(k) + `\b`),
		}
	}
	return rules
}
