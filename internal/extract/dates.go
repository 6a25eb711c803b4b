package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/chartfact/chartfact/internal/model"
)

// dateSearchRadius is how far around a fact match the resolver looks
// before falling back to the whole fragment. Dates usually sit next to
// the value, but a report header date may be the only one on the page.
const dateSearchRadius = 500

const monthNames = `(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*`

// DateResolver finds the most plausible date in a text window and
// normalizes it to a (year, month, day) key.
//
// Numeric day/month ambiguity is resolved by policy, not certainty:
// bare numeric triples default to day-first (the source corpus is
// predominantly day/month/year), while field-labeled dates such as
// "Collection Date: 11/03/2020" default to month-first (US lab-header
// convention). A field greater than 12 overrides either default. The
// raw matched text is always returned so callers can re-check the
// interpretation.
type DateResolver struct {
	forms []dateForm
}

// dateForm is one recognized date notation. Forms are tried in
// precedence order; within a form, matches are tried left to right and
// the first one that normalizes to a plausible date wins. rawGroup
// selects the submatch reported as the raw date text (0 = whole match).
type dateForm struct {
	re       *regexp.Regexp
	rawGroup int
	parse    func(groups []string) (model.Date, bool)
}

// NewDateResolver compiles the recognized date forms.
func NewDateResolver() *DateResolver {
	return &DateResolver{forms: []dateForm{
		// 1. "Nov 3, 2020"
		{
			re: compileDate(monthNames + `\s+(\d{1,2}),?\s+(\d{4})`),
			parse: func(g []string) (model.Date, bool) {
				return newDate(atoi(g[3]), monthNumber(g[1]), atoi(g[2]))
			},
		},
		// 2. "3 Nov 2020", "3 of November 2020"
		{
			re: compileDate(`(\d{1,2})\s+(?:of\s+)?` + monthNames + `\s+(\d{4})`),
			parse: func(g []string) (model.Date, bool) {
				return newDate(atoi(g[3]), monthNumber(g[2]), atoi(g[1]))
			},
		},
		// 3. "Nov 2020"
		{
			re: compileDate(monthNames + `\s+(\d{4})`),
			parse: func(g []string) (model.Date, bool) {
				return newDate(atoi(g[2]), monthNumber(g[1]), 1)
			},
		},
		// 4. "Collection Date: 11/03/2020", "Received On 11-03-2020"
		{
			re:       compileDate(`(?:Collection\s+Date|Report\s+Date|Received\s+On|Reported\s+On)[:\s]*((\d{1,2})[/-](\d{1,2})[/-](\d{4}))`),
			rawGroup: 1,
			parse: func(g []string) (model.Date, bool) {
				return numericTriple(atoi(g[2]), atoi(g[3]), atoi(g[4]), monthFirst)
			},
		},
		// 5. "11/03/2020" (day-first unless a field forces otherwise)
		{
			re: compileDate(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`),
			parse: func(g []string) (model.Date, bool) {
				return numericTriple(atoi(g[1]), atoi(g[2]), atoi(g[3]), dayFirst)
			},
		},
		// 6. "2020/11/03"
		{
			re: compileDate(`\b(\d{4})[/-](\d{1,2})[/-](\d{1,2})\b`),
			parse: func(g []string) (model.Date, bool) {
				return newDate(atoi(g[1]), atoi(g[2]), atoi(g[3]))
			},
		},
		// 7. "11/2020"
		{
			re: compileDate(`\b(\d{1,2})/(\d{4})\b`),
			parse: func(g []string) (model.Date, bool) {
				return newDate(atoi(g[2]), atoi(g[1]), 1)
			},
		},
		// 8. "2020-11"
		{
			re: compileDate(`\b(\d{4})-(\d{2})\b`),
			parse: func(g []string) (model.Date, bool) {
				return newDate(atoi(g[1]), atoi(g[2]), 1)
			},
		},
		// 9. "11/03/20" (two-digit year, pivot at 50)
		{
			re: compileDate(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2})\b`),
			parse: func(g []string) (model.Date, bool) {
				return numericTriple(atoi(g[1]), atoi(g[2]), expandYear(atoi(g[3])), dayFirst)
			},
		},
		// 10. Bare year. Restricted to 19xx/20xx so decimal lab values
		// like "11.440" cannot leak a fake year.
		{
			re: compileDate(`\b(19\d{2}|20\d{2})\b`),
			parse: func(g []string) (model.Date, bool) {
				return newDate(atoi(g[1]), 1, 1)
			},
		},
	}}
}

// Resolve finds the most plausible date in the window. It returns the
// normalized date and the raw text that produced it, or the unknown
// sentinel and an empty string when no form matches.
func (r *DateResolver) Resolve(window string) (model.Date, string) {
	for _, form := range r.forms {
		for _, groups := range form.re.FindAllStringSubmatch(window, -1) {
			if d, ok := form.parse(groups); ok {
				return d, strings.TrimSpace(groups[form.rawGroup])
			}
			// Matched textually but normalized to an impossible
			// date; try the next match, then the next form.
		}
	}
	return model.UnknownDate, ""
}

// ResolveNear runs the two-stage search: a tight window around the
// match first, then the entire fragment.
func (r *DateResolver) ResolveNear(text string, start, end int) (model.Date, string) {
	lo := start - dateSearchRadius
	if lo < 0 {
		lo = 0
	}
	hi := end + dateSearchRadius
	if hi > len(text) {
		hi = len(text)
	}
	if d, raw := r.Resolve(text[lo:hi]); !d.IsUnknown() {
		return d, raw
	}
	return r.Resolve(text)
}

type tripleOrder int

const (
	dayFirst tripleOrder = iota
	monthFirst
)

// numericTriple normalizes an ambiguous a/b/year date. A field greater
// than 12 settles the question; otherwise the given default order is
// applied.
func numericTriple(a, b, year int, order tripleOrder) (model.Date, bool) {
	day, month := a, b
	if order == monthFirst {
		month, day = a, b
	}
	switch {
	case a > 12:
		day, month = a, b
	case b > 12:
		month, day = a, b
	}
	return newDate(year, month, day)
}

func newDate(year, month, day int) (model.Date, bool) {
	d := model.Date{Year: year, Month: month, Day: day}
	if !d.Valid() || d.IsUnknown() {
		return model.UnknownDate, false
	}
	return d, true
}

// expandYear expands a two-digit year: 00-49 land in the 2000s, 50-99
// in the 1900s.
func expandYear(y int) int {
	if y < 50 {
		return 2000 + y
	}
	return 1900 + y
}

func monthNumber(name string) int {
	switch strings.ToLower(name)[:3] {
	case "jan":
		return 1
	case "feb":
		return 2
	case "mar":
		return 3
	case "apr":
		return 4
	case "may":
		return 5
	case "jun":
		return 6
	case "jul":
		return 7
	case "aug":
		return 8
	case "sep":
		return 9
	case "oct":
		return 10
	case "nov":
		return 11
	case "dec":
		return 12
	}
	return 0
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func compileDate(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + pattern)
}
