// Package precheck runs deterministic, zero-cost citation checks that need
// no rule retrieval and no reasoning service. Findings are merged into the
// final result regardless of the service outcome.
package precheck

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ruleproof/ruleproof/internal/model"
)

// check pairs a name with its predicate, evaluated independently; unlike
// the segment classifier every check runs, since one citation can trip
// several.
type check struct {
	name string
	run  func(c model.Citation) *model.CitationError
}

var checks = []check{
	{"quotation-mark-style", quotationMarkStyle},
	{"case-connector-spacing", caseConnectorSpacing},
	{"parenthetical-capitalization", parentheticalCapitalization},
}

// Run evaluates all deterministic checks against one citation.
func Run(c model.Citation) []model.CitationError {
	var findings []model.CitationError
	for _, chk := range checks {
		if f := chk.run(c); f != nil {
			findings = append(findings, *f)
		}
	}
	return findings
}

// quotationMarkStyle flags straight double quotes, which house typography
// replaces with curly glyphs.
func quotationMarkStyle(c model.Citation) *model.CitationError {
	if !strings.ContainsRune(c.FullText, '"') {
		return nil
	}
	return &model.CitationError{
		ErrorType:   "quotation_mark_style",
		Description: "straight double quotation marks; use curly quotation marks",
		Current:     `"`,
		Correct:     "“ ”",
		Confidence:  1,
	}
}

// caseConnectorSpacing requires a non-breaking space before the v.
// connector so a case name never wraps between the parties. A plain
// " v. " means the space before the connector is breakable.
func caseConnectorSpacing(c model.Citation) *model.CitationError {
	if c.Kind != model.KindCase {
		return nil
	}
	if !strings.Contains(c.FullText, " v. ") {
		return nil
	}
	return &model.CitationError{
		ErrorType:   "case_connector_spacing",
		Description: "breakable space before the v. connector; use a non-breaking space",
		Current:     " v. ",
		Correct:     " v. ",
		Confidence:  1,
	}
}

var parentheticalPat = regexp.MustCompile(`\(([^()]+)\)`)

// courtYearPat matches court/date parentheticals like (2020) or
// (9th Cir. 1990), which are legitimately capitalized.
var courtYearPat = regexp.MustCompile(`^(?:[A-Z0-9][\w.]*\s*)*\d{4}$`)

// parentheticalCapitalization flags explanatory parentheticals that open
// with a capital letter. Exceptions: direct quotations and id.-led
// parentheticals keep their original casing.
func parentheticalCapitalization(c model.Citation) *model.CitationError {
	for _, m := range parentheticalPat.FindAllStringSubmatch(c.FullText, -1) {
		inner := strings.TrimSpace(m[1])
		if inner == "" || courtYearPat.MatchString(inner) {
			continue
		}
		lower := strings.ToLower(inner)
		if strings.HasPrefix(inner, `"`) || strings.HasPrefix(inner, "“") ||
			strings.HasPrefix(lower, "id.") {
			continue
		}
		first, _ := firstLetter(inner)
		if first == 0 || !unicode.IsUpper(first) {
			continue
		}
		// leading signal-style words inside parentheticals are lowercase
		// per style; anything opening uppercase that is not a quote, id.,
		// or court/date parenthetical is flagged
		return &model.CitationError{
			ErrorType:   "parenthetical_capitalization",
			Description: "explanatory parenthetical opens with a capital letter",
			Current:     "(" + inner + ")",
			Confidence:  0.9,
		}
	}
	return nil
}

func firstLetter(s string) (rune, bool) {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return r, true
		}
	}
	return 0, false
}
