package retrieve

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ruleproof/ruleproof/internal/corpus"
)

// Term weights. Exact values are a free design choice; determinism and
// house precedence do not depend on them.
const (
	weightGeneric = 1
	weightSignal  = 3
)

// termSet maps a search term to its weight.
type termSet map[string]int

func (t termSet) add(term string, weight int) {
	if weight > t[term] {
		t[term] = weight
	}
}

func (t termSet) sorted() []string {
	terms := make([]string, 0, len(t))
	for term := range t {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// signalWords introduce a citation and indicate its relationship to the
// supported proposition.
var signalWords = []string{"see", "cf", "accord", "compare", "contra", "but"}

var (
	pinciteFeaturePat  = regexp.MustCompile(`,\s*\d+`)
	reporterFeaturePat = regexp.MustCompile(`\b\d{1,4}\s+(?:U\.S\.|S\.\s?Ct\.|F\.(?:2d|3d|4th)?|F\.\s?Supp\.(?:\s?2d|\s?3d)?|[A-Z][a-z]+\.(?:\s?[A-Z][a-z]*\.)*)\s*\d*`)
	quotedSpanPat      = regexp.MustCompile(`"[^"]+"|\x{201c}[^\x{201d}]+\x{201d}`)
)

// ExtractTerms converts citation text into weighted search terms: generic
// tokens plus signal features that carry more weight. broad disables
// stopword filtering for the second-chance pass.
func ExtractTerms(text string, broad bool) termSet {
	terms := termSet{}
	for _, token := range corpus.Tokenize(text, !broad) {
		terms.add(token, weightGeneric)
	}

	lower := strings.ToLower(text)

	for _, w := range signalWords {
		if strings.HasPrefix(lower, w+" ") || strings.Contains(lower, " "+w+" ") || strings.Contains(lower, w+".") {
			terms.add("signal", weightSignal)
			terms.add(w, weightSignal)
			break
		}
	}

	if quotedSpanPat.MatchString(text) {
		terms.add("quotation", weightSignal)
		terms.add("quote", weightSignal)
	}

	if strings.ContainsRune(text, '(') {
		terms.add("parenthetical", weightSignal)
	}

	if pinciteFeaturePat.MatchString(text) {
		terms.add("pincite", weightSignal)
		terms.add("pinpoint", weightSignal)
	}

	if strings.Contains(lower, "supra") {
		terms.add("supra", weightSignal)
		terms.add("short", weightSignal)
	}
	if strings.Contains(lower, "id.") {
		terms.add("id", weightSignal)
		terms.add("short", weightSignal)
	}

	if reporterFeaturePat.MatchString(text) {
		terms.add("reporter", weightSignal)
		terms.add("volume", weightSignal)
	}

	return terms
}
