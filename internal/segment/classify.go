package segment

import (
	"regexp"
	"strings"

	"github.com/ruleproof/ruleproof/internal/model"
)

// kindRule pairs a predicate with the kind it assigns. Rules are evaluated
// top to bottom, first match wins, so new signal patterns are added by
// inserting a row rather than rewriting control flow.
type kindRule struct {
	name  string
	match func(s, lower string) bool
	kind  model.CitationKind
}

// Citations often carry non-breaking spaces around connectors and reporter
// abbreviations. \s in Go regexps is ASCII-only, so patterns that must
// tolerate NBSP spell it out.
var (
	// volume, reporter abbreviation, first page: "123 U.S. 456", "789 F.2d 12"
	reporterVolumePat = regexp.MustCompile(`\b\d{1,4}[\s\x{00A0}]+[A-Z][A-Za-z0-9.']*(?:[\s\x{00A0}][A-Za-z0-9.']+)*?[\s\x{00A0}]+\d{1,5}\b`)
	// title number ahead of a section sign: "42 U.S.C. § 1983", "Cal. Penal Code § 187"
	statuteTitlePat = regexp.MustCompile(`\b\d{1,3}[\s\x{00A0}]+[A-Z][A-Za-z.]*[\s\x{00A0}]*\.?[\s\x{00A0}]*§|[A-Z][A-Za-z.]*[\s\x{00A0}]+Code(?:[\s\x{00A0}]+Ann\.)?[\s\x{00A0}]*§`)
	idMarkerPat     = regexp.MustCompile(`^(?:see\s+|see\s+also\s+|but\s+see\s+|cf\.\s+|accord\s+)?id\.`)
	journalPat      = regexp.MustCompile(`\b\d{1,4}[\s\x{00A0}]+(?:[A-Z][A-Za-z.']*\.?[\s\x{00A0}]+)*(?:L\.[\s\x{00A0}]?Rev\.|J\.|Rev\.|L\.J\.)[\s\x{00A0}]+\d{1,5}\b`)
	// the party connector, with either an ASCII space or an NBSP on each side
	caseConnectorPat = regexp.MustCompile(`[ \x{00A0}]v\.[ \x{00A0}]`)
)

var kindRules = []kindRule{
	{"id-marker", func(s, lower string) bool {
		return idMarkerPat.MatchString(lower)
	}, model.KindID},

	{"supra-marker", func(s, lower string) bool {
		return strings.Contains(lower, " supra") || strings.HasPrefix(lower, "supra")
	}, model.KindSupra},

	{"case", func(s, lower string) bool {
		return caseConnectorPat.MatchString(s) && reporterVolumePat.MatchString(s)
	}, model.KindCase},

	{"statute", func(s, lower string) bool {
		return strings.ContainsRune(s, '§') && statuteTitlePat.MatchString(s)
	}, model.KindStatute},

	{"web", func(s, lower string) bool {
		return strings.Contains(lower, "http://") || strings.Contains(lower, "https://") ||
			strings.Contains(lower, "www.")
	}, model.KindWeb},

	{"article", func(s, lower string) bool {
		return journalPat.MatchString(s)
	}, model.KindArticle},

	{"book", func(s, lower string) bool {
		return strings.Contains(lower, " ed.") || strings.Contains(lower, "(ed.") ||
			strings.Contains(lower, " press ") || strings.Contains(lower, " press,")
	}, model.KindBook},
}

// Classify assigns a kind to one citation segment.
func Classify(text string) model.CitationKind {
	lower := strings.ToLower(text)
	for _, rule := range kindRules {
		if rule.match(text, lower) {
			return rule.kind
		}
	}
	return model.KindUnclassified
}
