package corpus

import (
	"sort"
	"strings"
	"unicode"

	"github.com/ruleproof/ruleproof/internal/model"
)

// RuleKey identifies a rule across namespaces.
type RuleKey struct {
	Source model.RuleSource
	ID     string
}

// Index is the inverted index over title + text + tags. Built once at load
// time, read-only afterwards.
type Index struct {
	postings map[string][]RuleKey
}

// Lookup returns the rules containing the term, in load order
// (house before manual, ids ascending). The returned slice must not be
// mutated by callers.
func (ix *Index) Lookup(term string) []RuleKey {
	return ix.postings[term]
}

// Terms returns the number of distinct indexed terms.
func (ix *Index) Terms() int { return len(ix.postings) }

// TermList returns every indexed term in ascending order.
func (ix *Index) TermList() []string {
	terms := make([]string, 0, len(ix.postings))
	for term := range ix.postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

func buildIndex(c *Corpus) *Index {
	ix := &Index{postings: make(map[string][]RuleKey)}

	add := func(source model.RuleSource, ids []string) {
		for _, id := range ids {
			rule, _ := c.Get(id, source)
			key := RuleKey{Source: source, ID: id}
			seen := make(map[string]bool)
			fields := rule.Title + " " + rule.Text + " " + strings.Join(rule.Tags, " ")
			for _, term := range Tokenize(fields, true) {
				if seen[term] {
					continue
				}
				seen[term] = true
				ix.postings[term] = append(ix.postings[term], key)
			}
		}
	}

	// house first so every posting list is deterministically ordered
	add(model.SourceHouse, c.houseIDs)
	add(model.SourceManual, c.manualIDs)

	return ix
}

// stopwords are dropped when filter is on; a broadened retrieval pass keeps
// them to widen recall.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "in": true, "is": true,
	"it": true, "its": true, "no": true, "not": true, "of": true, "on": true,
	"or": true, "that": true, "the": true, "this": true, "to": true,
	"was": true, "were": true, "when": true, "which": true, "with": true,
}

// Tokenize lowercases text and splits it into terms on non-alphanumeric
// boundaries. With filter set, stopwords and single-character terms are
// dropped.
func Tokenize(text string, filter bool) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if filter && (len(f) < 2 || stopwords[f]) {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}
