// Package retrieve selects the small set of rules relevant to a citation.
// Retrieval is deterministic: identical citation text and identical corpus
// always yield identical matches and coverage.
package retrieve

import (
	"sort"

	"github.com/ruleproof/ruleproof/internal/corpus"
	"github.com/ruleproof/ruleproof/internal/model"
)

// Retriever ranks corpus rules against citation text. Safe for concurrent
// use: the corpus is immutable and every call works on its own state.
type Retriever struct {
	corpus *corpus.Corpus
	topK   int
}

// New creates a retriever returning at most topK matches per namespace.
func New(c *corpus.Corpus, topK int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{corpus: c, topK: topK}
}

// Rule is the O(1) lookup used by the evidence gate.
func (r *Retriever) Rule(id string, source model.RuleSource) (model.Rule, bool) {
	return r.corpus.Get(id, source)
}

// Retrieve scores every indexed rule against the citation's terms and
// returns the ranked shortlist plus coverage accounting. When no rule
// matches any extracted term, one broadened pass re-tokenizes without
// stopword filtering before giving up.
func (r *Retriever) Retrieve(citationText string) ([]model.RuleMatch, model.Coverage) {
	terms := ExtractTerms(citationText, false)
	matches := r.score(terms)
	broadened := false

	if len(matches) == 0 {
		terms = ExtractTerms(citationText, true)
		matches = r.score(terms)
		broadened = true
	}

	perNS := map[model.RuleSource][]model.RuleMatch{}
	for _, m := range matches {
		perNS[m.Source] = append(perNS[m.Source], m)
	}

	coverage := model.Coverage{
		House: model.NamespaceCoverage{
			Scanned: r.corpus.Size(model.SourceHouse),
			Matched: len(perNS[model.SourceHouse]),
		},
		Manual: model.NamespaceCoverage{
			Scanned: r.corpus.Size(model.SourceManual),
			Matched: len(perNS[model.SourceManual]),
		},
		SearchTerms: terms.sorted(),
		Broadened:   broadened,
	}

	ranked := append(topOf(perNS[model.SourceHouse], r.topK), topOf(perNS[model.SourceManual], r.topK)...)
	sort.SliceStable(ranked, func(i, j int) bool { return rankLess(ranked[i], ranked[j]) })

	for _, m := range ranked {
		if m.Source == model.SourceHouse {
			coverage.House.Returned++
		} else {
			coverage.Manual.Returned++
		}
	}

	return ranked, coverage
}

// Shortlist resolves ranked matches into the full rules actually shown to
// the reasoning service.
func (r *Retriever) Shortlist(matches []model.RuleMatch) []model.Rule {
	rules := make([]model.Rule, 0, len(matches))
	for _, m := range matches {
		if rule, ok := r.corpus.Get(m.RuleID, m.Source); ok {
			rules = append(rules, rule)
		}
	}
	return rules
}

func (r *Retriever) score(terms termSet) []model.RuleMatch {
	scores := make(map[corpus.RuleKey]int)
	for term, weight := range terms {
		for _, key := range r.corpus.Index().Lookup(term) {
			scores[key] += weight
		}
	}

	matches := make([]model.RuleMatch, 0, len(scores))
	for key, score := range scores {
		matches = append(matches, model.RuleMatch{RuleID: key.ID, Source: key.Source, Score: score})
	}
	// map iteration order leaks in otherwise; fix it before ranking
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Source != matches[j].Source {
			return matches[i].Source == model.SourceHouse
		}
		return matches[i].RuleID < matches[j].RuleID
	})
	return matches
}

// topOf returns the k best matches of one namespace, score descending,
// id ascending on ties.
func topOf(matches []model.RuleMatch, k int) []model.RuleMatch {
	sorted := make([]model.RuleMatch, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].RuleID < sorted[j].RuleID
	})
	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}

// rankLess is the precedence comparator. House-style matches rank ahead of
// general-manual matches of equal or lower score: the override relation is
// structural, not a scoring-weight accident.
func rankLess(a, b model.RuleMatch) bool {
	if a.Source != b.Source {
		if a.Source == model.SourceHouse {
			return b.Score <= a.Score
		}
		return a.Score > b.Score
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.RuleID < b.RuleID
}
