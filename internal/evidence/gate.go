// Package evidence is the fail-closed grounding gate. Every automated
// verdict passes through Validate before any downstream consumer may trust
// it: a response is accepted only when each claimed error cites a rule the
// reasoning service was actually shown and quotes text that really appears
// in that rule.
package evidence

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ruleproof/ruleproof/internal/model"
)

// Issue describes one grounding failure inside a rejected response.
type Issue struct {
	ErrorIndex int    `json:"error_index"`
	RuleID     string `json:"rule_id,omitempty"`
	Reason     string `json:"reason"`
}

func (i Issue) String() string {
	if i.RuleID == "" {
		return fmt.Sprintf("error #%d: %s", i.ErrorIndex, i.Reason)
	}
	return fmt.Sprintf("error #%d (rule %s): %s", i.ErrorIndex, i.RuleID, i.Reason)
}

// Validate checks a reasoning-service response against the shortlist of
// rules that produced it. Acceptance is all-or-nothing: one fabricated
// error rejects the whole response, because partial trust in a response
// with an invented citation is no trust at all. Pure function, no side
// effects.
func Validate(resp model.ReviewResponse, shortlist []model.Rule) (bool, []Issue) {
	byID := make(map[string][]model.Rule, len(shortlist))
	for _, rule := range shortlist {
		byID[rule.ID] = append(byID[rule.ID], rule)
	}

	var issues []Issue
	for i, e := range resp.Errors {
		if e.CitedRuleID == "" {
			issues = append(issues, Issue{ErrorIndex: i, Reason: "no cited rule id"})
			continue
		}
		rules, shown := byID[e.CitedRuleID]
		if !shown {
			issues = append(issues, Issue{
				ErrorIndex: i,
				RuleID:     e.CitedRuleID,
				Reason:     "cited rule was not in the shortlist shown to the service",
			})
			continue
		}
		if strings.TrimSpace(e.RuleTextQuote) == "" {
			issues = append(issues, Issue{ErrorIndex: i, RuleID: e.CitedRuleID, Reason: "empty rule text quote"})
			continue
		}
		if !quoteGrounded(e.RuleTextQuote, rules) {
			issues = append(issues, Issue{
				ErrorIndex: i,
				RuleID:     e.CitedRuleID,
				Reason:     "rule text quote not found in the cited rule",
			})
		}
	}

	return len(issues) == 0, issues
}

// quoteGrounded reports whether the quote is a normalized substring of any
// shortlisted rule carrying the cited id. The same id may exist in both
// namespaces; matching either shortlisted text is sufficient.
func quoteGrounded(quote string, rules []model.Rule) bool {
	normalized := Normalize(quote)
	if normalized == "" {
		return false
	}
	for _, rule := range rules {
		if strings.Contains(Normalize(rule.Text), normalized) {
			return true
		}
	}
	return false
}

// Normalize lowercases text, replaces punctuation with spaces, and collapses
// whitespace runs to single spaces, so that quoting differences in dashes,
// curly quotes, or line wrapping do not defeat the substring check.
// Punctuation becomes a space rather than vanishing, keeping the token
// boundary it marked: "1.1" normalizes to "1 1", not "11".
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := true // swallow leading whitespace
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
		} else if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}
