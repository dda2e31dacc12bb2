package reason

import (
	"fmt"
	"strings"
)

// systemPrompt frames every review. The response contract matters more
// than the wording: the gate downstream verifies rule ids and quotes.
const systemPrompt = `You are a legal citation format checker. You judge whether a citation
complies with the style rules you are shown, and nothing else.

CRITICAL RULES:
1. You may ONLY cite rules from the numbered list in the request. Never
   reference any rule that is not in the list.
2. Every error you report MUST include "cited_rule_id" and
   "rule_text_quote", where the quote is copied verbatim from that rule's
   text.
3. If the rules shown do not cover an issue, do not report it.
4. Respond with a single JSON object and no other text:
{
  "is_correct": bool,
  "errors": [
    {
      "error_type": string,
      "description": string,
      "cited_rule_id": string,
      "rule_text_quote": string,
      "current": string,
      "correct": string,
      "confidence": number
    }
  ],
  "corrected_version": string,
  "notes": string
}`

// strictReinforcement is appended when a previous response failed the
// evidence gate.
const strictReinforcement = `

STRICT MODE: your previous answer cited rule text that could not be
verified. Copy "rule_text_quote" EXACTLY, character for character, from
the rule text above. Do not paraphrase, abbreviate, or merge sentences.
Cite only rule ids that appear in the list.`

// BuildSystemPrompt returns the framing instructions.
func BuildSystemPrompt(strict bool) string {
	if strict {
		return systemPrompt + strictReinforcement
	}
	return systemPrompt
}

// BuildUserPrompt renders the citation and its rule shortlist.
func BuildUserPrompt(req ReviewRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Citation (footnote %d, position %d, kind %s):\n%s\n\nApplicable rules:\n",
		req.Citation.FootnoteNum, req.Citation.CitationNum, req.Citation.Kind, req.Citation.FullText)

	for _, rule := range req.Rules {
		fmt.Fprintf(&b, "\n[%s rule %s] %s", rule.Source, rule.ID, rule.Title)
		if rule.Section != "" {
			fmt.Fprintf(&b, " (%s)", rule.Section)
		}
		fmt.Fprintf(&b, "\n%s\n", rule.Text)
	}

	b.WriteString("\nHouse rules override manual rules when they conflict. Judge the citation now.")
	return b.String()
}
