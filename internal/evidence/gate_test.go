package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruleproof/ruleproof/internal/model"
)

var shortlist = []model.Rule{
	{
		ID:     "1.1",
		Source: model.SourceHouse,
		Title:  "Quotation marks",
		Text:   `Use curly quotation marks — "smart quotes" — in all citations; straight marks are reserved for code.`,
	},
	{
		ID:     "30.1",
		Source: model.SourceManual,
		Title:  "Reporter citations",
		Text:   "Cite cases by volume, reporter abbreviation, and first page.",
	},
}

func respWith(errs ...model.CitationError) model.ReviewResponse {
	return model.ReviewResponse{IsCorrect: len(errs) == 0, Errors: errs}
}

func TestValidate_AcceptsGroundedResponse(t *testing.T) {
	accepted, issues := Validate(respWith(model.CitationError{
		ErrorType:     "quotation_mark_style",
		CitedRuleID:   "1.1",
		RuleTextQuote: "Use curly quotation marks",
	}), shortlist)

	assert.True(t, accepted)
	assert.Empty(t, issues)
}

func TestValidate_AcceptsNoErrors(t *testing.T) {
	accepted, issues := Validate(respWith(), shortlist)
	assert.True(t, accepted)
	assert.Empty(t, issues)
}

func TestValidate_RejectsRuleOutsideShortlist(t *testing.T) {
	accepted, issues := Validate(respWith(model.CitationError{
		ErrorType:     "reporter_format",
		CitedRuleID:   "99.9",
		RuleTextQuote: "anything at all",
	}), shortlist)

	assert.False(t, accepted)
	require.Len(t, issues, 1)
	assert.Equal(t, "99.9", issues[0].RuleID)
	assert.Contains(t, issues[0].Reason, "not in the shortlist")
}

func TestValidate_RejectsFabricatedQuote(t *testing.T) {
	accepted, issues := Validate(respWith(model.CitationError{
		ErrorType:     "quotation_mark_style",
		CitedRuleID:   "1.1",
		RuleTextQuote: "always use straight quotation marks", // not in the rule
	}), shortlist)

	assert.False(t, accepted)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Reason, "not found")
}

func TestValidate_RejectsEmptyQuote(t *testing.T) {
	for _, quote := range []string{"", "   "} {
		accepted, issues := Validate(respWith(model.CitationError{
			CitedRuleID:   "1.1",
			RuleTextQuote: quote,
		}), shortlist)
		assert.False(t, accepted)
		assert.NotEmpty(t, issues)
	}
}

func TestValidate_RejectsMissingRuleID(t *testing.T) {
	accepted, issues := Validate(respWith(model.CitationError{
		RuleTextQuote: "Use curly quotation marks",
	}), shortlist)
	assert.False(t, accepted)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Reason, "no cited rule id")
}

func TestValidate_AllOrNothing(t *testing.T) {
	// one grounded error plus one fabricated error: the whole response is
	// rejected, never partially accepted
	accepted, issues := Validate(respWith(
		model.CitationError{CitedRuleID: "30.1", RuleTextQuote: "volume, reporter abbreviation"},
		model.CitationError{CitedRuleID: "99.9", RuleTextQuote: "made up"},
	), shortlist)

	assert.False(t, accepted)
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].ErrorIndex)
}

func TestValidate_QuoteNormalization(t *testing.T) {
	// curly punctuation, collapsed whitespace, and case differences in the
	// quote still ground against the rule text
	accepted, issues := Validate(respWith(model.CitationError{
		CitedRuleID:   "1.1",
		RuleTextQuote: "curly quotation marks “smart quotes”   in ALL citations",
	}), shortlist)

	assert.True(t, accepted, "issues: %v", issues)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "use curly marks in citations",
		Normalize("  Use  curly\tmarks — in citations!  "))
	assert.Equal(t, "", Normalize("—!?"))
	// punctuation keeps its token boundary
	assert.Equal(t, "rule 1 1", Normalize("Rule 1.1"))
	assert.NotEqual(t, Normalize("rule 11"), Normalize("rule 1.1"))
}

func TestValidate_RejectsQuoteCrossingTokenBoundary(t *testing.T) {
	rules := []model.Rule{
		{
			ID:     "1.1",
			Source: model.SourceHouse,
			Title:  "Numbering",
			Text:   "Subdivision numbering follows rule 1.1 of the house style.",
		},
	}

	// "rule 11" must not ground against text that only says "rule 1.1"
	accepted, issues := Validate(respWith(model.CitationError{
		ErrorType:     "numbering",
		CitedRuleID:   "1.1",
		RuleTextQuote: "rule 11",
	}), rules)

	assert.False(t, accepted)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Reason, "not found")
}
