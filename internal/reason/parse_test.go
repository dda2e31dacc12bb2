package reason

import (
	"testing"
)

const verdictJSON = `{
	"is_correct": false,
	"errors": [
		{
			"error_type": "quotation_mark_style",
			"description": "straight quotes used",
			"cited_rule_id": "1.1",
			"rule_text_quote": "Use curly quotation marks",
			"current": "\"",
			"correct": "“ ”",
			"confidence": 0.95
		}
	],
	"corrected_version": "Smith v. Jones, 123 U.S. 456 (2020)",
	"notes": "one issue found"
}`

func TestParseResponse_PlainJSON(t *testing.T) {
	resp, err := ParseResponse(verdictJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.IsCorrect {
		t.Error("expected is_correct=false")
	}
	if len(resp.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(resp.Errors))
	}
	if resp.Errors[0].CitedRuleID != "1.1" {
		t.Errorf("unexpected cited rule id: %s", resp.Errors[0].CitedRuleID)
	}
	if resp.Errors[0].Confidence != 0.95 {
		t.Errorf("unexpected confidence: %f", resp.Errors[0].Confidence)
	}
}

func TestParseResponse_MarkdownFenced(t *testing.T) {
	fenced := "```json\n" + verdictJSON + "\n```"
	resp, err := ParseResponse(fenced)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Errors) != 1 {
		t.Errorf("expected 1 error, got %d", len(resp.Errors))
	}
}

func TestParseResponse_LeadingProse(t *testing.T) {
	resp, err := ParseResponse("Here is my analysis:\n" + verdictJSON + "\nLet me know if you need more.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.IsCorrect {
		t.Error("expected is_correct=false")
	}
}

func TestParseResponse_NoJSON(t *testing.T) {
	if _, err := ParseResponse("the citation looks fine to me"); err == nil {
		t.Error("expected error for response without JSON")
	}
}

func TestParseResponse_MalformedJSON(t *testing.T) {
	if _, err := ParseResponse(`{"is_correct": `); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
