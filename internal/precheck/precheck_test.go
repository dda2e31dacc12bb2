package precheck

import (
	"testing"

	"github.com/ruleproof/ruleproof/internal/model"
)

func caseCitation(text string) model.Citation {
	return model.Citation{FootnoteNum: 1, CitationNum: 1, FullText: text, Kind: model.KindCase}
}

func findingTypes(findings []model.CitationError) map[string]bool {
	types := make(map[string]bool, len(findings))
	for _, f := range findings {
		types[f.ErrorType] = true
	}
	return types
}

func TestRun_StraightQuotesFlagged(t *testing.T) {
	findings := Run(caseCitation("Smith v. Jones, 123 U.S. 456 (\"the rule\")"))
	if !findingTypes(findings)["quotation_mark_style"] {
		t.Errorf("expected quotation_mark_style finding, got %v", findings)
	}
}

func TestRun_CurlyQuotesClean(t *testing.T) {
	findings := Run(caseCitation("Smith v. Jones, 123 U.S. 456 (“the rule”)"))
	if findingTypes(findings)["quotation_mark_style"] {
		t.Errorf("curly quotes should not be flagged, got %v", findings)
	}
}

func TestRun_BreakableConnectorFlagged(t *testing.T) {
	findings := Run(caseCitation("Smith v. Jones, 123 U.S. 456 (2020)"))
	if !findingTypes(findings)["case_connector_spacing"] {
		t.Errorf("expected case_connector_spacing finding, got %v", findings)
	}
}

func TestRun_NonBreakingConnectorClean(t *testing.T) {
	findings := Run(caseCitation("Smith v. Jones, 123 U.S. 456 (2020)"))
	if findingTypes(findings)["case_connector_spacing"] {
		t.Errorf("non-breaking connector should not be flagged, got %v", findings)
	}
}

func TestRun_ConnectorCheckOnlyForCases(t *testing.T) {
	c := model.Citation{FullText: "Something v. something in prose", Kind: model.KindUnclassified}
	if findingTypes(Run(c))["case_connector_spacing"] {
		t.Error("connector check must only apply to case citations")
	}
}

func TestRun_ParentheticalCapitalization(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"capitalized explanatory", "Smith v. Jones, 123 U.S. 456, 460 (Holding the statute invalid)", true},
		{"lowercase explanatory", "Smith v. Jones, 123 U.S. 456, 460 (holding the statute invalid)", false},
		{"year only", "Smith v. Jones, 123 U.S. 456 (2020)", false},
		{"court and year", "Doe v. Roe, 789 F.2d 12 (9th Cir. 1990)", false},
		{"direct quotation exception", "Smith v. Jones, 123 U.S. 456 (“The statute is invalid”)", false},
		{"id-led exception", "Smith v. Jones, 123 U.S. 456 (Id. controls here)", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findingTypes(Run(caseCitation(tt.text)))["parenthetical_capitalization"]
			if got != tt.want {
				t.Errorf("parenthetical_capitalization = %v, want %v (text %q)", got, tt.want, tt.text)
			}
		})
	}
}

func TestRun_CleanCitationHasNoFindings(t *testing.T) {
	findings := Run(caseCitation("Smith v. Jones, 123 U.S. 456, 460 (2020) (per curiam)"))
	if len(findings) != 0 {
		t.Errorf("expected no findings, got %v", findings)
	}
}
