// Package report renders check reports as JSON, Markdown, and a terminal
// summary.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ruleproof/ruleproof/internal/model"
)

// Renderer writes reports to files and the terminal.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer.
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the full report as indented JSON.
func (r *Renderer) RenderJSON(report *model.CheckReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// RenderMarkdown writes a human-readable report.
func (r *Renderer) RenderMarkdown(report *model.CheckReport, path string) error {
	if err := os.WriteFile(path, []byte(r.Markdown(report)), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Markdown renders the report body.
func (r *Renderer) Markdown(report *model.CheckReport) string {
	var b strings.Builder

	b.WriteString("# Citation Check Report\n\n")
	if report.SourcePath != "" {
		fmt.Fprintf(&b, "**Source:** %s\n\n", report.SourcePath)
	}
	fmt.Fprintf(&b, "**Workflow:** %s\n", report.WorkflowID)
	if report.CorpusVersion != "" {
		fmt.Fprintf(&b, "**Corpus version:** %s\n", report.CorpusVersion)
	}
	fmt.Fprintf(&b, "**Checked:** %s\n\n", report.CheckedAt.Format("2006-01-02 15:04:05 MST"))

	fmt.Fprintf(&b, "**%d citations** — %d accepted, %d for manual review\n\n",
		report.Counts.Total, report.Counts.Accepted, report.Counts.ManualReview)

	for _, result := range report.Results {
		b.WriteString("---\n\n")
		fmt.Fprintf(&b, "## %s (%s)\n\n", result.Citation.Ref(), result.Citation.Kind)
		fmt.Fprintf(&b, "> %s\n\n", result.Citation.FullText)
		fmt.Fprintf(&b, "**Status:** %s", result.Status)
		if result.Status == model.StatusAccepted {
			if result.IsCorrect {
				b.WriteString(" — correct")
			} else {
				b.WriteString(" — issues found")
			}
		}
		b.WriteString("\n\n")

		for _, e := range result.Errors {
			fmt.Fprintf(&b, "- **%s**: %s", e.ErrorType, e.Description)
			if e.Correct != "" {
				fmt.Fprintf(&b, " (should be: %s)", e.Correct)
			}
			if e.CitedRuleID != "" {
				fmt.Fprintf(&b, "\n  - rule %s: %q", e.CitedRuleID, e.RuleTextQuote)
			}
			b.WriteString("\n")
		}
		if len(result.Errors) > 0 {
			b.WriteString("\n")
		}

		if result.CorrectedVersion != "" {
			fmt.Fprintf(&b, "**Corrected:** %s\n\n", result.CorrectedVersion)
		}
		if result.EvidenceValidationFailed {
			b.WriteString("⚠ Evidence validation failed; the service's claims could not be grounded.\n\n")
		}
		if result.Notes != "" {
			fmt.Fprintf(&b, "*%s*\n\n", result.Notes)
		}
	}

	if r.includeFooter {
		b.WriteString("---\n\n*Generated by ruleproof. ACCEPTED verdicts passed the evidence gate; everything else needs human eyes.*\n")
	}

	return b.String()
}

// RenderSummary prints a one-screen summary to stdout.
func (r *Renderer) RenderSummary(report *model.CheckReport) {
	fmt.Printf("\nChecked %d citations (corpus %s)\n", report.Counts.Total, report.CorpusVersion)
	fmt.Printf("  ✓ accepted:      %d\n", report.Counts.Accepted)
	fmt.Printf("  ✗ manual review: %d\n", report.Counts.ManualReview)

	for _, result := range report.Results {
		if result.Status == model.StatusManualReview {
			fmt.Printf("    %s: %s\n", result.Citation.Ref(), firstLine(result.Notes))
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
