package model

import "time"

// Status is the state of a citation in the validation state machine
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusRulesRetrieved  Status = "RULES_RETRIEVED"
	StatusServiceCalled   Status = "SERVICE_CALLED"
	StatusEvidenceChecked Status = "EVIDENCE_CHECKED"
	StatusAccepted        Status = "ACCEPTED"
	StatusRetry           Status = "RETRY"
	StatusManualReview    Status = "MANUAL_REVIEW"
)

// Terminal reports whether the status ends the state machine.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusManualReview
}

// CitationError is one claimed problem with a citation. Errors produced by
// the reasoning service must quote the rule they rely on; errors produced
// by deterministic prechecks carry an empty CitedRuleID.
type CitationError struct {
	ErrorType     string  `json:"error_type"`
	Description   string  `json:"description"`
	CitedRuleID   string  `json:"cited_rule_id,omitempty"`
	RuleTextQuote string  `json:"rule_text_quote,omitempty"`
	Current       string  `json:"current,omitempty"`
	Correct       string  `json:"correct,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
}

// ReviewResponse is the reasoning-service response shape. The pipeline
// depends only on this shape, not on any vendor API.
type ReviewResponse struct {
	IsCorrect        bool            `json:"is_correct"`
	Errors           []CitationError `json:"errors"`
	CorrectedVersion string          `json:"corrected_version,omitempty"`
	Notes            string          `json:"notes,omitempty"`
}

// NamespaceCoverage counts retrieval work inside one rule namespace.
type NamespaceCoverage struct {
	Scanned  int `json:"scanned"`
	Matched  int `json:"matched"`
	Returned int `json:"returned"`
}

// Coverage is the diagnostic accounting of a retrieval call. It lets the
// orchestrator and tests prove that "no applicable rule" claims are honest
// rather than an artifact of under-searching.
type Coverage struct {
	House       NamespaceCoverage `json:"house"`
	Manual      NamespaceCoverage `json:"manual"`
	SearchTerms []string          `json:"search_terms"`
	Broadened   bool              `json:"broadened,omitempty"` // second, broadened-term pass was needed
}

// ValidationResult is the terminal verdict for one citation.
// Invariant: EvidenceValidationFailed is true whenever any service error
// cited a rule outside the shortlist or quoted text not found in that rule;
// such a result never carries StatusAccepted.
type ValidationResult struct {
	Citation                 Citation        `json:"citation"`
	IsCorrect                bool            `json:"is_correct"`
	Errors                   []CitationError `json:"errors,omitempty"`
	Coverage                 Coverage        `json:"coverage"`
	EvidenceValidationFailed bool            `json:"evidence_validation_failed"`
	Status                   Status          `json:"status"`
	CorrectedVersion         string          `json:"corrected_version,omitempty"`
	Notes                    string          `json:"notes,omitempty"`
	Attempts                 int             `json:"attempts,omitempty"` // reasoning-service invocations spent
}

// CheckReport is the per-document aggregate consumed by renderers and by
// the external collaborators (PDF annotator, spreadsheet updater, Word
// editor). Results preserve original (footnote_num, citation_num) order.
type CheckReport struct {
	SourcePath    string             `json:"source_path,omitempty"`
	WorkflowID    string             `json:"workflow_id"`
	CorpusVersion string             `json:"corpus_version,omitempty"`
	CheckedAt     time.Time          `json:"checked_at"`
	Results       []ValidationResult `json:"results"`
	Counts        StatusCounts       `json:"counts"`
}

// StatusCounts summarizes terminal statuses across a report.
type StatusCounts struct {
	Total        int `json:"total"`
	Accepted     int `json:"accepted"`
	ManualReview int `json:"manual_review"`
}

// CountStatuses recomputes Counts from Results.
func (r *CheckReport) CountStatuses() {
	counts := StatusCounts{Total: len(r.Results)}
	for _, res := range r.Results {
		switch res.Status {
		case StatusAccepted:
			counts.Accepted++
		case StatusManualReview:
			counts.ManualReview++
		}
	}
	r.Counts = counts
}
