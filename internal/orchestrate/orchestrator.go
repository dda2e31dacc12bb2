package orchestrate

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ruleproof/ruleproof/internal/evidence"
	"github.com/ruleproof/ruleproof/internal/model"
	"github.com/ruleproof/ruleproof/internal/precheck"
	"github.com/ruleproof/ruleproof/internal/reason"
	"github.com/ruleproof/ruleproof/internal/resilience"
	"github.com/ruleproof/ruleproof/internal/retrieve"
)

// Orchestrator runs each citation through the validation state machine:
// PENDING → RULES_RETRIEVED → SERVICE_CALLED → EVIDENCE_CHECKED →
// {ACCEPTED | RETRY | MANUAL_REVIEW}. The policy is fail-closed: absent
// explicit, checked evidence a citation is never marked correct.
type Orchestrator struct {
	retriever  *retrieve.Retriever
	provider   reason.Provider
	caller     *resilience.Caller
	workers    int
	maxRetries int // strict re-invocations after a rejected response
	checkpoint *Checkpoint
	verbose    bool
}

// New creates an orchestrator. The caller is shared across workers so the
// reasoning-service quota is respected globally.
func New(retriever *retrieve.Retriever, provider reason.Provider, caller *resilience.Caller, cfg model.ConcurrencyConfig) *Orchestrator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Orchestrator{
		retriever:  retriever,
		provider:   provider,
		caller:     caller,
		workers:    workers,
		maxRetries: maxRetries,
	}
}

// SetVerbose enables progress logging to stderr.
func (o *Orchestrator) SetVerbose(v bool) { o.verbose = v }

// SetCheckpoint attaches a checkpoint for resumable batch runs.
func (o *Orchestrator) SetCheckpoint(cp *Checkpoint) { o.checkpoint = cp }

// Run validates all citations on a bounded worker pool. Results preserve
// the original (footnote_num, citation_num) order regardless of completion
// order. When a checkpoint is attached, citations it already recorded as
// ACCEPTED are skipped; everything else is reprocessed from PENDING.
func (o *Orchestrator) Run(ctx context.Context, citations []model.Citation) []model.ValidationResult {
	results := make([]model.ValidationResult, len(citations))

	workers := o.workers
	if workers > len(citations) {
		workers = len(citations)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				c := citations[i]
				if o.checkpoint != nil && o.checkpoint.Accepted(c.Ref()) {
					results[i] = skippedResult(c)
					continue
				}
				results[i] = o.ValidateOne(ctx, c)
				if o.checkpoint != nil {
					o.checkpoint.Record(c.Ref(), results[i].Status)
					if err := o.checkpoint.Flush(); err != nil {
						o.logf("checkpoint write failed: %v", err)
					}
				}
			}
		}()
	}

	for i := range citations {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// ValidateOne drives a single citation through the state machine. The
// deterministic prechecks run alongside retrieval and their findings are
// merged into the final result regardless of the service outcome.
func (o *Orchestrator) ValidateOne(ctx context.Context, c model.Citation) model.ValidationResult {
	result := model.ValidationResult{
		Citation: c,
		Status:   model.StatusPending,
	}

	findingsCh := make(chan []model.CitationError, 1)
	go func() {
		findingsCh <- precheck.Run(c)
	}()

	matches, coverage := o.retriever.Retrieve(c.FullText)
	shortlist := o.retriever.Shortlist(matches)
	findings := <-findingsCh

	result.Coverage = coverage
	result.Errors = findings
	result.Status = model.StatusRulesRetrieved
	o.logf("%s: retrieved %d rules (house %d/%d, manual %d/%d)", c.Ref(), len(shortlist),
		coverage.House.Matched, coverage.House.Scanned, coverage.Manual.Matched, coverage.Manual.Scanned)

	if ctx.Err() != nil {
		return manualReview(result, "run cancelled before the citation was validated")
	}

	if len(shortlist) == 0 {
		// broadened retrieval already ran inside Retrieve; nothing to show
		// the service means nothing it says could be grounded
		return manualReview(result, "no applicable rules retrieved")
	}

	var gateIssues []evidence.Issue

	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		req := reason.ReviewRequest{
			Citation: c,
			Rules:    shortlist,
			Strict:   attempt > 0,
		}

		var resp *model.ReviewResponse
		err := o.caller.Do(ctx, func(callCtx context.Context) error {
			var callErr error
			resp, callErr = o.provider.Review(callCtx, req)
			return callErr
		})
		result.Attempts++
		result.Status = model.StatusServiceCalled

		if err != nil {
			if ctx.Err() != nil {
				return manualReview(result, "run cancelled during the service call")
			}
			o.logf("%s: service call failed: %v", c.Ref(), err)
			return manualReview(result, fmt.Sprintf("reasoning service unavailable: %v", err))
		}

		accepted, issues := evidence.Validate(*resp, shortlist)
		result.Status = model.StatusEvidenceChecked

		if accepted {
			// the flag tracks the final, gated response
			result.EvidenceValidationFailed = false
			result.IsCorrect = resp.IsCorrect && len(findings) == 0
			result.Errors = append(findings, resp.Errors...)
			result.CorrectedVersion = resp.CorrectedVersion
			result.Notes = resp.Notes
			result.Status = model.StatusAccepted
			o.logf("%s: accepted (correct=%t, attempts=%d)", c.Ref(), result.IsCorrect, result.Attempts)
			return result
		}

		result.EvidenceValidationFailed = true
		gateIssues = issues
		result.Status = model.StatusRetry
		o.logf("%s: evidence check rejected response (attempt %d): %s", c.Ref(), attempt+1, joinIssues(issues))
	}

	return manualReview(result, "evidence validation failed after retries: "+joinIssues(gateIssues))
}

// manualReview finalizes a fail-closed terminal state. A citation in
// MANUAL_REVIEW is never treated as correct.
func manualReview(result model.ValidationResult, note string) model.ValidationResult {
	result.IsCorrect = false
	result.Status = model.StatusManualReview
	if result.Notes != "" {
		note = result.Notes + "; " + note
	}
	result.Notes = note
	return result
}

// skippedResult reports a citation the checkpoint already accepted. The
// checkpoint records status only, so no verdict is claimed here.
func skippedResult(c model.Citation) model.ValidationResult {
	return model.ValidationResult{
		Citation: c,
		Status:   model.StatusAccepted,
		Notes:    "accepted in a previous run (checkpoint)",
	}
}

func joinIssues(issues []evidence.Issue) string {
	if len(issues) == 0 {
		return "response rejected"
	}
	parts := make([]string, len(issues))
	for i, issue := range issues {
		parts[i] = issue.String()
	}
	return strings.Join(parts, "; ")
}

func (o *Orchestrator) logf(format string, args ...interface{}) {
	if o.verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
