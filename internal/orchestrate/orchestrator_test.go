package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ruleproof/ruleproof/internal/cache"
	"github.com/ruleproof/ruleproof/internal/corpus"
	"github.com/ruleproof/ruleproof/internal/model"
	"github.com/ruleproof/ruleproof/internal/reason"
	"github.com/ruleproof/ruleproof/internal/resilience"
	"github.com/ruleproof/ruleproof/internal/retrieve"
)

const testCorpus = `
version: "test"
house:
  - id: "1.1"
    title: Case citation form
    section: Cases
    text: Cite a case by party names, reporter volume, and year, for example Smith v. Jones, 123 U.S. 456 (2020).
    tags: [case]
manual:
  - id: "10.1"
    title: Reporter abbreviations
    section: Cases
    text: Reporter names follow the abbreviation table for the jurisdiction.
    tags: [reporter]
`

// scriptedProvider replays canned responses and records the strict flag of
// every request it sees.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []model.ReviewResponse
	errs      []error
	stricts   []bool
	calls     int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) IsAvailable(ctx context.Context) bool { return true }

func (p *scriptedProvider) Review(ctx context.Context, req reason.ReviewRequest) (*model.ReviewResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.calls
	p.calls++
	p.stricts = append(p.stricts, req.Strict)

	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	if i < len(p.responses) {
		resp := p.responses[i]
		return &resp, nil
	}
	// default past the script: a clean verdict
	return &model.ReviewResponse{IsCorrect: true}, nil
}

func testRetriever(t *testing.T) *retrieve.Retriever {
	t.Helper()
	c, err := corpus.Parse([]byte(testCorpus))
	if err != nil {
		t.Fatalf("failed to parse corpus: %v", err)
	}
	return retrieve.New(c, 5)
}

func testCaller() *resilience.Caller {
	return resilience.NewCaller(model.ResilienceConfig{
		RequestsPerSecond: 1000,
		Burst:             1000,
		BreakerThreshold:  100,
		BreakerCooldown:   time.Millisecond,
		CallTimeout:       time.Second,
		CallRetries:       1,
		BackoffBase:       time.Millisecond,
	})
}

func caseCitation() model.Citation {
	// NBSP before the v. connector and a year parenthetical: no precheck
	// findings on this one
	return model.Citation{
		FootnoteNum: 1,
		CitationNum: 1,
		FullText:    "Smith v. Jones, 123 U.S. 456 (2020)",
		Kind:        model.KindCase,
	}
}

func TestValidateOne_GroundedResponseAccepted(t *testing.T) {
	provider := &scriptedProvider{
		responses: []model.ReviewResponse{
			{
				IsCorrect: false,
				Errors: []model.CitationError{
					{
						ErrorType:     "reporter_form",
						Description:   "wrong reporter form",
						CitedRuleID:   "1.1",
						RuleTextQuote: "for example Smith v. Jones",
						Confidence:    0.9,
					},
				},
			},
		},
	}
	o := New(testRetriever(t), provider, testCaller(), model.ConcurrencyConfig{Workers: 1, MaxRetries: 2})

	result := o.ValidateOne(context.Background(), caseCitation())

	if result.Status != model.StatusAccepted {
		t.Fatalf("expected ACCEPTED, got %s (notes: %s)", result.Status, result.Notes)
	}
	if result.IsCorrect {
		t.Error("a response reporting errors must not yield a correct verdict")
	}
	if result.EvidenceValidationFailed {
		t.Error("grounded response must not be flagged")
	}
	if result.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", result.Attempts)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(result.Errors))
	}
	if result.Coverage.House.Scanned == 0 {
		t.Error("coverage must record the house namespace scan")
	}
}

func TestValidateOne_CleanVerdictIsCorrect(t *testing.T) {
	provider := &scriptedProvider{
		responses: []model.ReviewResponse{{IsCorrect: true}},
	}
	o := New(testRetriever(t), provider, testCaller(), model.ConcurrencyConfig{Workers: 1, MaxRetries: 2})

	result := o.ValidateOne(context.Background(), caseCitation())

	if result.Status != model.StatusAccepted {
		t.Fatalf("expected ACCEPTED, got %s", result.Status)
	}
	if !result.IsCorrect {
		t.Error("clean verdict with no precheck findings must be correct")
	}
}

func TestValidateOne_UnlistedRuleReachesManualReview(t *testing.T) {
	fabricated := model.ReviewResponse{
		IsCorrect: false,
		Errors: []model.CitationError{
			{
				ErrorType:     "made_up",
				Description:   "cites a rule it was never shown",
				CitedRuleID:   "99.9",
				RuleTextQuote: "anything",
			},
		},
	}
	provider := &scriptedProvider{
		responses: []model.ReviewResponse{fabricated, fabricated, fabricated},
	}
	o := New(testRetriever(t), provider, testCaller(), model.ConcurrencyConfig{Workers: 1, MaxRetries: 2})

	result := o.ValidateOne(context.Background(), caseCitation())

	if result.Status != model.StatusManualReview {
		t.Fatalf("expected MANUAL_REVIEW, got %s", result.Status)
	}
	if !result.EvidenceValidationFailed {
		t.Error("expected evidence_validation_failed")
	}
	if result.IsCorrect {
		t.Error("MANUAL_REVIEW must never be treated as correct")
	}
	if result.Attempts != 3 {
		t.Errorf("expected 3 attempts (initial + 2 retries), got %d", result.Attempts)
	}
	want := []bool{false, true, true}
	for i, strict := range provider.stricts {
		if strict != want[i] {
			t.Errorf("attempt %d: strict=%t, want %t", i+1, strict, want[i])
		}
	}
}

func TestValidateOne_StrictRetryRecovers(t *testing.T) {
	provider := &scriptedProvider{
		responses: []model.ReviewResponse{
			{
				IsCorrect: false,
				Errors: []model.CitationError{
					{ErrorType: "x", Description: "paraphrased", CitedRuleID: "1.1", RuleTextQuote: "rules say something else entirely"},
				},
			},
			{
				IsCorrect: false,
				Errors: []model.CitationError{
					{ErrorType: "x", Description: "verbatim now", CitedRuleID: "1.1", RuleTextQuote: "reporter volume, and year"},
				},
			},
		},
	}
	o := New(testRetriever(t), provider, testCaller(), model.ConcurrencyConfig{Workers: 1, MaxRetries: 2})

	result := o.ValidateOne(context.Background(), caseCitation())

	if result.Status != model.StatusAccepted {
		t.Fatalf("expected ACCEPTED after strict retry, got %s", result.Status)
	}
	if result.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", result.Attempts)
	}
	if result.EvidenceValidationFailed {
		t.Error("an accepted final response must clear the evidence flag")
	}
	if len(provider.stricts) != 2 || provider.stricts[0] || !provider.stricts[1] {
		t.Errorf("expected strict flags [false true], got %v", provider.stricts)
	}
}

func TestValidateOne_CachedProviderRetriesReachService(t *testing.T) {
	fabricated := model.ReviewResponse{
		IsCorrect: false,
		Errors: []model.CitationError{
			{
				ErrorType:     "made_up",
				Description:   "cites a rule it was never shown",
				CitedRuleID:   "99.9",
				RuleTextQuote: "anything",
			},
		},
	}
	inner := &scriptedProvider{
		responses: []model.ReviewResponse{fabricated, fabricated, fabricated},
	}
	cached := reason.NewCachedProvider(inner, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	o := New(testRetriever(t), cached, testCaller(), model.ConcurrencyConfig{Workers: 1, MaxRetries: 2})

	result := o.ValidateOne(context.Background(), caseCitation())

	if result.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", result.Attempts)
	}
	// every strict retry must reach the service instead of replaying the
	// rejected answer from the cache
	if inner.calls != 3 {
		t.Errorf("service invoked %d times for %d attempts", inner.calls, result.Attempts)
	}
	if result.Status != model.StatusManualReview {
		t.Errorf("expected MANUAL_REVIEW, got %s", result.Status)
	}
}

func TestValidateOne_PrecheckFindingsMerged(t *testing.T) {
	provider := &scriptedProvider{
		responses: []model.ReviewResponse{{IsCorrect: true}},
	}
	o := New(testRetriever(t), provider, testCaller(), model.ConcurrencyConfig{Workers: 1, MaxRetries: 2})

	c := caseCitation()
	c.FullText = `Smith v. Jones, 123 U.S. 456 (2020) ("a quote")`

	result := o.ValidateOne(context.Background(), c)

	if result.Status != model.StatusAccepted {
		t.Fatalf("expected ACCEPTED, got %s", result.Status)
	}
	if result.IsCorrect {
		t.Error("precheck findings must override a clean service verdict")
	}
	var types []string
	for _, e := range result.Errors {
		types = append(types, e.ErrorType)
	}
	if len(types) < 2 {
		t.Errorf("expected straight-quote and connector-spacing findings, got %v", types)
	}
}

func TestValidateOne_EmptyShortlist(t *testing.T) {
	provider := &scriptedProvider{}
	o := New(testRetriever(t), provider, testCaller(), model.ConcurrencyConfig{Workers: 1, MaxRetries: 2})

	c := caseCitation()
	c.FullText = "zzyzx qwfp xylophone treaty"

	result := o.ValidateOne(context.Background(), c)

	if result.Status != model.StatusManualReview {
		t.Fatalf("expected MANUAL_REVIEW for empty shortlist, got %s", result.Status)
	}
	if provider.calls != 0 {
		t.Errorf("service must not be called without rules to show it, got %d calls", provider.calls)
	}
	if !result.Coverage.Broadened {
		t.Error("empty first pass must trigger the broadened retry")
	}
}

func TestValidateOne_ServiceFailureFailsClosed(t *testing.T) {
	provider := &scriptedProvider{
		errs: []error{errors.New("boom")},
	}
	o := New(testRetriever(t), provider, testCaller(), model.ConcurrencyConfig{Workers: 1, MaxRetries: 2})

	result := o.ValidateOne(context.Background(), caseCitation())

	if result.Status != model.StatusManualReview {
		t.Fatalf("expected MANUAL_REVIEW on service failure, got %s", result.Status)
	}
	if result.IsCorrect {
		t.Error("a failed service call must never yield a correct verdict")
	}
}

func TestRun_PreservesOrder(t *testing.T) {
	provider := &scriptedProvider{}
	o := New(testRetriever(t), provider, testCaller(), model.ConcurrencyConfig{Workers: 4, MaxRetries: 0})

	var citations []model.Citation
	for fn := 1; fn <= 5; fn++ {
		for cn := 1; cn <= 3; cn++ {
			citations = append(citations, model.Citation{
				FootnoteNum: fn,
				CitationNum: cn,
				FullText:    fmt.Sprintf("Smith v. Jones, %d U.S. %d (2020)", fn, cn),
				Kind:        model.KindCase,
			})
		}
	}

	results := o.Run(context.Background(), citations)

	if len(results) != len(citations) {
		t.Fatalf("expected %d results, got %d", len(citations), len(results))
	}
	for i, r := range results {
		if r.Citation.Ref() != citations[i].Ref() {
			t.Errorf("position %d: got %s, want %s", i, r.Citation.Ref(), citations[i].Ref())
		}
		if !r.Status.Terminal() {
			t.Errorf("%s: non-terminal status %s", r.Citation.Ref(), r.Status)
		}
	}
}

func TestRun_CancelledNeverAccepts(t *testing.T) {
	provider := &scriptedProvider{}
	o := New(testRetriever(t), provider, testCaller(), model.ConcurrencyConfig{Workers: 2, MaxRetries: 0})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := o.Run(ctx, []model.Citation{caseCitation(), caseCitation()})

	for _, r := range results {
		if r.Status == model.StatusAccepted {
			t.Errorf("%s: cancelled run must not accept", r.Citation.Ref())
		}
		if r.Status != model.StatusManualReview {
			t.Errorf("%s: expected MANUAL_REVIEW, got %s", r.Citation.Ref(), r.Status)
		}
	}
}
