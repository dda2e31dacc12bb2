// Package pipeline wires the corpus, retriever, reasoning provider, and
// orchestrator into the end-to-end citation check.
package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"time"

	"github.com/ruleproof/ruleproof/internal/cache"
	"github.com/ruleproof/ruleproof/internal/corpus"
	"github.com/ruleproof/ruleproof/internal/ingest"
	"github.com/ruleproof/ruleproof/internal/model"
	"github.com/ruleproof/ruleproof/internal/orchestrate"
	"github.com/ruleproof/ruleproof/internal/reason"
	"github.com/ruleproof/ruleproof/internal/report"
	"github.com/ruleproof/ruleproof/internal/resilience"
	"github.com/ruleproof/ruleproof/internal/retrieve"
	"github.com/ruleproof/ruleproof/internal/segment"
)

// Pipeline orchestrates the complete check process.
type Pipeline struct {
	corpus       *corpus.Corpus
	retriever    *retrieve.Retriever
	provider     reason.Provider
	orchestrator *orchestrate.Orchestrator
	renderer     *report.Renderer
	config       *model.Config
}

// NewPipeline creates a pipeline from configuration. A malformed corpus is
// fatal here, before any document is touched.
func NewPipeline(cfg *model.Config) (*Pipeline, error) {
	c, err := corpus.Load(cfg.CorpusPath)
	if err != nil {
		return nil, err
	}

	provider, err := reason.NewProvider(reason.ConfigFromModel(cfg.Reviewer))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize reviewer: %w", err)
	}
	if cfg.Cache.Enabled {
		provider = reason.NewCachedProvider(provider, newStore(cfg.Cache), cfg.Cache.TTL)
	}

	retriever := retrieve.New(c, cfg.Retrieval.TopK)
	caller := resilience.NewCaller(cfg.Resilience)
	orchestrator := orchestrate.New(retriever, provider, caller, cfg.Concurrency)
	orchestrator.SetVerbose(cfg.Output.Verbose)

	return &Pipeline{
		corpus:       c,
		retriever:    retriever,
		provider:     provider,
		orchestrator: orchestrator,
		renderer:     report.NewRenderer(cfg.Output.IncludeFooter),
		config:       cfg,
	}, nil
}

func newStore(cfg model.CacheConfig) cache.Cache {
	if cfg.Dir != "" {
		return cache.NewLayeredCache(cfg.TTL, cfg.Dir, cfg.TTL)
	}
	return cache.NewMemoryCache(cfg.TTL, 10*time.Minute)
}

// Corpus exposes the loaded corpus for subcommands that inspect it.
func (p *Pipeline) Corpus() *corpus.Corpus {
	return p.corpus
}

// ProviderAvailable probes the configured reasoning service.
func (p *Pipeline) ProviderAvailable(ctx context.Context) bool {
	return p.provider.IsAvailable(ctx)
}

// SegmentFile reads footnotes from a document and segments them into
// citations.
func (p *Pipeline) SegmentFile(path string) ([]model.Citation, error) {
	notes, err := ingest.FromFile(path)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, fmt.Errorf("no footnotes found in %s", path)
	}

	var citations []model.Citation
	for _, note := range notes {
		citations = append(citations, segment.Segment(note.Text, note.Num)...)
	}
	if p.config.Output.Verbose {
		fmt.Fprintf(os.Stderr, "%s: %d footnotes, %d citations\n", path, len(notes), len(citations))
	}
	return citations, nil
}

// CheckFile reads footnotes from a document, segments them into citations,
// and validates every citation.
func (p *Pipeline) CheckFile(ctx context.Context, path string) (*model.CheckReport, error) {
	citations, err := p.SegmentFile(path)
	if err != nil {
		return nil, err
	}
	rep := p.CheckCitations(ctx, citations)
	rep.SourcePath = path
	return rep, nil
}

// CheckFootnote validates the citations of a single raw footnote.
func (p *Pipeline) CheckFootnote(ctx context.Context, text string, footnoteNum int) *model.CheckReport {
	return p.CheckCitations(ctx, segment.Segment(text, footnoteNum))
}

// CheckCitations runs the validation state machine over the citations and
// assembles the report. Result order follows citation order.
func (p *Pipeline) CheckCitations(ctx context.Context, citations []model.Citation) *model.CheckReport {
	rep := &model.CheckReport{
		WorkflowID:    p.workflowID(citations),
		CorpusVersion: p.corpus.Version(),
		CheckedAt:     time.Now().UTC(),
		Results:       p.orchestrator.Run(ctx, citations),
	}
	rep.CountStatuses()
	return rep
}

// EnableCheckpoint loads (or starts) a checkpoint for the given citations
// so an interrupted run can resume. Returns the workflow id it is bound to.
func (p *Pipeline) EnableCheckpoint(path string, citations []model.Citation) (string, error) {
	id := p.workflowID(citations)
	cp, err := orchestrate.LoadCheckpoint(path, id)
	if err != nil {
		return "", err
	}
	p.orchestrator.SetCheckpoint(cp)
	return id, nil
}

// RenderReport renders the report to the requested outputs plus a stdout
// summary.
func (p *Pipeline) RenderReport(rep *model.CheckReport, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(rep, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(rep, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(rep)
	return nil
}

// workflowID is stable across runs for the same citations and corpus, so a
// checkpoint from an interrupted run matches its resume.
func (p *Pipeline) workflowID(citations []model.Citation) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x1f", p.corpus.Version())
	for _, c := range citations {
		fmt.Fprintf(h, "%s\x1f%s\x1f", c.Ref(), c.FullText)
	}
	return fmt.Sprintf("wf-%x", h.Sum(nil)[:6])
}
