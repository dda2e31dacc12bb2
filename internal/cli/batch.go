package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ruleproof/ruleproof/internal/pipeline"
)

var (
	outputDir      string
	batchTimeout   time.Duration
	useCheckpoints bool
	resume         bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <list-file>",
	Short: "Check multiple documents, resumably",
	Long: `Batch checks the documents listed in a file (one path per line).
Each document gets its own JSON and Markdown report in the output
directory.

With --checkpoint, the terminal status of every citation is recorded as
the run progresses; an interrupted run restarted with --resume skips
citations that were already accepted and reprocesses everything else.

Example:
  ruleproof batch briefs.txt --corpus rules.yaml
  ruleproof batch briefs.txt --corpus rules.yaml --checkpoint
  ruleproof batch briefs.txt --corpus rules.yaml --checkpoint --resume`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&corpusPath, "corpus", "", "rule corpus YAML path (or RULEPROOF_CORPUS)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./ruleproof-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", time.Hour, "total timeout for the batch")
	batchCmd.Flags().BoolVar(&useCheckpoints, "checkpoint", false, "record per-citation progress for resumability")
	batchCmd.Flags().BoolVar(&resume, "resume", false, "resume from an earlier checkpoint (implies --checkpoint)")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the reviewer response cache")
	batchCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "persist cached reviewer responses to this directory")
	batchCmd.Flags().StringVar(&reviewerName, "reviewer", "openai", "reasoning service (openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&reviewerModel, "model", "", "reasoning model name")
	batchCmd.Flags().IntVar(&reviewerTimeout, "reviewer-timeout", 30, "per-request reviewer timeout in seconds")
	batchCmd.Flags().IntVar(&topK, "top-k", 5, "rules retrieved per namespace")
	batchCmd.Flags().IntVar(&workers, "workers", 4, "concurrent citation workers")
	batchCmd.Flags().IntVar(&maxRetries, "max-retries", 2, "strict re-reviews after a rejected response")
	batchCmd.Flags().Float64Var(&rps, "rps", 2, "reviewer requests per second, shared across workers")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	if resume {
		useCheckpoints = true
	}

	docs, err := readDocList(args[0])
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no document paths in %s", args[0])
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "Checking %d documents with %d workers\n", len(docs), cfg.Concurrency.Workers)

	okCount := 0
	failCount := 0
	reviewCount := 0

	for _, doc := range docs {
		// each document gets a fresh pipeline so its checkpoint and
		// orchestrator state stay isolated
		p, err := pipeline.NewPipeline(cfg)
		if err != nil {
			return err
		}

		citations, err := p.SegmentFile(doc)
		if err != nil {
			failCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", doc, err)
			continue
		}

		slug := docSlug(doc)
		if useCheckpoints {
			cpPath := filepath.Join(outputDir, slug+".checkpoint.json")
			if !resume {
				_ = os.Remove(cpPath) // fresh run, discard old progress
			}
			if _, err := p.EnableCheckpoint(cpPath, citations); err != nil {
				failCount++
				fmt.Fprintf(os.Stderr, "✗ %s: %v\n", doc, err)
				continue
			}
		}

		rep := p.CheckCitations(ctx, citations)
		rep.SourcePath = doc

		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")
		if err := p.RenderReport(rep, jsonPath, mdPath, verbose); err != nil {
			failCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", doc, err)
			continue
		}

		okCount++
		reviewCount += rep.Counts.ManualReview
		fmt.Fprintf(os.Stderr, "✓ %s: %d/%d accepted\n", doc, rep.Counts.Accepted, rep.Counts.Total)

		if ctx.Err() != nil {
			fmt.Fprintf(os.Stderr, "batch timed out; checkpoints keep completed work\n")
			break
		}
	}

	fmt.Fprintf(os.Stderr, "\nDone: %d documents, %d failed, %d citations for manual review\n",
		okCount, failCount, reviewCount)
	fmt.Fprintf(os.Stderr, "Reports: %s\n", outputDir)
	return nil
}

func readDocList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var docs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		docs = append(docs, line)
	}
	return docs, scanner.Err()
}

// docSlug derives a filesystem-safe report name from a document path.
func docSlug(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	slug := b.String()
	if len(slug) > 100 {
		slug = slug[:100]
	}
	if slug == "" {
		slug = "document"
	}
	return slug
}
