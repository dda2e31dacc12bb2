package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ruleproof/ruleproof/internal/model"
	"github.com/ruleproof/ruleproof/internal/pipeline"
)

var (
	corpusPath      string
	outJSON         string
	outMD           string
	noFooter        bool
	noCache         bool
	cacheDir        string
	reviewerName    string
	reviewerModel   string
	reviewerTimeout int
	topK            int
	workers         int
	maxRetries      int
	rps             float64
	checkTimeout    time.Duration
	probe           bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Check the citations in one document",
	Long: `Check reads footnotes from a document (plain text or HTML), segments
them into citations, and validates each citation:
- Deterministic prechecks (quotation marks, connector spacing, parentheticals)
- Rule retrieval from the corpus, house rules ahead of the manual
- A reasoning-service review, gated on verbatim rule quotes
- Fail-closed routing: unverifiable citations go to manual review

Example:
  ruleproof check brief.txt --corpus rules.yaml
  ruleproof check brief.html --corpus rules.yaml --json report.json --md report.md
  ruleproof check --probe --corpus rules.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&corpusPath, "corpus", "", "rule corpus YAML path (or RULEPROOF_CORPUS)")
	checkCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	checkCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	checkCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	checkCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the reviewer response cache")
	checkCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "persist cached reviewer responses to this directory")
	checkCmd.Flags().StringVar(&reviewerName, "reviewer", "openai", "reasoning service (openai, anthropic, ollama)")
	checkCmd.Flags().StringVar(&reviewerModel, "model", "", "reasoning model name")
	checkCmd.Flags().IntVar(&reviewerTimeout, "reviewer-timeout", 30, "per-request reviewer timeout in seconds")
	checkCmd.Flags().IntVar(&topK, "top-k", 5, "rules retrieved per namespace")
	checkCmd.Flags().IntVar(&workers, "workers", 4, "concurrent citation workers")
	checkCmd.Flags().IntVar(&maxRetries, "max-retries", 2, "strict re-reviews after a rejected response")
	checkCmd.Flags().Float64Var(&rps, "rps", 2, "reviewer requests per second, shared across workers")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 10*time.Minute, "overall check timeout")
	checkCmd.Flags().BoolVar(&probe, "probe", false, "only verify the reviewer is reachable, then exit")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	if probe {
		if !p.ProviderAvailable(ctx) {
			return fmt.Errorf("reviewer %s is not reachable", cfg.Reviewer.Provider)
		}
		fmt.Printf("✓ reviewer %s is reachable\n", cfg.Reviewer.Provider)
		return nil
	}

	if len(args) != 1 {
		return fmt.Errorf("a document path is required (or use --probe)")
	}

	rep, err := p.CheckFile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if err := p.RenderReport(rep, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}

// buildConfig assembles runtime configuration from defaults, the config
// file / environment (via viper), and flags.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	cfg.CorpusPath = corpusPath
	if cfg.CorpusPath == "" {
		cfg.CorpusPath = viper.GetString("corpus")
	}
	if cfg.CorpusPath == "" {
		return nil, fmt.Errorf("a rule corpus is required (--corpus or RULEPROOF_CORPUS)")
	}

	cfg.Reviewer.Provider = reviewerName
	cfg.Reviewer.Model = reviewerModel
	cfg.Reviewer.Timeout = reviewerTimeout
	cfg.Retrieval.TopK = topK
	cfg.Concurrency.Workers = workers
	cfg.Concurrency.MaxRetries = maxRetries
	cfg.Resilience.RequestsPerSecond = rps
	cfg.Cache.Enabled = !noCache
	cfg.Cache.Dir = cacheDir
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter

	// API keys come from the environment only
	switch cfg.Reviewer.Provider {
	case "openai":
		cfg.Reviewer.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.Reviewer.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.Reviewer.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.Reviewer.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.Reviewer.BaseURL = baseURL
		}
	}

	return cfg, nil
}
