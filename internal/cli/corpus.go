package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ruleproof/ruleproof/internal/corpus"
	"github.com/ruleproof/ruleproof/internal/model"
)

// corpusCmd groups corpus maintenance commands
var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Inspect and lint a rule corpus",
}

var corpusLintCmd = &cobra.Command{
	Use:   "lint <corpus.yaml>",
	Short: "Validate a rule corpus file",
	Long: `Lint loads the corpus with the same checks the pipeline applies at
startup: every rule needs an id, a title, and text, and ids must be
unique within their namespace. Exit status is non-zero for a corpus the
pipeline would refuse.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := corpus.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s is valid (version %s, %d house + %d manual rules)\n",
			args[0], c.Version(), c.Size(model.SourceHouse), c.Size(model.SourceManual))
		return nil
	},
}

var corpusStatsCmd = &cobra.Command{
	Use:   "stats <corpus.yaml>",
	Short: "Show corpus and index statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := corpus.Load(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Corpus version: %s\n", c.Version())
		fmt.Printf("House rules:    %d\n", c.Size(model.SourceHouse))
		fmt.Printf("Manual rules:   %d\n", c.Size(model.SourceManual))
		fmt.Printf("Index terms:    %d\n", c.Index().Terms())

		// the heaviest terms hint at rules that index too broadly
		type termCount struct {
			term  string
			count int
		}
		var heavy []termCount
		for _, term := range c.Index().TermList() {
			heavy = append(heavy, termCount{term, len(c.Index().Lookup(term))})
		}
		sort.Slice(heavy, func(i, j int) bool {
			if heavy[i].count != heavy[j].count {
				return heavy[i].count > heavy[j].count
			}
			return heavy[i].term < heavy[j].term
		})
		if len(heavy) > 10 {
			heavy = heavy[:10]
		}
		fmt.Println("\nMost common terms:")
		for _, tc := range heavy {
			fmt.Printf("  %-20s %d rules\n", tc.term, tc.count)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(corpusCmd)
	corpusCmd.AddCommand(corpusLintCmd)
	corpusCmd.AddCommand(corpusStatsCmd)
}
