package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driving"
)

var (
	searchLimit  int
	searchDocID  string
	searchClause string
	searchJSON   bool
	statsJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed contract chunks",
	Long: `Embeds the query and returns the most similar indexed chunks.
Results can be narrowed to one document or one clause type.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var searchStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index size and composition",
	Args:  cobra.NoArgs,
	RunE:  runSearchStats,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().StringVar(&searchDocID, "doc", "", "restrict hits to one document")
	searchCmd.Flags().StringVar(&searchClause, "clause", "", "restrict hits to one clause type")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchStatsCmd.Flags().BoolVar(&statsJSON, "json", false, "output stats as JSON")

	searchCmd.AddCommand(searchStatsCmd)
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	hits, err := searchService.Search(context.Background(), driving.SearchRequest{
		Text:       args[0],
		DocID:      searchDocID,
		ClauseHint: searchClause,
		TopK:       searchLimit,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printJSON(cmd, hits)
	}
	return outputSearchTable(cmd, hits)
}

func outputSearchTable(cmd *cobra.Command, hits []domain.VectorHit) error {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range hits {
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, hits[i].ChunkID, hits[i].Score)
		cmd.Printf("      Document: %s, page %d", hits[i].DocID, hits[i].Page)
		if hits[i].ClauseHint != "" {
			cmd.Printf(", clause: %s", hits[i].ClauseHint)
		}
		cmd.Println()
		cmd.Printf("      %s\n", truncateText(hits[i].Text, 160))
		cmd.Println()
	}
	return nil
}

func runSearchStats(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	stats, err := searchService.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get index stats: %w", err)
	}

	if statsJSON {
		return printJSON(cmd, stats)
	}

	cmd.Println("Index:")
	cmd.Printf("  Chunks:    %d\n", stats.TotalChunks)
	cmd.Printf("  Documents: %d\n", stats.TotalDocuments)
	cmd.Printf("  Dimension: %d\n", stats.Dimension)
	if len(stats.ClauseCounts) > 0 {
		cmd.Println("  Clauses:")
		for _, hint := range sortedKeys(stats.ClauseCounts) {
			cmd.Printf("    %s: %d\n", hint, stats.ClauseCounts[hint])
		}
	}
	return nil
}

// truncateText shortens long chunk text for table output, rune-safe.
func truncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
