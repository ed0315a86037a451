package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	searchLimit        int
	searchMinRelevance float32
	searchContentTypes []string
)

// searchCmd runs a semantic search over an owner's memories.
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search an owner's memories",
	Long: `Search an owner's memories by semantic similarity.

Examples:
  # Search all memories
  recalld search --owner alice "what's my favorite color"

  # Restrict to facts above a relevance floor
  recalld search --owner alice --type fact --min-relevance 0.5 "travel plans"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum results (0 = configured default)")
	searchCmd.Flags().Float32Var(&searchMinRelevance, "min-relevance", -1, "minimum similarity score (-1 = configured default)")
	searchCmd.Flags().StringSliceVar(&searchContentTypes, "type", nil, "restrict to content types")
}

func runSearch(cmd *cobra.Command, args []string) error {
	env, err := openService()
	if err != nil {
		return err
	}
	defer env.close()

	query := strings.Join(args, " ")
	results, err := env.service.SearchMemories(cmd.Context(), ownerID, query, searchContentTypes, searchLimit, searchMinRelevance)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%.3f  [%s]  %s\n", r.Score, r.ContentType, r.Content)
	}
	return nil
}
