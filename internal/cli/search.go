package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/browser-memory/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search memories",
		Long:  "Search memories by substring of action, result or context. Matching is case-sensitive.",
		Run:   runSearch,
	}

	cmd.Flags().StringP("type", "t", "", "Filter by memory type")
	cmd.Flags().String("context", "", "Filter by context substring")
	cmd.Flags().String("tags", "", "Comma-separated tags; any must match")
	cmd.Flags().Float64("min-importance", 0, "Minimum importance")
	cmd.Flags().IntP("limit", "l", store.DefaultSearchLimit, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	memType, _ := cmd.Flags().GetString("type")
	where, _ := cmd.Flags().GetString("context")
	tagsStr, _ := cmd.Flags().GetString("tags")
	minImp, _ := cmd.Flags().GetFloat64("min-importance")
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	results, err := s.Search(cmd.Context(), store.SearchParams{
		Query:         strings.Join(args, " "),
		MemoryType:    memType,
		Context:       where,
		Tags:          splitTags(tagsStr),
		MinImportance: minImp,
		Limit:         limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	printRecords(results)
}
