package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/browser-memory/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the newest memories",
		Run:   runRecent,
	}

	cmd.Flags().IntP("count", "n", store.DefaultRecentCount, "Number of memories")
	cmd.Flags().StringP("type", "t", "", "Filter by memory type")

	RootCmd.AddCommand(cmd)
}

func runRecent(cmd *cobra.Command, args []string) {
	count, _ := cmd.Flags().GetInt("count")
	memType, _ := cmd.Flags().GetString("type")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	recs, err := s.Recent(cmd.Context(), count, memType)
	if err != nil {
		exitErr("recent", err)
	}
	printRecords(recs)
}
