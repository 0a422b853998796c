package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete old, unimportant memories",
		Long:  "Delete memories that are both older than --days and less important than --min-importance. Learned patterns are kept.",
		Run:   runCleanup,
	}

	cmd.Flags().Float64("days", 0, "Age in days (default from config: 90)")
	cmd.Flags().Float64("min-importance", 0, "Importance threshold (default from config: 3)")

	RootCmd.AddCommand(cmd)
}

func runCleanup(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	olderThan := cfg.Cleanup.OlderThan
	if cmd.Flags().Changed("days") {
		days, _ := cmd.Flags().GetFloat64("days")
		olderThan = time.Duration(days * float64(24*time.Hour))
	}
	minImp := cfg.Cleanup.MinImportance
	if cmd.Flags().Changed("min-importance") {
		minImp, _ = cmd.Flags().GetFloat64("min-importance")
	}

	s, err := openStoreWith(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	n, err := s.Cleanup(cmd.Context(), olderThan, minImp)
	if err != nil {
		exitErr("cleanup", err)
	}
	fmt.Printf(`{"ok":true,"deleted":%d}`+"\n", n)
}
