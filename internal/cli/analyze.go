package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Summarize recent behavior and learned patterns",
		Run:   runAnalyze,
	}

	RootCmd.AddCommand(cmd)
}

func runAnalyze(cmd *cobra.Command, args []string) {
	a, closeFn := openAgent()
	defer closeFn()

	b, err := a.AnalyzeBehavior(cmd.Context())
	if err != nil {
		exitErr("analyze", err)
	}
	printJSON(b)
}
