package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recommend <context> [action]",
		Short: "Show learned recommendations",
		Long: `Show learned recommendations. With an action, report the pattern for that exact
context and action. Without one, list the best patterns mentioning the context.`,
		Args: cobra.RangeArgs(1, 2),
		Run:  runRecommend,
	}

	RootCmd.AddCommand(cmd)
}

func runRecommend(cmd *cobra.Command, args []string) {
	var action string
	if len(args) > 1 {
		action = args[1]
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	recs, err := s.Recommend(cmd.Context(), args[0], action)
	if err != nil {
		exitErr("recommend", err)
	}
	printJSON(recs)
}
