package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "suggest <context>",
		Short: "Suggest high-confidence actions for a context",
		Args:  cobra.ExactArgs(1),
		Run:   runSuggest,
	}

	RootCmd.AddCommand(cmd)
}

func runSuggest(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	sugg, err := s.Suggestions(cmd.Context(), args[0])
	if err != nil {
		exitErr("suggest", err)
	}
	printJSON(sugg)
}
