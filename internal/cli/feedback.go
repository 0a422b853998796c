package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "feedback <id> <positive|negative|neutral>",
		Short: "Record feedback on a memory",
		Long:  "Record feedback on a memory and fold it into the learned pattern. Unknown ids are ignored.",
		Args:  cobra.ExactArgs(2),
		Run:   runFeedback,
	}

	RootCmd.AddCommand(cmd)
}

func runFeedback(cmd *cobra.Command, args []string) {
	id := parseID(args[0])
	feedback := parseFeedback(args[1])

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.AddFeedback(cmd.Context(), id, feedback); err != nil {
		exitErr("feedback", err)
	}
	fmt.Printf(`{"ok":true,"id":%d,"feedback":%q}`+"\n", id, feedback)
}
