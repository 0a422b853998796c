package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "learn <id>",
		Short: "Mark a recorded action as a success or failure",
		Long:  "Mark a recorded action as a success (default) or, with --fail, a failure. Failures also store an error memory.",
		Args:  cobra.ExactArgs(1),
		Run:   runLearn,
	}

	cmd.Flags().Bool("fail", false, "Record a failure instead of a success")
	cmd.Flags().StringP("message", "m", "", "Error message for failures")

	RootCmd.AddCommand(cmd)
}

func runLearn(cmd *cobra.Command, args []string) {
	id := parseID(args[0])
	fail, _ := cmd.Flags().GetBool("fail")
	msg, _ := cmd.Flags().GetString("message")

	a, closeFn := openAgent()
	defer closeFn()

	if !fail {
		if err := a.LearnFromSuccess(cmd.Context(), id); err != nil {
			exitErr("learn", err)
		}
		fmt.Printf(`{"ok":true,"id":%d,"learned":"success"}`+"\n", id)
		return
	}

	errID, err := a.LearnFromFailure(cmd.Context(), id, msg)
	if err != nil {
		exitErr("learn", err)
	}
	fmt.Printf(`{"ok":true,"id":%d,"learned":"failure","error_id":%d}`+"\n", id, errID)
}
