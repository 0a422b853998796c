package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/browser-memory/internal/agent"
)

func init() {
	cmd := &cobra.Command{
		Use:   "act <action>",
		Short: "Record an action on a page",
		Long:  "Record an action on a page. Importance scales with how well the action worked before.",
		Args:  cobra.ExactArgs(1),
		Run:   runAct,
	}

	cmd.Flags().String("context", "", "Page the action happened on (required)")
	cmd.Flags().String("target", "", "Element or selector")
	cmd.Flags().String("value", "", "Value typed or chosen")

	cmd.MarkFlagRequired("context")

	RootCmd.AddCommand(cmd)
}

func runAct(cmd *cobra.Command, args []string) {
	where, _ := cmd.Flags().GetString("context")
	target, _ := cmd.Flags().GetString("target")
	value, _ := cmd.Flags().GetString("value")

	a, closeFn := openAgent()
	defer closeFn()

	res, err := a.PerformAction(cmd.Context(), agent.ActionParams{
		Action:  args[0],
		Target:  target,
		Value:   value,
		Context: where,
	})
	if err != nil {
		exitErr("act", err)
	}
	printJSON(res)
}
