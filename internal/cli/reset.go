package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all memories, preferences and patterns",
		Run:   runReset,
	}

	cmd.Flags().Bool("yes", false, "Confirm the wipe")

	RootCmd.AddCommand(cmd)
}

func runReset(cmd *cobra.Command, args []string) {
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		exitErr("reset", errors.New("refusing to wipe the store without --yes"))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.Reset(cmd.Context()); err != nil {
		exitErr("reset", err)
	}
	fmt.Println(`{"ok":true}`)
}
