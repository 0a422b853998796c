package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "importance <id> <value>",
		Short: "Set a memory's importance",
		Args:  cobra.ExactArgs(2),
		Run:   runImportance,
	}

	RootCmd.AddCommand(cmd)
}

func runImportance(cmd *cobra.Command, args []string) {
	id := parseID(args[0])
	value, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		exitErr("parse importance", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.UpdateImportance(cmd.Context(), id, value); err != nil {
		exitErr("importance", err)
	}
	fmt.Printf(`{"ok":true,"id":%d,"importance":%g}`+"\n", id, value)
}
