package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/browser-memory/internal/agent"
)

func init() {
	cmd := &cobra.Command{
		Use:   "navigate <url>",
		Short: "Record a page visit and show what was learned about it",
		Args:  cobra.ExactArgs(1),
		Run:   runNavigate,
	}

	RootCmd.AddCommand(cmd)
}

func runNavigate(cmd *cobra.Command, args []string) {
	a, closeFn := openAgent()
	defer closeFn()

	res, err := a.Navigate(cmd.Context(), args[0])
	if err != nil {
		exitErr("navigate", err)
	}
	printJSON(res)
}

// openAgent opens the store and wraps it in an agent named after the binary.
func openAgent() (*agent.Agent, func()) {
	cfg := loadConfig()
	s, err := openStoreWith(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	return agent.New(s, RootCmd.Name()), func() { s.Close() }
}
