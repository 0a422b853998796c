package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/browser-memory/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "pref",
		Short: "Manage preferences",
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a preference",
		Long:  "Set a preference. Values that parse as JSON are stored as such; anything else is stored as a string.",
		Args:  cobra.ExactArgs(2),
		Run:   runPrefSet,
	}
	setCmd.Flags().Float64("confidence", model.DefaultConfidence, "Confidence in the preference")

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a preference",
		Args:  cobra.ExactArgs(1),
		Run:   runPrefGet,
	}
	getCmd.Flags().String("default", "", "JSON value printed when the key is not set")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all preferences",
		Run:   runPrefList,
	}

	cmd.AddCommand(setCmd, getCmd, listCmd)
	RootCmd.AddCommand(cmd)
}

// prefValue treats raw as JSON when it parses and as a plain string otherwise.
func prefValue(raw string) json.RawMessage {
	if json.Valid([]byte(raw)) {
		return json.RawMessage(raw)
	}
	b, _ := json.Marshal(raw)
	return b
}

func runPrefSet(cmd *cobra.Command, args []string) {
	confidence, _ := cmd.Flags().GetFloat64("confidence")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.SetPreference(cmd.Context(), args[0], prefValue(args[1]), confidence); err != nil {
		exitErr("pref set", err)
	}
	fmt.Printf(`{"ok":true,"key":%q}`+"\n", args[0])
}

func runPrefGet(cmd *cobra.Command, args []string) {
	def, _ := cmd.Flags().GetString("default")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	var fallback json.RawMessage
	if def != "" {
		fallback = prefValue(def)
	} else {
		fallback = json.RawMessage("null")
	}
	v, err := s.PreferenceOr(cmd.Context(), args[0], fallback)
	if err != nil {
		exitErr("pref get", err)
	}
	fmt.Println(string(v))
}

func runPrefList(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	prefs, err := s.Preferences(cmd.Context())
	if err != nil {
		exitErr("pref list", err)
	}
	printJSON(prefs)
}
