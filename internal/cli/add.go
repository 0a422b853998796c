package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/browser-memory/internal/model"
	"github.com/rcliao/browser-memory/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store a memory record",
		Long:  "Store a memory record. The record also updates the learned pattern for its context and action.",
		Run:   runAdd,
	}

	cmd.Flags().StringP("type", "t", model.TypeInteraction, "Memory type: interaction, error, success, preference, learned_behavior")
	cmd.Flags().String("context", "", "Context, usually a URL")
	cmd.Flags().StringP("action", "a", "", "Action taken")
	cmd.Flags().StringP("result", "r", "", "Observed result")
	cmd.Flags().String("feedback", "", "Feedback: positive, negative, neutral")
	cmd.Flags().Float64P("importance", "i", model.DefaultImportance, "Importance")
	cmd.Flags().String("tags", "", "Comma-separated tags")
	cmd.Flags().String("meta", "", "JSON object of metadata")
	cmd.Flags().Float64("timestamp", 0, "Seconds since epoch (default: now)")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	memType, _ := cmd.Flags().GetString("type")
	where, _ := cmd.Flags().GetString("context")
	action, _ := cmd.Flags().GetString("action")
	result, _ := cmd.Flags().GetString("result")
	feedback, _ := cmd.Flags().GetString("feedback")
	importance, _ := cmd.Flags().GetFloat64("importance")
	tagsStr, _ := cmd.Flags().GetString("tags")
	metaStr, _ := cmd.Flags().GetString("meta")
	ts, _ := cmd.Flags().GetFloat64("timestamp")

	p := store.InsertParams{
		MemoryType: memType,
		Context:    where,
		Action:     action,
		Result:     result,
		Importance: &importance,
		Tags:       splitTags(tagsStr),
	}
	if cmd.Flags().Changed("timestamp") {
		p.Timestamp = &ts
	}
	if feedback != "" {
		p.Feedback = parseFeedback(feedback)
	}
	if metaStr != "" {
		if err := json.Unmarshal([]byte(metaStr), &p.Metadata); err != nil {
			exitErr("parse meta", err)
		}
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	id, err := s.Insert(cmd.Context(), p)
	if err != nil {
		exitErr("add", err)
	}
	fmt.Printf(`{"id":%d}`+"\n", id)
}
