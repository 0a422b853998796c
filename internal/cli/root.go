// Package cli implements the browser-memory CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/browser-memory/internal/config"
	"github.com/rcliao/browser-memory/internal/logger"
	"github.com/rcliao/browser-memory/internal/model"
	"github.com/rcliao/browser-memory/internal/store"
)

var (
	dbPath     string
	configPath string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "browser-memory",
	Short: "Learning memory for browser agents",
	Long:  "Records what a browser agent did, learns which actions work where, and recommends them. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $BROWSER_MEMORY_DB or ~/.browser-memory/memory.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFile, "YAML config file (optional)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

func loadConfig() *config.Config {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	return cfg
}

func openStore() (*store.SQLiteStore, error) {
	return openStoreWith(loadConfig())
}

func openStoreWith(cfg *config.Config) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.Store.Path,
		store.WithLogger(logger.New(cfg.Logging)),
		store.WithIndexSize(cfg.Store.IndexSize),
	)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func printRecords(recs []model.Record) {
	if formatFlag != "text" {
		printJSON(recs)
		return
	}
	writeRecordsText(os.Stdout, recs)
}

func writeRecordsText(w io.Writer, recs []model.Record) {
	for _, r := range recs {
		line := fmt.Sprintf("#%d [%s] %.1f %s | %s", r.ID, r.MemoryType, r.Importance, r.Context, r.Action)
		if r.Result != "" {
			line += " -> " + r.Result
		}
		if r.UserFeedback != "" {
			line += " (" + string(r.UserFeedback) + ")"
		}
		fmt.Fprintln(w, line)
	}
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func parseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		exitErr("parse id", fmt.Errorf("%q is not a memory id", s))
	}
	return id
}

func parseFeedback(s string) model.Feedback {
	f := model.Feedback(s)
	if !model.ValidFeedback[f] {
		exitErr("feedback", fmt.Errorf("%q must be positive, negative or neutral", s))
	}
	return f
}
