// Package store provides the memory storage interface and SQLite implementation.
package store

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rcliao/browser-memory/internal/model"
)

// ErrNotFound indicates the requested record, preference or pattern does not exist.
var ErrNotFound = errors.New("not found")

// InsertParams holds parameters for storing a memory record.
type InsertParams struct {
	Timestamp  *float64 // nil means now
	MemoryType string
	Context    string
	Action     string
	Result     string
	Feedback   model.Feedback
	Importance *float64 // nil means model.DefaultImportance
	Tags       []string
	Metadata   model.Metadata
}

// SearchParams holds parameters for searching records. Zero values disable a filter.
type SearchParams struct {
	Query         string // substring of action, result or context
	MemoryType    string
	Context       string // substring of context
	Tags          []string
	MinImportance float64
	Limit         int
}

// Store defines the operations the agent layer and outer surfaces rely on.
type Store interface {
	// Insert stores a record and folds it into its pattern. Returns the new ID.
	Insert(ctx context.Context, p InsertParams) (int64, error)

	// Get returns a single record or ErrNotFound.
	Get(ctx context.Context, id int64) (*model.Record, error)

	// Search returns records matching all filters, most important first.
	Search(ctx context.Context, p SearchParams) ([]model.Record, error)

	// Recent returns the newest records, optionally of one type.
	Recent(ctx context.Context, count int, memoryType string) ([]model.Record, error)

	// UpdateImportance overwrites a record's importance. Unknown IDs are ignored.
	UpdateImportance(ctx context.Context, id int64, importance float64) error

	// AddFeedback sets a record's feedback and re-applies it to its pattern.
	// Unknown IDs are ignored.
	AddFeedback(ctx context.Context, id int64, feedback model.Feedback) error

	SetPreference(ctx context.Context, key string, value any, confidence float64) error
	GetPreference(ctx context.Context, key string, dst any) (bool, error)
	Preference(ctx context.Context, key string) (*model.Preference, error)
	Preferences(ctx context.Context) (map[string]model.Preference, error)

	// Recommend scores actions for a context. A non-empty action asks about
	// that exact pair only.
	Recommend(ctx context.Context, where, action string) ([]model.Recommendation, error)
	Suggestions(ctx context.Context, where string) ([]model.Suggestion, error)

	Stats(ctx context.Context) (*model.Stats, error)

	// Cleanup deletes records older than olderThan with importance below minImportance.
	Cleanup(ctx context.Context, olderThan time.Duration, minImportance float64) (int64, error)

	Export(ctx context.Context) (*model.Export, error)
	WriteExport(ctx context.Context, w io.Writer) error

	// Close closes the store.
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
