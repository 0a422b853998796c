package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rcliao/browser-memory/internal/model"
)

// Export returns every record and preference together with current statistics.
func (s *SQLiteStore) Export(ctx context.Context) (*model.Export, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := s.allRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("export memories: %w", err)
	}
	prefs, err := s.preferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("export preferences: %w", err)
	}
	stats, err := s.stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("export stats: %w", err)
	}

	return &model.Export{
		ExportTimestamp: s.now(),
		TotalMemories:   len(records),
		Memories:        records,
		Preferences:     prefs,
		Statistics:      stats,
	}, nil
}

// WriteExport writes the export document to w as indented JSON.
func (s *SQLiteStore) WriteExport(ctx context.Context, w io.Writer) error {
	doc, err := s.Export(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

// Import loads an export document. Records get new IDs but keep their
// timestamps verbatim, along with feedback, importance, tags and metadata;
// patterns are rebuilt by applying each record in order. Preferences replace
// existing keys; a preference without a confidence gets DefaultConfidence
// when the document is decoded.
func (s *SQLiteStore) Import(ctx context.Context, doc *model.Export) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var touched []model.Pattern
	for i := range doc.Memories {
		rec := doc.Memories[i]
		p, err := s.insertRecord(ctx, tx, &rec)
		if err != nil {
			return 0, err
		}
		touched = append(touched, p)
	}

	for key, p := range doc.Preferences {
		value := string(p.Value)
		if len(p.Value) == 0 || !json.Valid(p.Value) {
			value = "null"
		}
		updated := p.UpdatedAt
		if updated == 0 {
			updated = s.now()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO preferences (key, value, confidence, updated_at) VALUES (?, ?, ?, ?)`,
			key, value, p.Confidence, updated)
		if err != nil {
			return 0, fmt.Errorf("import preference %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	for _, p := range touched {
		s.index.put(s.index.current(), p)
	}
	s.log.Info("import", "memories", len(doc.Memories), "preferences", len(doc.Preferences))
	return len(doc.Memories), nil
}
