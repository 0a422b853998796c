package store

import (
	"context"
	"strings"

	"github.com/rcliao/browser-memory/internal/model"
)

// DefaultSearchLimit is used when SearchParams.Limit is not positive.
const DefaultSearchLimit = 50

// DefaultRecentCount is used when Recent is called with a non-positive count.
const DefaultRecentCount = 10

// Search finds records matching every given filter, ordered by importance
// then recency. Text filters are case-sensitive literal substrings.
//
// The tag filter runs after the SQL LIMIT, so a restrictive tag filter can
// return fewer than Limit records even when more exist.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]model.Record, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	where := []string{"importance >= ?"}
	args := []interface{}{p.MinImportance}

	if p.MemoryType != "" {
		where = append(where, "memory_type = ?")
		args = append(args, p.MemoryType)
	}
	if p.Context != "" {
		where = append(where, "instr(context, ?) > 0")
		args = append(args, p.Context)
	}
	if p.Query != "" {
		where = append(where, "(instr(action, ?) > 0 OR instr(result, ?) > 0 OR instr(context, ?) > 0)")
		args = append(args, p.Query, p.Query, p.Query)
	}

	query := `SELECT ` + recordColumns + ` FROM memories
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY importance DESC, timestamp DESC, id DESC
		LIMIT ?`
	args = append(args, limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(p.Tags) == 0 {
		return records, nil
	}

	filtered := records[:0]
	for _, r := range records {
		if r.HasTag(p.Tags...) {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// Recent returns the newest records, optionally restricted to one type.
func (s *SQLiteStore) Recent(ctx context.Context, count int, memoryType string) ([]model.Record, error) {
	if count <= 0 {
		count = DefaultRecentCount
	}

	query := `SELECT ` + recordColumns + ` FROM memories ORDER BY timestamp DESC, id DESC LIMIT ?`
	args := []interface{}{count}
	if memoryType != "" {
		query = `SELECT ` + recordColumns + ` FROM memories WHERE memory_type = ?
			ORDER BY timestamp DESC, id DESC LIMIT ?`
		args = []interface{}{memoryType, count}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// allRecords returns every record in ID order. Callers hold s.mu.
func (s *SQLiteStore) allRecords(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM memories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}
