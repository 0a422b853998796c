package store

import (
	"context"

	"github.com/rcliao/browser-memory/internal/model"
	"github.com/rcliao/browser-memory/internal/pattern"
)

// Stats returns counts over records, patterns and preferences.
func (s *SQLiteStore) Stats(ctx context.Context) (*model.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stats(ctx)
}

func (s *SQLiteStore) stats(ctx context.Context) (*model.Stats, error) {
	st := &model.Stats{ByType: map[string]int{}}

	counts := []struct {
		dst   *int
		query string
		args  []interface{}
	}{
		{&st.TotalMemories, `SELECT COUNT(*) FROM memories`, nil},
		{&st.TotalPatterns, `SELECT COUNT(*) FROM patterns`, nil},
		{&st.SuccessfulPatterns, `SELECT COUNT(*) FROM patterns WHERE success_rate > ?`, []interface{}{pattern.SuccessfulThreshold}},
		{&st.TotalPreferences, `SELECT COUNT(*) FROM preferences`, nil},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dst); err != nil {
			return nil, err
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT memory_type, COUNT(*) FROM memories GROUP BY memory_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var memType string
		var n int
		if err := rows.Scan(&memType, &n); err != nil {
			return nil, err
		}
		st.ByType[memType] = n
	}
	return st, rows.Err()
}
