package store

import (
	"context"
	"time"
)

// Cleanup deletes records whose timestamp is older than now-olderThan and
// whose importance is below minImportance. Both conditions must hold.
// Patterns are left untouched.
func (s *SQLiteStore) Cleanup(ctx context.Context, olderThan time.Duration, minImportance float64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now() - olderThan.Seconds()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM memories WHERE timestamp < ? AND importance < ?`, cutoff, minImportance)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	s.log.Info("cleanup", "older_than", olderThan.String(), "min_importance", minImportance, "deleted", n)
	return n, nil
}

// Reset wipes every record, preference and pattern. Record IDs keep
// increasing from where they left off.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"memories", "preferences", "patterns"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.index.clear()
	s.log.Info("store reset")
	return nil
}
