package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rcliao/browser-memory/internal/model"
)

// SetPreference stores value under key, replacing any previous value.
func (s *SQLiteStore) SetPreference(ctx context.Context, key string, value any, confidence float64) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode preference %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO preferences (key, value, confidence, updated_at) VALUES (?, ?, ?, ?)`,
		key, string(b), confidence, s.now())
	return err
}

// GetPreference decodes the value stored under key into dst.
// It reports false, leaving dst untouched, when the key is not set.
func (s *SQLiteStore) GetPreference(ctx context.Context, key string, dst any) (bool, error) {
	p, err := s.Preference(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(p.Value, dst); err != nil {
		return false, fmt.Errorf("decode preference %q: %w", key, err)
	}
	return true, nil
}

// PreferenceOr returns the raw value stored under key, or def when it is not set.
func (s *SQLiteStore) PreferenceOr(ctx context.Context, key string, def json.RawMessage) (json.RawMessage, error) {
	p, err := s.Preference(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return nil, err
	}
	return p.Value, nil
}

// Preference returns the full preference row for key or ErrNotFound.
func (s *SQLiteStore) Preference(ctx context.Context, key string) (*model.Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT key, value, confidence, updated_at FROM preferences WHERE key = ?`, key)
	p, err := scanPreference(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("preference %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Preferences returns every preference keyed by name.
func (s *SQLiteStore) Preferences(ctx context.Context) (map[string]model.Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.preferences(ctx)
}

func (s *SQLiteStore) preferences(ctx context.Context) (map[string]model.Preference, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value, confidence, updated_at FROM preferences ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prefs := map[string]model.Preference{}
	for rows.Next() {
		p, err := scanPreference(rows)
		if err != nil {
			return nil, err
		}
		prefs[p.Key] = p
	}
	return prefs, rows.Err()
}

func scanPreference(row scanner) (model.Preference, error) {
	var p model.Preference
	var value sql.NullString
	var updated sql.NullFloat64

	if err := row.Scan(&p.Key, &value, &p.Confidence, &updated); err != nil {
		return p, err
	}
	p.UpdatedAt = updated.Float64
	p.Value = json.RawMessage("null")
	if value.Valid && json.Valid([]byte(value.String)) {
		p.Value = json.RawMessage(value.String)
	}
	return p, nil
}
