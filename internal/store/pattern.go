package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rcliao/browser-memory/internal/model"
	"github.com/rcliao/browser-memory/internal/pattern"
)

const patternColumns = `pattern_key, pattern_type, occurrences, success_rate, last_seen, data`

// applyPattern folds rec into the pattern for its (context, action) pair.
func (s *SQLiteStore) applyPattern(ctx context.Context, tx *sql.Tx, rec *model.Record) (model.Pattern, error) {
	key := pattern.KeyFor(rec.Context, rec.Action)
	sig := pattern.Classify(rec.MemoryType, rec.UserFeedback)

	prev, err := getPattern(ctx, tx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return model.Pattern{}, err
	}

	next := pattern.Observe(prev, rec, sig, s.now())
	if prev == nil {
		data, err := json.Marshal(next.Data)
		if err != nil {
			return model.Pattern{}, fmt.Errorf("encode pattern data: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO patterns (pattern_key, pattern_type, occurrences, success_rate, last_seen, data)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			next.Key, next.Type, next.Occurrences, next.SuccessRate, next.LastSeen, string(data))
		if err != nil {
			return model.Pattern{}, fmt.Errorf("insert pattern: %w", err)
		}
		s.log.Debug("pattern created", "key", key, "signal", sig.String(), "success_rate", next.SuccessRate)
		return next, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE patterns SET occurrences = ?, success_rate = ?, last_seen = ? WHERE pattern_key = ?`,
		next.Occurrences, next.SuccessRate, next.LastSeen, key)
	if err != nil {
		return model.Pattern{}, fmt.Errorf("update pattern: %w", err)
	}
	s.log.Debug("pattern updated", "key", key, "signal", sig.String(),
		"occurrences", next.Occurrences, "success_rate", next.SuccessRate)
	return next, nil
}

// Pattern returns the pattern for a (context, action) pair or ErrNotFound.
func (s *SQLiteStore) Pattern(ctx context.Context, where, action string) (*model.Pattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lookupPattern(ctx, pattern.KeyFor(where, action))
}

// lookupPattern serves key from the index, filling it from SQLite on a miss.
// Callers hold s.mu.
func (s *SQLiteStore) lookupPattern(ctx context.Context, key string) (*model.Pattern, error) {
	gen, err := s.indexGeneration(ctx)
	if err != nil {
		return nil, err
	}
	if p, ok := s.index.get(gen, key); ok {
		return &p, nil
	}
	p, err := getPattern(ctx, s.db, key)
	if err != nil {
		return nil, err
	}
	s.index.put(gen, *p)
	return p, nil
}

// indexGeneration returns the index generation that is valid for the
// database as this connection sees it now. Another process committing to the
// same file changes data_version and so retires every cached entry.
func (s *SQLiteStore) indexGeneration(ctx context.Context) (uint64, error) {
	var version int64
	if err := s.db.QueryRowContext(ctx, `PRAGMA data_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("data version: %w", err)
	}
	return s.index.observe(version), nil
}

func getPattern(ctx context.Context, q querier, key string) (*model.Pattern, error) {
	row := q.QueryRowContext(ctx, `SELECT `+patternColumns+` FROM patterns WHERE pattern_key = ?`, key)
	p, err := scanPattern(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pattern %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// warmIndex loads every stored pattern into the index.
func (s *SQLiteStore) warmIndex(ctx context.Context) (int, error) {
	gen, err := s.indexGeneration(ctx)
	if err != nil {
		return 0, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+patternColumns+` FROM patterns`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return n, err
		}
		s.index.load(gen, p)
		n++
	}
	if err := rows.Err(); err != nil {
		return n, err
	}
	s.index.wait()
	return n, nil
}

func scanPattern(row scanner) (model.Pattern, error) {
	var p model.Pattern
	var ptype, data sql.NullString
	var lastSeen sql.NullFloat64

	if err := row.Scan(&p.Key, &ptype, &p.Occurrences, &p.SuccessRate, &lastSeen, &data); err != nil {
		return p, err
	}
	p.Type = ptype.String
	p.LastSeen = lastSeen.Float64
	p.Data = decodePatternData(data)
	return p, nil
}

// decodePatternData fails closed to an empty snapshot.
func decodePatternData(s sql.NullString) model.PatternData {
	var d model.PatternData
	if !s.Valid || s.String == "" {
		return d
	}
	if err := json.Unmarshal([]byte(s.String), &d); err != nil {
		return model.PatternData{}
	}
	return d
}
