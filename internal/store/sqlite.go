package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rcliao/browser-memory/internal/model"
)

// DefaultIndexSize is the number of patterns kept in the in-memory index.
const DefaultIndexSize = 100_000

// Option configures a SQLiteStore.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	indexSize int64
	clock     func() time.Time
}

// WithLogger sets the logger used for store events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithIndexSize bounds the number of patterns held in memory.
func WithIndexSize(n int64) Option {
	return func(o *options) { o.indexSize = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// SQLiteStore implements Store using SQLite.
// Writes are serialized and each runs in a single transaction.
type SQLiteStore struct {
	mu    sync.RWMutex
	db    *sql.DB
	index *patternIndex
	log   *slog.Logger
	clock func() time.Time
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	o := options{
		logger:    slog.New(slog.DiscardHandler),
		indexSize: DefaultIndexSize,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection: every statement sees the previous commit and
	// transactions never contend for the SQLite write lock.
	db.SetMaxOpenConns(1)

	index, err := newPatternIndex(o.indexSize)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("pattern index: %w", err)
	}

	s := &SQLiteStore{
		db:    db,
		index: index,
		log:   o.logger,
		clock: o.clock,
	}

	if err := s.migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	n, err := s.warmIndex(context.Background())
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("load patterns: %w", err)
	}
	s.log.Debug("store opened", "path", dbPath, "patterns", n)

	return s, nil
}

func (s *SQLiteStore) now() float64 {
	return model.Timestamp(s.clock())
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp     REAL NOT NULL,
		memory_type   TEXT NOT NULL,
		context       TEXT NOT NULL DEFAULT '',
		action        TEXT NOT NULL DEFAULT '',
		result        TEXT NOT NULL DEFAULT '',
		user_feedback TEXT,
		importance    REAL NOT NULL DEFAULT 1.0,
		tags          TEXT,
		metadata      TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_memories_timestamp ON memories(timestamp);
	CREATE INDEX IF NOT EXISTS idx_memories_type ON memories(memory_type);
	CREATE INDEX IF NOT EXISTS idx_memories_context ON memories(context);

	CREATE TABLE IF NOT EXISTS preferences (
		key        TEXT PRIMARY KEY,
		value      TEXT,
		confidence REAL NOT NULL DEFAULT 1.0,
		updated_at REAL
	);

	CREATE TABLE IF NOT EXISTS patterns (
		pattern_key  TEXT PRIMARY KEY,
		pattern_type TEXT,
		occurrences  INTEGER NOT NULL DEFAULT 1,
		success_rate REAL NOT NULL DEFAULT 0.5,
		last_seen    REAL,
		data         TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_patterns_rank ON patterns(success_rate DESC, occurrences DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Insert stores a record and updates its pattern in one transaction.
func (s *SQLiteStore) Insert(ctx context.Context, p InsertParams) (int64, error) {
	rec := model.Record{
		MemoryType:   p.MemoryType,
		Context:      p.Context,
		Action:       p.Action,
		Result:       p.Result,
		UserFeedback: p.Feedback,
		Importance:   model.DefaultImportance,
		Tags:         p.Tags,
		Metadata:     p.Metadata,
	}
	if p.Importance != nil {
		rec.Importance = *p.Importance
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec.Timestamp = s.now()
	if p.Timestamp != nil {
		rec.Timestamp = *p.Timestamp
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	pat, err := s.insertRecord(ctx, tx, &rec)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	s.index.put(s.index.current(), pat)

	return rec.ID, nil
}

// insertRecord writes rec, assigns its ID and applies it to its pattern.
func (s *SQLiteStore) insertRecord(ctx context.Context, tx *sql.Tx, rec *model.Record) (model.Pattern, error) {
	meta, err := encodeMetadata(rec.Metadata)
	if err != nil {
		return model.Pattern{}, fmt.Errorf("encode metadata: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO memories (timestamp, memory_type, context, action, result, user_feedback, importance, tags, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Timestamp, rec.MemoryType, rec.Context, rec.Action, rec.Result,
		nullFeedback(rec.UserFeedback), rec.Importance, encodeTags(rec.Tags), meta)
	if err != nil {
		return model.Pattern{}, fmt.Errorf("insert memory: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Pattern{}, fmt.Errorf("insert memory: %w", err)
	}
	rec.ID = id

	return s.applyPattern(ctx, tx, rec)
}

// Get returns the record with the given ID.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getRecord(ctx, s.db, id)
}

func getRecord(ctx context.Context, q querier, id int64) (*model.Record, error) {
	row := q.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM memories WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("memory %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateImportance overwrites the importance of a record.
func (s *SQLiteStore) UpdateImportance(ctx context.Context, id int64, importance float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `UPDATE memories SET importance = ? WHERE id = ?`, importance, id)
	return err
}

// AddFeedback records user feedback and re-applies the updated record to its
// pattern. The update, re-read and pattern write share one transaction.
func (s *SQLiteStore) AddFeedback(ctx context.Context, id int64, feedback model.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE memories SET user_feedback = ? WHERE id = ?`, nullFeedback(feedback), id)
	if err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	rec, err := getRecord(ctx, tx, id)
	if err != nil {
		return err
	}
	pat, err := s.applyPattern(ctx, tx, rec)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.index.put(s.index.current(), pat)
	return nil
}

func (s *SQLiteStore) Close() error {
	s.index.close()
	return s.db.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...interface{}) error
}

const recordColumns = `id, timestamp, memory_type, context, action, result, user_feedback, importance, tags, metadata`

func scanRecord(row scanner) (model.Record, error) {
	var r model.Record
	var feedback, tags, meta sql.NullString

	err := row.Scan(
		&r.ID, &r.Timestamp, &r.MemoryType, &r.Context, &r.Action, &r.Result,
		&feedback, &r.Importance, &tags, &meta,
	)
	if err != nil {
		return r, err
	}

	if feedback.Valid {
		r.UserFeedback = model.Feedback(feedback.String)
	}
	r.Tags = decodeTags(tags)
	r.Metadata = decodeMetadata(meta)

	return r, nil
}

func scanRecords(rows *sql.Rows) ([]model.Record, error) {
	records := []model.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func nullFeedback(f model.Feedback) sql.NullString {
	return sql.NullString{String: string(f), Valid: f != ""}
}

func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	b, _ := json.Marshal(tags)
	return string(b)
}

func encodeMetadata(m model.Metadata) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeTags and decodeMetadata fail closed: unreadable values become empty.
func decodeTags(s sql.NullString) []string {
	tags := []string{}
	if !s.Valid || s.String == "" {
		return tags
	}
	if err := json.Unmarshal([]byte(s.String), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}

func decodeMetadata(s sql.NullString) model.Metadata {
	m := model.Metadata{}
	if !s.Valid || s.String == "" {
		return m
	}
	if err := json.Unmarshal([]byte(s.String), &m); err != nil || m == nil {
		return model.Metadata{}
	}
	return m
}
