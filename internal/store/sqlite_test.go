package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rcliao/browser-memory/internal/model"
)

func newTestStore(t *testing.T, opts ...Option) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"), opts...)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func imp(v float64) *float64 { return &v }

func at(ts float64) *float64 { return &ts }

func TestInsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	meta := model.Metadata{}
	if err := meta.Set("status", 200); err != nil {
		t.Fatal(err)
	}
	id, err := s.Insert(ctx, InsertParams{
		MemoryType: model.TypeInteraction,
		Context:    "https://example.com",
		Action:     "navigate to https://example.com",
		Result:     "Successfully navigated",
		Importance: imp(3),
		Tags:       []string{"navigation", "url", "navigation"},
		Metadata:   meta,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Context != "https://example.com" || got.Action != "navigate to https://example.com" {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.Importance != 3 {
		t.Errorf("expected importance 3, got %v", got.Importance)
	}
	// Duplicates and order survive the round trip.
	if !reflect.DeepEqual(got.Tags, []string{"navigation", "url", "navigation"}) {
		t.Errorf("tags not preserved: %v", got.Tags)
	}
	var status int
	if ok, err := got.Metadata.Get("status", &status); !ok || err != nil || status != 200 {
		t.Errorf("metadata not preserved: ok=%v err=%v status=%d", ok, err, status)
	}
	if got.UserFeedback != "" {
		t.Errorf("expected no feedback, got %q", got.UserFeedback)
	}
}

func TestInsertDefaults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	before := model.Now()
	id, err := s.Insert(ctx, InsertParams{MemoryType: "custom-type"})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get(ctx, id)
	if got.Importance != model.DefaultImportance {
		t.Errorf("expected default importance, got %v", got.Importance)
	}
	if got.Timestamp < before {
		t.Errorf("expected timestamp >= %v, got %v", before, got.Timestamp)
	}
	if got.Tags == nil || got.Metadata == nil {
		t.Error("expected empty, non-nil tags and metadata")
	}
	if got.MemoryType != "custom-type" {
		t.Errorf("memory type not preserved: %q", got.MemoryType)
	}

	// Zero importance is a value, not an omission.
	id, _ = s.Insert(ctx, InsertParams{MemoryType: "x", Importance: imp(0)})
	got, _ = s.Get(ctx, id)
	if got.Importance != 0 {
		t.Errorf("expected importance 0, got %v", got.Importance)
	}
}

func TestInsertIDsStrictlyIncrease(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var last int64
	for i := 0; i < 20; i++ {
		id, err := s.Insert(ctx, InsertParams{MemoryType: "interaction", Action: "a"})
		if err != nil {
			t.Fatal(err)
		}
		if id <= last {
			t.Fatalf("id %d not greater than previous %d", id, last)
		}
		last = id
	}

	// IDs are not reused after deletion.
	if _, err := s.Cleanup(ctx, 0, 100); err != nil {
		t.Fatal(err)
	}
	id, _ := s.Insert(ctx, InsertParams{MemoryType: "interaction"})
	if id <= last {
		t.Fatalf("id %d reused after cleanup (last %d)", id, last)
	}
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(context.Background(), 999); err == nil {
		t.Fatal("expected error for missing record")
	}
}

func TestUpdateImportance(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, _ := s.Insert(ctx, InsertParams{MemoryType: "interaction", Context: "c", Action: "a"})
	if err := s.UpdateImportance(ctx, id, 42); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get(ctx, id)
	if got.Importance != 42 {
		t.Errorf("expected 42, got %v", got.Importance)
	}

	// Importance changes do not count as pattern observations.
	p, err := s.Pattern(ctx, "c", "a")
	if err != nil {
		t.Fatal(err)
	}
	if p.Occurrences != 1 {
		t.Errorf("expected 1 occurrence, got %d", p.Occurrences)
	}

	// Unknown id is a no-op.
	if err := s.UpdateImportance(ctx, 12345, 1); err != nil {
		t.Errorf("expected no error for unknown id, got %v", err)
	}
}

func TestAddFeedback(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, _ := s.Insert(ctx, InsertParams{
		MemoryType: "interaction", Context: "test", Action: "test", Result: "test",
	})
	before, _ := s.Pattern(ctx, "test", "test")

	if err := s.AddFeedback(ctx, id, model.FeedbackPositive); err != nil {
		t.Fatal(err)
	}

	results, _ := s.Search(ctx, SearchParams{Limit: 1})
	if len(results) != 1 || results[0].UserFeedback != model.FeedbackPositive {
		t.Fatalf("expected positive feedback, got %+v", results)
	}

	after, _ := s.Pattern(ctx, "test", "test")
	if after.Occurrences != before.Occurrences+1 {
		t.Errorf("expected occurrences %d, got %d", before.Occurrences+1, after.Occurrences)
	}
	// Neutral prior 0.5 moved by one success.
	if want := 0.5*0.9 + 0.1; after.SuccessRate != want {
		t.Errorf("expected success rate %v, got %v", want, after.SuccessRate)
	}

	// Repeated calls overwrite and re-apply.
	s.AddFeedback(ctx, id, model.FeedbackNegative)
	got, _ := s.Get(ctx, id)
	if got.UserFeedback != model.FeedbackNegative {
		t.Errorf("expected negative, got %q", got.UserFeedback)
	}
	again, _ := s.Pattern(ctx, "test", "test")
	if again.Occurrences != after.Occurrences+1 {
		t.Errorf("expected occurrences %d, got %d", after.Occurrences+1, again.Occurrences)
	}
}

func TestAddFeedbackUnknownID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.AddFeedback(ctx, 77, model.FeedbackPositive); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	st, _ := s.Stats(ctx)
	if st.TotalPatterns != 0 {
		t.Errorf("expected no patterns, got %d", st.TotalPatterns)
	}
}

func TestMalformedStoredFieldsFailClosed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, _ := s.Insert(ctx, InsertParams{MemoryType: "interaction", Context: "c", Action: "a"})
	s.db.Exec(`UPDATE memories SET tags = 'not json', metadata = '[1,2' WHERE id = ?`, id)
	s.db.Exec(`UPDATE patterns SET data = '{broken'`)

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("expected empty tags, got %v", got.Tags)
	}
	if got.Metadata == nil || len(got.Metadata) != 0 {
		t.Errorf("expected empty metadata, got %v", got.Metadata)
	}

	recs, err := s.Recommend(ctx, "", "")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(recs) != 1 || recs[0].Action != "" {
		t.Errorf("expected one recommendation with empty snapshot, got %+v", recs)
	}
}

func TestDBPathCreation(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sub", "dir", "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("expected db file to be created")
	}
}

func TestReopenKeepsState(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s1, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	id1, _ := s1.Insert(ctx, InsertParams{MemoryType: "success", Context: "c", Action: "a"})
	s1.Close()

	s2, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	recs, err := s2.Recommend(ctx, "c", "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Confidence != 1.0 {
		t.Fatalf("expected pattern to survive reopen, got %+v", recs)
	}
	id2, _ := s2.Insert(ctx, InsertParams{MemoryType: "interaction"})
	if id2 <= id1 {
		t.Errorf("expected id after reopen > %d, got %d", id1, id2)
	}
}

func TestInsertEpochZeroTimestamp(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.Insert(ctx, InsertParams{MemoryType: "a", Timestamp: at(0)})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get(ctx, id)
	if got.Timestamp != 0 {
		t.Errorf("expected epoch 0 to be stored as given, got %v", got.Timestamp)
	}
}

func TestInsertRejectsUnencodableMetadata(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	meta := model.Metadata{
		"good": json.RawMessage(`1`),
		"bad":  json.RawMessage(`{oops`),
	}
	if _, err := s.Insert(ctx, InsertParams{MemoryType: "a", Context: "c", Action: "x", Metadata: meta}); err == nil {
		t.Fatal("expected an error for metadata that is not valid JSON")
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalMemories != 0 || st.TotalPatterns != 0 {
		t.Errorf("failed insert left rows behind: %+v", st)
	}
}
