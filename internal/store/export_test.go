package store

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rcliao/browser-memory/internal/model"
)

func TestExport(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Insert(ctx, InsertParams{MemoryType: "interaction", Context: "a", Action: "x", Importance: imp(1)})
	s.Insert(ctx, InsertParams{MemoryType: "success", Context: "b", Action: "y", Importance: imp(9)})
	s.SetPreference(ctx, "theme", "dark", 1)

	doc, err := s.Export(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if doc.TotalMemories != 2 || len(doc.Memories) != 2 {
		t.Fatalf("expected 2 memories, got %d", doc.TotalMemories)
	}
	if doc.Memories[0].ID >= doc.Memories[1].ID {
		t.Errorf("expected id order, got %d then %d", doc.Memories[0].ID, doc.Memories[1].ID)
	}
	if _, ok := doc.Preferences["theme"]; !ok {
		t.Error("expected theme preference in export")
	}
	if doc.Statistics == nil || doc.Statistics.TotalPatterns != 2 {
		t.Errorf("expected statistics with 2 patterns, got %+v", doc.Statistics)
	}
	if doc.ExportTimestamp == 0 {
		t.Error("expected export timestamp")
	}

	var buf bytes.Buffer
	if err := s.WriteExport(ctx, &buf); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	for _, key := range []string{"export_timestamp", "total_memories", "memories", "preferences", "statistics"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing %q in export", key)
		}
	}
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s1, _ := NewSQLiteStore(filepath.Join(dir, "src.db"))
	defer s1.Close()

	meta := model.Metadata{}
	meta.Set("nested", map[string]any{"a": []int{1, 2}})
	id, _ := s1.Insert(ctx, InsertParams{
		MemoryType: "interaction", Context: "site", Action: "click", Result: "ok",
		Timestamp: at(1700000000.5), Importance: imp(4), Tags: []string{"t1", "t1"}, Metadata: meta,
	})
	s1.AddFeedback(ctx, id, model.FeedbackPositive)
	s1.SetPreference(ctx, "lang", "en", 0.7)

	var buf bytes.Buffer
	if err := s1.WriteExport(ctx, &buf); err != nil {
		t.Fatal(err)
	}
	var doc model.Export
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}

	s2, _ := NewSQLiteStore(filepath.Join(dir, "dst.db"))
	defer s2.Close()

	n, err := s2.Import(ctx, &doc)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 imported, got %d", n)
	}

	recs, _ := s2.Recent(ctx, 10, "")
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	r := recs[0]
	if r.Timestamp != 1700000000.5 || r.Importance != 4 || r.UserFeedback != model.FeedbackPositive {
		t.Errorf("fields not preserved: %+v", r)
	}
	if len(r.Tags) != 2 {
		t.Errorf("expected duplicate tags preserved, got %v", r.Tags)
	}
	var nested map[string][]int
	if ok, err := r.Metadata.Get("nested", &nested); !ok || err != nil || len(nested["a"]) != 2 {
		t.Errorf("nested metadata not preserved: %v %v %v", ok, err, nested)
	}

	var lang string
	if ok, _ := s2.GetPreference(ctx, "lang", &lang); !ok || lang != "en" {
		t.Errorf("expected lang=en, got %q", lang)
	}

	p, err := s2.Pattern(ctx, "site", "click")
	if err != nil {
		t.Fatal(err)
	}
	if p.SuccessRate != 1.0 {
		t.Errorf("expected rebuilt pattern from positive record, got %v", p.SuccessRate)
	}
}

func TestImportPreferenceDefaults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var doc model.Export
	err := json.Unmarshal([]byte(`{
		"memories": [{"timestamp": 0, "memory_type": "interaction", "context": "c", "action": "a"}],
		"preferences": {"theme": {"value": "dark"}, "zoom": {"value": 2, "confidence": 0}}
	}`), &doc)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Import(ctx, &doc); err != nil {
		t.Fatal(err)
	}

	prefs, _ := s.Preferences(ctx)
	if prefs["theme"].Confidence != model.DefaultConfidence {
		t.Errorf("expected default confidence for theme, got %v", prefs["theme"].Confidence)
	}
	if prefs["zoom"].Confidence != 0 {
		t.Errorf("expected explicit zero confidence kept, got %v", prefs["zoom"].Confidence)
	}

	recs, _ := s.Recent(ctx, 1, "")
	if len(recs) != 1 || recs[0].Timestamp != 0 {
		t.Errorf("expected imported timestamp kept verbatim, got %+v", recs)
	}
}
