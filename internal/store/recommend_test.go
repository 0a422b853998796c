package store

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rcliao/browser-memory/internal/model"
)

func TestRecommend_ExactAfterOneSuccess(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Insert(ctx, InsertParams{
		MemoryType: model.TypeSuccess, Context: "test_page", Action: "test_action",
		Result: "success", Feedback: model.FeedbackPositive, Importance: imp(8),
	})

	recs, err := s.Recommend(ctx, "test_page", "test_action")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	if recs[0].Confidence != 1.0 || recs[0].BasedOnExperiences != 1 {
		t.Errorf("expected confidence 1.0 from 1 experience, got %+v", recs[0])
	}
	if recs[0].Data == nil || recs[0].Data.TypicalResult != "success" {
		t.Errorf("expected snapshot data, got %+v", recs[0].Data)
	}
}

func TestRecommend_ExactSuccessThenFailure(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Insert(ctx, InsertParams{MemoryType: model.TypeSuccess, Context: "p", Action: "a"})
	s.Insert(ctx, InsertParams{MemoryType: model.TypeError, Context: "p", Action: "a"})

	recs, _ := s.Recommend(ctx, "p", "a")
	if len(recs) != 1 {
		t.Fatalf("expected 1, got %d", len(recs))
	}
	if recs[0].Confidence != 0.9 || recs[0].BasedOnExperiences != 2 {
		t.Errorf("expected confidence 0.9 from 2 experiences, got %+v", recs[0])
	}
}

func TestRecommend_ExactUnknown(t *testing.T) {
	s := newTestStore(t)
	recs, err := s.Recommend(context.Background(), "nowhere", "nothing")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected none, got %+v", recs)
	}
}

func TestRecommend_ExactServedAfterUpdates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Alternate lookups and writes so an index entry exists before each update.
	want := 0.5
	for i := 0; i < 5; i++ {
		s.Insert(ctx, InsertParams{MemoryType: model.TypeSuccess, Context: "p", Action: "a"})
		if i == 0 {
			want = 1.0
		} else {
			want = want*0.9 + 0.1
		}
		recs, _ := s.Recommend(ctx, "p", "a")
		if len(recs) != 1 || recs[0].BasedOnExperiences != i+1 {
			t.Fatalf("step %d: expected %d experiences, got %+v", i, i+1, recs)
		}
		if diff := recs[0].Confidence - want; diff > 1e-12 || diff < -1e-12 {
			t.Fatalf("step %d: expected confidence %v, got %v", i, want, recs[0].Confidence)
		}
	}
}

func TestRecommend_ByContext(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	site := "https://shop.example"
	// Seven distinct actions with increasing success.
	for i := 0; i < 7; i++ {
		action := fmt.Sprintf("action %d", i)
		s.Insert(ctx, InsertParams{MemoryType: "interaction", Context: site, Action: action, Result: "ok " + action})
		for j := 0; j < i; j++ {
			s.Insert(ctx, InsertParams{MemoryType: model.TypeSuccess, Context: site, Action: action})
		}
	}
	s.Insert(ctx, InsertParams{MemoryType: model.TypeSuccess, Context: "https://elsewhere.example", Action: "x"})

	recs, err := s.Recommend(ctx, "shop.example", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != MaxContextRecommendations {
		t.Fatalf("expected %d, got %d", MaxContextRecommendations, len(recs))
	}
	if recs[0].Action != "action 6" {
		t.Errorf("expected best action first, got %q", recs[0].Action)
	}
	if recs[0].TypicalResult != "ok action 6" {
		t.Errorf("expected typical result from snapshot, got %q", recs[0].TypicalResult)
	}
	for i := 1; i < len(recs); i++ {
		if recs[i-1].Confidence < recs[i].Confidence {
			t.Fatalf("not ordered by confidence: %v", recs)
		}
	}
	for _, r := range recs {
		if r.Action == "x" {
			t.Error("unrelated context returned")
		}
	}
}

func TestRecommend_ByContextTiesOnOccurrences(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Insert(ctx, InsertParams{MemoryType: model.TypeSuccess, Context: "site", Action: "once"})
	s.Insert(ctx, InsertParams{MemoryType: "interaction", Context: "site", Action: "twice"})
	s.Insert(ctx, InsertParams{MemoryType: "interaction", Context: "site", Action: "twice"})
	s.Insert(ctx, InsertParams{MemoryType: "interaction", Context: "site", Action: "thrice"})
	s.Insert(ctx, InsertParams{MemoryType: "interaction", Context: "site", Action: "thrice"})
	s.Insert(ctx, InsertParams{MemoryType: "interaction", Context: "site", Action: "thrice"})

	recs, _ := s.Recommend(ctx, "site", "")
	got := []string{}
	for _, r := range recs {
		got = append(got, r.Action)
	}
	want := []string{"once", "thrice", "twice"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSuggestions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Insert(ctx, InsertParams{MemoryType: model.TypeSuccess, Context: "site", Action: "good", Result: "done"})
	s.Insert(ctx, InsertParams{MemoryType: "interaction", Context: "site", Action: "meh"})
	s.Insert(ctx, InsertParams{MemoryType: model.TypeError, Context: "site", Action: "bad"})

	sugg, err := s.Suggestions(ctx, "site")
	if err != nil {
		t.Fatal(err)
	}
	if len(sugg) != 1 {
		t.Fatalf("expected only the confident action, got %+v", sugg)
	}
	if sugg[0].Action != "good" || sugg[0].ExpectedResult != "done" {
		t.Errorf("unexpected suggestion %+v", sugg[0])
	}
	if sugg[0].Reason != "Successful 1 times before" {
		t.Errorf("unexpected reason %q", sugg[0].Reason)
	}
}

func TestPatternSnapshotNotRefreshed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Insert(ctx, InsertParams{MemoryType: "interaction", Context: "c", Action: "a", Result: "first"})
	s.Insert(ctx, InsertParams{MemoryType: "success", Context: "c", Action: "a", Result: "second"})

	p, err := s.Pattern(ctx, "c", "a")
	if err != nil {
		t.Fatal(err)
	}
	if p.Type != "interaction" || p.Data.TypicalResult != "first" {
		t.Errorf("expected first snapshot to stick, got %+v", p)
	}
	if p.Occurrences != 2 {
		t.Errorf("expected 2 occurrences, got %d", p.Occurrences)
	}
}

func TestRecommend_ExactSeesWritesFromAnotherStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")

	a, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if _, err := a.Insert(ctx, InsertParams{MemoryType: model.TypeSuccess, Context: "c", Action: "a"}); err != nil {
		t.Fatal(err)
	}
	recs, _ := a.Recommend(ctx, "c", "a")
	if len(recs) != 1 || recs[0].Confidence != 1.0 {
		t.Fatalf("expected cached confidence 1.0, got %+v", recs)
	}

	if _, err := b.Insert(ctx, InsertParams{MemoryType: model.TypeError, Context: "c", Action: "a"}); err != nil {
		t.Fatal(err)
	}

	exact, err := a.Recommend(ctx, "c", "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(exact) != 1 || exact[0].Confidence != 0.9 || exact[0].BasedOnExperiences != 2 {
		t.Fatalf("expected 0.9 from 2 experiences after the other store's write, got %+v", exact)
	}
	byContext, _ := a.Recommend(ctx, "c", "")
	if len(byContext) != 1 || byContext[0].Confidence != exact[0].Confidence ||
		byContext[0].BasedOnExperiences != exact[0].BasedOnExperiences {
		t.Errorf("exact %+v and by-context %+v disagree", exact, byContext)
	}

	p, err := a.Pattern(ctx, "c", "a")
	if err != nil {
		t.Fatal(err)
	}
	if p.Occurrences != 2 {
		t.Errorf("expected 2 occurrences, got %d", p.Occurrences)
	}
}
