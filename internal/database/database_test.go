package database

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr[T any](v T) *T { return &v }

func TestInsertRunGeneratesID(t *testing.T) {
	db := openTestDB(t)
	id, err := db.InsertRun(Run{Keyword: "연말정산", CursorIndex: 0, Outcome: OutcomePublished})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("expected uuid, got %q", id)
	}
}

func TestGetRunWithSources(t *testing.T) {
	db := openTestDB(t)
	id, err := db.InsertRun(Run{
		Keyword:          "연말정산",
		CursorIndex:      3,
		Outcome:          OutcomePublished,
		Title:            ptr("연말정산 가이드"),
		PostID:           ptr(int64(42)),
		PostURL:          ptr("https://blog.example.com/?p=42"),
		ImageSource:      ptr("generated"),
		TextLength:       1800,
		H2Count:          4,
		AnalysisMarkdown: ptr("# Analysis"),
		BodyHTML:         ptr("<p>body</p>"),
		Sources: []RunSource{
			{Title: "국세청", URL: "https://nts.go.kr", SearchRank: 4, Authoritative: true, Sampled: true, PublishDate: ptr("2026-09-01")},
			{Title: "Blog", URL: "https://blog.com", SearchRank: 1},
		},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	run, err := db.GetRun(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if run == nil {
		t.Fatal("expected run")
	}
	if run.Keyword != "연말정산" || run.CursorIndex != 3 || *run.PostID != 42 {
		t.Errorf("unexpected run %+v", run)
	}
	if run.BodyHTML == nil || *run.BodyHTML != "<p>body</p>" {
		t.Error("expected body html")
	}
	if len(run.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(run.Sources))
	}
	first := run.Sources[0]
	if first.Position != 1 || !first.Authoritative || !first.Sampled || *first.PublishDate != "2026-09-01" {
		t.Errorf("unexpected first source %+v", first)
	}
	if run.Sources[1].Sampled || run.Sources[1].PublishDate != nil {
		t.Errorf("unexpected second source %+v", run.Sources[1])
	}
}

func TestGetRunMissing(t *testing.T) {
	db := openTestDB(t)
	run, err := db.GetRun("nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run != nil {
		t.Error("expected nil for missing run")
	}
}

func TestGetRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	for i, kw := range []string{"a", "b", "c"} {
		if _, err := db.InsertRun(Run{Keyword: kw, CursorIndex: i, Outcome: OutcomePublished, BodyHTML: ptr("x")}); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := db.GetRuns(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Keyword != "c" || runs[1].Keyword != "b" {
		t.Errorf("expected newest first, got %s,%s", runs[0].Keyword, runs[1].Keyword)
	}
	if runs[0].BodyHTML != nil {
		t.Error("list should not carry bodies")
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalRuns != 0 || stats.LastPublished != nil {
		t.Errorf("unexpected empty stats %+v", stats)
	}

	db.InsertRun(Run{Keyword: "a", Outcome: OutcomePublished, TextLength: 1000})
	db.InsertRun(Run{Keyword: "b", Outcome: OutcomePublished, TextLength: 2000})
	db.InsertRun(Run{Keyword: "c", Outcome: OutcomeFailed, Error: ptr("boom")})
	db.InsertRun(Run{Keyword: "d", Outcome: OutcomeDryRun})

	stats, err = db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalRuns != 4 || stats.Published != 2 || stats.Failed != 1 || stats.DryRuns != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.AvgTextLength != 1500 {
		t.Errorf("expected avg 1500, got %v", stats.AvgTextLength)
	}
	if stats.LastPublished == nil {
		t.Error("expected last published time")
	}
}

func TestHasPublished(t *testing.T) {
	db := openTestDB(t)
	db.InsertRun(Run{Keyword: "a", Outcome: OutcomeFailed})
	if ok, _ := db.HasPublished("a"); ok {
		t.Error("failed run should not count as published")
	}
	db.InsertRun(Run{Keyword: "a", Outcome: OutcomePublished})
	if ok, _ := db.HasPublished("a"); !ok {
		t.Error("expected published run")
	}
}

func TestInsertRunRejectsUnknownOutcome(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.InsertRun(Run{Keyword: "a", Outcome: "maybe"}); err == nil {
		t.Error("expected check constraint error")
	}
}
