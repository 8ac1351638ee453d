package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/joelkehle/idea-validation/internal/validation"
)

func newTestStore(t *testing.T) (*SQLiteStore, *time.Time) {
	t.Helper()
	now := time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	s.now = func() time.Time { return now }
	t.Cleanup(func() { s.Close() })
	return s, &now
}

func testReport(id string, at time.Time, score int) *validation.Report {
	return &validation.Report{
		ID:              id,
		BusinessIdea:    "idea " + id,
		Keywords:        []string{"meal", "planning"},
		ValidationScore: score,
		ConfidenceLevel: validation.ConfidenceHigh,
		ConfidenceScore: 82.92,
		ScoreBreakdown:  validation.ScoreBreakdown{MarketDemand: 80, Competition: 60, Monetization: 70, Feasibility: 50, AIAnalysis: 90, SocialProof: 40},
		ValidatedAt:     at,
		ExpiresAt:       at.Add(validation.ReportTTL),
	}
}

func TestSaveGetRoundTrip(t *testing.T) {
	s, now := newTestStore(t)
	ctx := context.Background()
	in := testReport("r1", *now, 70)
	if err := s.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ValidationScore != 70 || got.ScoreBreakdown != in.ScoreBreakdown || got.ConfidenceScore != 82.92 {
		t.Fatalf("unexpected report %+v", got)
	}
	if !got.ExpiresAt.Equal(in.ExpiresAt) {
		t.Fatalf("expires_at: %s vs %s", got.ExpiresAt, in.ExpiresAt)
	}
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	now := time.Now().UTC()
	s1, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s1.Save(context.Background(), testReport("keep", now, 55)); err != nil {
		t.Fatalf("save: %v", err)
	}
	s1.Close()

	s2, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if got, err := s2.Get(context.Background(), "keep"); err != nil || got.ValidationScore != 55 {
		t.Fatalf("expected persisted report, got %+v %v", got, err)
	}
}

func TestPublishAndLibrary(t *testing.T) {
	s, now := newTestStore(t)
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		if err := s.Save(ctx, testReport(id, now.Add(time.Duration(i)*time.Minute), 60+i)); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	if err := s.SetPublished(ctx, "b", true); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := s.SetPublished(ctx, "nope", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	lib, err := s.ListPublished(ctx, 10, 0)
	if err != nil {
		t.Fatalf("library: %v", err)
	}
	if len(lib) != 1 || lib[0].ID != "b" || !lib[0].Published {
		t.Fatalf("unexpected library %+v", lib)
	}
	got, _ := s.Get(ctx, "b")
	if !got.Published {
		t.Fatal("expected report to carry published flag")
	}

	all, err := s.List(ctx, ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != "c" || all[1].ID != "b" {
		t.Fatalf("expected newest first with limit, got %+v", all)
	}
	page2, _ := s.List(ctx, ListOptions{Limit: 2, Offset: 2})
	if len(page2) != 1 || page2[0].ID != "a" {
		t.Fatalf("unexpected second page %+v", page2)
	}
}

func TestExpiredReportsHiddenAndSwept(t *testing.T) {
	s, now := newTestStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, testReport("old", now.Add(-31*24*time.Hour), 40)); err != nil {
		t.Fatalf("save old: %v", err)
	}
	if err := s.Save(ctx, testReport("fresh", *now, 80)); err != nil {
		t.Fatalf("save fresh: %v", err)
	}
	if _, err := s.Get(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired report should be hidden, got %v", err)
	}
	n, err := s.DeleteExpired(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 deleted, got %d %v", n, err)
	}
	list, _ := s.List(ctx, ListOptions{})
	if len(list) != 1 || list[0].ID != "fresh" {
		t.Fatalf("unexpected remaining %+v", list)
	}

	*now = now.Add(validation.ReportTTL)
	if _, err := s.Get(ctx, "fresh"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("report should expire exactly at its ttl, got %v", err)
	}
}

func TestSaveRejectsMissingID(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.Save(context.Background(), &validation.Report{}); err == nil {
		t.Fatal("expected error for report without id")
	}
}
