package usage

import (
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndSessionStats(t *testing.T) {
	s := openStore(t)

	for i := 0; i < 3; i++ {
		if err := s.Record("sess-1", "fda_drug_lookup"); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := s.Record("sess-1", "pubmed_search"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Record("sess-2", "pubmed_search"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	now := time.Now().UTC()
	stats, err := s.SessionStats("sess-1", int(now.Month()), now.Year())
	if err != nil {
		t.Fatalf("SessionStats: %v", err)
	}
	if stats.TotalAPICalls != 4 {
		t.Fatalf("total = %d, want 4", stats.TotalAPICalls)
	}
	if stats.ToolUsage["fda_drug_lookup"] != 3 || stats.ToolUsage["pubmed_search"] != 1 {
		t.Fatalf("tool usage = %v", stats.ToolUsage)
	}
	if len(stats.DailyUsage) != 1 {
		t.Fatalf("daily usage = %v", stats.DailyUsage)
	}
}

func TestSessionStatsDefaultsMonth(t *testing.T) {
	s := openStore(t)
	if err := s.Record("sess-1", "health_topics"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	stats, err := s.SessionStats("sess-1", 0, 0)
	if err != nil {
		t.Fatalf("SessionStats: %v", err)
	}
	now := time.Now()
	if stats.Month != int(now.Month()) || stats.Year != now.Year() {
		t.Fatalf("defaulted to %d/%d", stats.Month, stats.Year)
	}
	if stats.TotalAPICalls != 1 {
		t.Fatalf("total = %d", stats.TotalAPICalls)
	}
}

func TestSessionStatsEmptyMonth(t *testing.T) {
	s := openStore(t)
	stats, err := s.SessionStats("ghost", 1, 2020)
	if err != nil {
		t.Fatalf("SessionStats: %v", err)
	}
	if stats.TotalAPICalls != 0 || len(stats.ToolUsage) != 0 || len(stats.DailyUsage) != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestOverallStats(t *testing.T) {
	s := openStore(t)
	for _, rec := range []struct{ session, tool string }{
		{"a", "fda_drug_lookup"},
		{"a", "fda_drug_lookup"},
		{"b", "pubmed_search"},
	} {
		if err := s.Record(rec.session, rec.tool); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	stats, err := s.OverallStats()
	if err != nil {
		t.Fatalf("OverallStats: %v", err)
	}
	if stats.TotalAPICalls != 3 || stats.TotalSessions != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.ToolUsage["fda_drug_lookup"] != 2 {
		t.Fatalf("tool usage = %v", stats.ToolUsage)
	}
	if len(stats.MonthlyUsage) != 1 {
		t.Fatalf("monthly usage = %v", stats.MonthlyUsage)
	}
}

func TestRecordRejectsBlankInputs(t *testing.T) {
	s := openStore(t)
	if err := s.Record("", "tool"); err == nil {
		t.Fatalf("expected error for blank session id")
	}
	if err := s.Record("sess", "  "); err == nil {
		t.Fatalf("expected error for blank tool")
	}
}

func TestCleanupKeepsRecentRows(t *testing.T) {
	s := openStore(t)
	if err := s.Record("sess-1", "fda_drug_lookup"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	// Backdate one row beyond any retention window.
	if _, err := s.db.Exec(
		"INSERT INTO usage (session_id, tool, timestamp, api_calls) VALUES (?, ?, ?, 1)",
		"sess-old", "pubmed_search", unixSeconds(time.Now().AddDate(-2, 0, 0)),
	); err != nil {
		t.Fatalf("backdate insert: %v", err)
	}

	deleted, err := s.Cleanup(365)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}

	stats, err := s.OverallStats()
	if err != nil {
		t.Fatalf("OverallStats: %v", err)
	}
	if stats.TotalAPICalls != 1 {
		t.Fatalf("remaining calls = %d", stats.TotalAPICalls)
	}
}
