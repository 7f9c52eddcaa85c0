package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/scopecrawl/internal/database"
	"github.com/nao1215/scopecrawl/internal/model"
)

// seedCrawlLog creates a crawl log with two pages and two snapshots.
func seedCrawlLog(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	pages := []*model.PageRecord{
		{URL: "https://www.ics.uci.edu", FinalURL: "https://www.ics.uci.edu/", StatusCode: 200, LinksFound: 5, LinksAccepted: 2, TokenCount: 9},
		{URL: "https://www.ics.uci.edu/about", FinalURL: "https://www.ics.uci.edu/about", StatusCode: 200, LinksFound: 1, TokenCount: 3},
	}
	for _, p := range pages {
		if err := db.InsertPageRecord(ctx, p); err != nil {
			t.Fatalf("failed to insert page: %v", err)
		}
	}

	summaries := []*model.Summary{
		{
			Limit:          50,
			TopWords:       []model.WordCount{{Word: "uci", Count: 2}, {Word: "ics", Count: 1}, {Word: "news", Count: 1}},
			UniqueURLCount: 1,
		},
		{
			Limit:          50,
			TopWords:       []model.WordCount{{Word: "uci", Count: 3}, {Word: "about", Count: 1}, {Word: "ics", Count: 1}},
			UniqueURLCount: 2,
		},
	}
	for _, s := range summaries {
		if err := db.SaveSummary(ctx, s); err != nil {
			t.Fatalf("failed to save summary: %v", err)
		}
	}

	return dir
}

// TestHistoryCmd tests the history command against a seeded crawl log.
func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	dir := seedCrawlLog(t)

	// Subtests share one SQLite file and run sequentially.

	t.Run("shows the latest summary", func(t *testing.T) {
		out, err := executeCommand(t, "history", "--db-dir", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "The top 50 common words in the crawled URLs are :\nuci : 3\nabout : 1\nics : 1\n\nTotal Unique URLs found : 2\n"
		if out != want {
			t.Errorf("unexpected output:\n%s\nwant:\n%s", out, want)
		}
	})

	t.Run("shows the latest summary as markdown", func(t *testing.T) {
		out, err := executeCommand(t, "history", "--db-dir", dir, "-f", "markdown")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "# Crawl Summary") {
			t.Errorf("expected markdown output, got:\n%s", out)
		}
	})

	t.Run("lists snapshots", func(t *testing.T) {
		out, err := executeCommand(t, "history", "--db-dir", dir, "--list")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Summary snapshots (2)") {
			t.Errorf("expected snapshot count, got:\n%s", out)
		}
		if !strings.Contains(out, "uci:3 about:1 ics:1") {
			t.Errorf("expected leading words, got:\n%s", out)
		}
	})

	t.Run("lists pages", func(t *testing.T) {
		out, err := executeCommand(t, "history", "--db-dir", dir, "--pages")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "showing 2 of 2") {
			t.Errorf("expected page count, got:\n%s", out)
		}
		if !strings.Contains(out, "2/5") || !strings.Contains(out, "https://www.ics.uci.edu/about") {
			t.Errorf("expected page rows, got:\n%s", out)
		}
	})

	t.Run("lists pages as JSON", func(t *testing.T) {
		out, err := executeCommand(t, "history", "--db-dir", dir, "--pages", "-f", "json", "-n", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var records []model.PageRecord
		if err := json.Unmarshal([]byte(out), &records); err != nil {
			t.Fatalf("expected JSON output: %v\n%s", err, out)
		}
		if len(records) != 1 {
			t.Errorf("expected 1 record, got %d", len(records))
		}
	})

	t.Run("compares the latest two snapshots", func(t *testing.T) {
		out, err := executeCommand(t, "history", "--db-dir", dir, "--compare")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{
			"Unique URLs: 1 -> 2 (+1)",
			"[+] about : 1",
			"[-] news : 1",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("compares as markdown", func(t *testing.T) {
		out, err := executeCommand(t, "history", "--db-dir", dir, "--compare", "-f", "markdown")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "# Summary Comparison") || !strings.Contains(out, "## New Words (1)") {
			t.Errorf("unexpected markdown:\n%s", out)
		}
	})

	t.Run("unknown snapshot id", func(t *testing.T) {
		if _, err := executeCommand(t, "history", "--db-dir", dir, "--compare", "--with-id", "999"); err == nil {
			t.Error("expected error for unknown snapshot")
		}
	})

	t.Run("conflicting modes", func(t *testing.T) {
		if _, err := executeCommand(t, "history", "--db-dir", dir, "--list", "--pages"); err == nil {
			t.Error("expected error for conflicting flags")
		}
	})

	t.Run("with-id requires compare", func(t *testing.T) {
		if _, err := executeCommand(t, "history", "--db-dir", dir, "--with-id", "1"); err == nil {
			t.Error("expected error for --with-id without --compare")
		}
	})
}

// TestHistoryCmd_NoCrawlLog tests that a missing crawl log is not created.
func TestHistoryCmd_NoCrawlLog(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out, err := executeCommand(t, "history", "--db-dir", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No crawl log found.") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if _, err := database.Open(dir, database.Options{}); err == nil {
		t.Error("expected the crawl log to stay absent")
	}
}

// TestCompareSnapshots tests the snapshot difference.
func TestCompareSnapshots(t *testing.T) {
	t.Parallel()

	previous := &database.SummaryRecord{
		ID:        1,
		Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Summary: &model.Summary{
			TopWords:       []model.WordCount{{Word: "a", Count: 5}, {Word: "b", Count: 4}, {Word: "c", Count: 1}},
			UniqueURLCount: 3,
		},
	}
	current := &database.SummaryRecord{
		ID:        2,
		Timestamp: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Summary: &model.Summary{
			TopWords:       []model.WordCount{{Word: "b", Count: 9}, {Word: "a", Count: 6}, {Word: "d", Count: 2}},
			UniqueURLCount: 5,
		},
	}

	result := compareSnapshots(previous, current)

	if result.URLDelta != 2 {
		t.Errorf("expected URL delta 2, got %d", result.URLDelta)
	}
	if len(result.NewWords) != 1 || result.NewWords[0].Word != "d" {
		t.Errorf("expected d to be new, got %v", result.NewWords)
	}
	if len(result.DroppedWords) != 1 || result.DroppedWords[0].Word != "c" {
		t.Errorf("expected c to be dropped, got %v", result.DroppedWords)
	}
	if len(result.Changed) != 2 {
		t.Fatalf("expected 2 changed words, got %v", result.Changed)
	}
	b := result.Changed[0]
	if b.Word != "b" || b.PreviousRank != 2 || b.CurrentRank != 1 || b.PreviousCount != 4 || b.CurrentCount != 9 {
		t.Errorf("unexpected change for b: %+v", b)
	}
}

// TestFormatDelta tests signed delta formatting.
func TestFormatDelta(t *testing.T) {
	t.Parallel()

	tests := map[int]string{3: "+3", 0: "0", -2: "-2"}
	for in, want := range tests {
		if got := formatDelta(in); got != want {
			t.Errorf("formatDelta(%d) = %q, want %q", in, got, want)
		}
	}
}
