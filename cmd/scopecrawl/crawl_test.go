package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/scopecrawl/internal/config"
	"github.com/nao1215/scopecrawl/internal/database"
	"github.com/nao1215/scopecrawl/internal/log"
	"github.com/spf13/cobra"
)

// homeHTML links to one in-scope page and to one target for every reason
// the filter can reject a link.
const homeHTML = `<html><body>
<p>uci uci ics</p>
<a href="/about">link</a>
<a href="/about#team">link</a>
<a href="/private">link</a>
<a href="http://localhost:1/elsewhere">link</a>
<a href="/a/a/a/x">link</a>
<a href="/file.pdf">link</a>
</body></html>`

const aboutHTML = `<html><body>
<p>uci about</p>
<a href="/">home</a>
</body></html>`

// newSiteServer serves a two-page site with a robots.txt that disallows
// /private. It counts requests for pages other than robots.txt.
func newSiteServer(t *testing.T, pageRequests *atomic.Int32) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
			return
		}
		pageRequests.Add(1)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "", "/":
			fmt.Fprint(w, homeHTML)
		case "/about":
			fmt.Fprint(w, aboutHTML)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

// executeCommand runs the root command with args and returns stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

// TestNewCrawlCmd tests the crawl command creation.
func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "crawl [seed-url...]" {
			t.Errorf("expected use 'crawl [seed-url...]', got %q", cmd.Use)
		}
	})

	t.Run("flag defaults match config defaults", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			want string
		}{
			{"workers", "4"},
			{"max-pages", "1000"},
			{"delay", "500ms"},
			{"timeout", "30s"},
			{"top", "50"},
			{"output", "summary.txt"},
			{"format", "text"},
			{"root-relative", "concat"},
			{"trap-threshold", "3"},
			{"max-depth", "10"},
		}
		for _, tt := range tests {
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Errorf("expected flag %q", tt.name)
				continue
			}
			if flag.DefValue != tt.want {
				t.Errorf("flag %q: expected default %q, got %q", tt.name, tt.want, flag.DefValue)
			}
		}
	})
}

// TestBuildConfig tests precedence of defaults, config file and flags.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	// parse creates a crawl command, parses args and builds its config.
	parse := func(t *testing.T, args ...string) (*config.Config, error) {
		t.Helper()

		cmd := NewCrawlCmd()
		cmd.PersistentFlags().BoolP("verbose", "v", false, "")
		if err := cmd.ParseFlags(args); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		return buildConfig(cmd, cmd.Flags().Args())
	}

	writeConfig := func(t *testing.T, content string) string {
		t.Helper()

		path := filepath.Join(t.TempDir(), "crawl.yaml")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		return path
	}

	t.Run("flags override the config file", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `crawl:
  seeds:
    - https://www.ics.uci.edu
  workers: 8
  delay: 2s
scope:
  maxDepth: 4
`)
		cfg, err := parse(t, "-c", path, "-w", "3", "--no-db")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Workers != 3 {
			t.Errorf("expected flag to win, got %d workers", cfg.Workers)
		}
		if cfg.CrawlDelay != 2*time.Second {
			t.Errorf("expected delay from file, got %v", cfg.CrawlDelay)
		}
		if cfg.MaxDepth != 4 {
			t.Errorf("expected depth from file, got %d", cfg.MaxDepth)
		}
		if len(cfg.Seeds) != 1 || cfg.Seeds[0] != "https://www.ics.uci.edu" {
			t.Errorf("expected seeds from file, got %v", cfg.Seeds)
		}
		if cfg.SaveToDB {
			t.Error("expected --no-db to disable the crawl log")
		}
		if cfg.TopN != config.DefaultTopN {
			t.Errorf("expected default top N, got %d", cfg.TopN)
		}
	})

	t.Run("positional arguments replace seeds", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "crawl:\n  seeds:\n    - https://www.ics.uci.edu\n")
		cfg, err := parse(t, "-c", path, "https://www.stat.uci.edu")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cfg.Seeds) != 1 || cfg.Seeds[0] != "https://www.stat.uci.edu" {
			t.Errorf("expected positional seed, got %v", cfg.Seeds)
		}
	})

	t.Run("domain flag replaces the allowed domains", func(t *testing.T) {
		t.Parallel()

		cfg, err := parse(t, "-c", writeConfig(t, "{}\n"), "-D", "ics.uci.edu,stat.uci.edu", "https://www.ics.uci.edu")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Join(cfg.AllowedDomains, ",") != "ics.uci.edu,stat.uci.edu" {
			t.Errorf("unexpected domains %v", cfg.AllowedDomains)
		}
	})

	t.Run("explicit missing config file is an error", func(t *testing.T) {
		t.Parallel()

		_, err := parse(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("verbose flag is picked up", func(t *testing.T) {
		t.Parallel()

		cfg, err := parse(t, "-c", writeConfig(t, "{}\n"), "-v")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.Verbose {
			t.Error("expected verbose")
		}
	})
}

// TestOverride tests that untouched flags leave values alone.
func TestOverride(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{}
	cmd.Flags().Int("workers", 4, "")
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	workers := 9
	if err := override(cmd, "workers", cmd.Flags().GetInt, &workers); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if workers != 9 {
		t.Errorf("expected untouched value 9, got %d", workers)
	}

	if err := cmd.ParseFlags([]string{"--workers", "2"}); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	if err := override(cmd, "workers", cmd.Flags().GetInt, &workers); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if workers != 2 {
		t.Errorf("expected flag value 2, got %d", workers)
	}
}

// TestRunCrawl crawls a local site end to end.
func TestRunCrawl(t *testing.T) {
	t.Parallel()

	newConfig := func(t *testing.T, server *httptest.Server) *config.Config {
		t.Helper()

		cfg := config.NewConfig()
		cfg.Seeds = []string{server.URL}
		cfg.AllowedDomains = []string{"127.0.0.1"}
		cfg.CrawlDelay = 0
		cfg.Timeout = 5 * time.Second
		cfg.SummaryFile = filepath.Join(t.TempDir(), "out", "summary.txt")
		cfg.DBDir = t.TempDir()
		return cfg
	}

	t.Run("writes the summary and the crawl log", func(t *testing.T) {
		t.Parallel()

		var pageRequests atomic.Int32
		server := newSiteServer(t, &pageRequests)
		cfg := newConfig(t, server)

		var out, logs bytes.Buffer
		err := runCrawl(context.Background(), cfg, log.NewSecureLogger(&logs, true), &out, false)
		if err != nil {
			t.Fatalf("unexpected error: %v\nlogs:\n%s", err, logs.String())
		}

		got, err := os.ReadFile(cfg.SummaryFile)
		if err != nil {
			t.Fatalf("failed to read summary: %v", err)
		}
		want := "The top 50 common words in the crawled URLs are :\n" +
			"link : 6\n" +
			"uci : 3\n" +
			"ics : 1\n" +
			"about : 1\n" +
			"home : 1\n" +
			"\n" +
			"Total Unique URLs found : 2\n"
		if string(got) != want {
			t.Errorf("unexpected summary:\n%s\nwant:\n%s", got, want)
		}

		if n := pageRequests.Load(); n != 2 {
			t.Errorf("expected 2 page requests, got %d", n)
		}
		for _, want := range []string{"Pages fetched:  2", "Unique URLs:    2", cfg.SummaryFile} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out.String())
			}
		}

		db, err := database.Open(cfg.DBDir, database.Options{})
		if err != nil {
			t.Fatalf("failed to open crawl log: %v", err)
		}
		defer db.Close()

		count, err := db.PageCount(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 2 {
			t.Errorf("expected 2 page records, got %d", count)
		}

		home, err := db.GetPageRecord(context.Background(), server.URL)
		if err != nil || home == nil {
			t.Fatalf("expected home page record, got %v, %v", home, err)
		}
		if home.LinksFound != 5 || home.LinksAccepted != 2 {
			t.Errorf("expected 5 links found and 2 accepted, got %d and %d", home.LinksFound, home.LinksAccepted)
		}

		latest, err := db.GetLatestSummary(context.Background())
		if err != nil || latest == nil {
			t.Fatalf("expected a stored summary, got %v, %v", latest, err)
		}
		if latest.Summary.UniqueURLCount != 2 {
			t.Errorf("expected 2 unique URLs in the stored summary, got %d", latest.Summary.UniqueURLCount)
		}
	})

	t.Run("print writes the final summary to stdout", func(t *testing.T) {
		t.Parallel()

		var pageRequests atomic.Int32
		server := newSiteServer(t, &pageRequests)
		cfg := newConfig(t, server)
		cfg.SaveToDB = false
		cfg.TopN = 1

		var out, logs bytes.Buffer
		if err := runCrawl(context.Background(), cfg, log.NewSecureLogger(&logs, false), &out, true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := "The top 50 common words in the crawled URLs are :\nlink : 6\n\nTotal Unique URLs found : 2\n"
		if !strings.HasSuffix(out.String(), want) {
			t.Errorf("expected stdout to end with the summary, got:\n%s", out.String())
		}
	})

	t.Run("resolve mode lands root-relative links at the host root", func(t *testing.T) {
		t.Parallel()

		var pageRequests atomic.Int32
		server := newSiteServer(t, &pageRequests)
		cfg := newConfig(t, server)
		cfg.SaveToDB = false
		cfg.RootRelative = config.RootRelativeResolve
		cfg.Seeds = []string{server.URL + "/"}

		var out, logs bytes.Buffer
		if err := runCrawl(context.Background(), cfg, log.NewSecureLogger(&logs, false), &out, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, err := os.ReadFile(cfg.SummaryFile)
		if err != nil {
			t.Fatalf("failed to read summary: %v", err)
		}
		if !strings.HasSuffix(string(got), "Total Unique URLs found : 2\n") {
			t.Errorf("unexpected summary:\n%s", got)
		}
	})

	t.Run("max pages bounds the crawl", func(t *testing.T) {
		t.Parallel()

		var pageRequests atomic.Int32
		server := newSiteServer(t, &pageRequests)
		cfg := newConfig(t, server)
		cfg.SaveToDB = false
		cfg.MaxPages = 1

		var out, logs bytes.Buffer
		if err := runCrawl(context.Background(), cfg, log.NewSecureLogger(&logs, false), &out, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := pageRequests.Load(); n != 1 {
			t.Errorf("expected 1 page request, got %d", n)
		}
	})

	t.Run("a cancelled crawl still leaves a summary", func(t *testing.T) {
		t.Parallel()

		var pageRequests atomic.Int32
		server := newSiteServer(t, &pageRequests)
		cfg := newConfig(t, server)
		cfg.SaveToDB = false

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var out, logs bytes.Buffer
		if err := runCrawl(ctx, cfg, log.NewSecureLogger(&logs, false), &out, false); err != nil {
			t.Fatalf("expected an interrupted crawl to succeed, got %v", err)
		}
		if !strings.Contains(out.String(), "Crawl interrupted") {
			t.Errorf("expected interruption notice, got:\n%s", out.String())
		}

		got, err := os.ReadFile(cfg.SummaryFile)
		if err != nil {
			t.Fatalf("failed to read summary: %v", err)
		}
		want := "The top 50 common words in the crawled URLs are :\n\nTotal Unique URLs found : 0\n"
		if string(got) != want {
			t.Errorf("unexpected summary:\n%q", got)
		}
	})

	t.Run("unknown charset is rejected before crawling", func(t *testing.T) {
		t.Parallel()

		var pageRequests atomic.Int32
		server := newSiteServer(t, &pageRequests)
		cfg := newConfig(t, server)
		cfg.SaveToDB = false
		cfg.Charset = "no-such-charset"

		var out, logs bytes.Buffer
		if err := runCrawl(context.Background(), cfg, log.NewSecureLogger(&logs, false), &out, false); err == nil {
			t.Error("expected error for unknown charset")
		}
		if n := pageRequests.Load(); n != 0 {
			t.Errorf("expected no requests, got %d", n)
		}
	})
}

// TestCrawlCmd_Validation tests that invalid settings fail before crawling.
func TestCrawlCmd_Validation(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(configPath, []byte("{}\n"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"no seeds", []string{"crawl", "-c", configPath}, config.ErrNoSeed},
		{"bad format", []string{"crawl", "-c", configPath, "-f", "csv", "https://www.ics.uci.edu"}, config.ErrInvalidSummaryFormat},
		{"bad mode", []string{"crawl", "-c", configPath, "--root-relative", "join", "https://www.ics.uci.edu"}, config.ErrInvalidRootRelative},
		{"trap threshold", []string{"crawl", "-c", configPath, "--trap-threshold", "1", "https://www.ics.uci.edu"}, config.ErrInvalidTrapThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := executeCommand(t, tt.args...)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// emptyConfig writes an empty configuration file so that tests never pick
// up a .scopecrawl from the working or home directory.
func emptyConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}
