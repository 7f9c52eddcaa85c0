package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// Changes to defaults must be intentional; these tests fail otherwise.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default allowed domains are the four UCI departments", func(t *testing.T) {
		t.Parallel()
		want := []string{"ics.uci.edu", "cs.uci.edu", "informatics.uci.edu", "stat.uci.edu"}
		if len(cfg.AllowedDomains) != len(want) {
			t.Fatalf("expected %d domains, got %v", len(want), cfg.AllowedDomains)
		}
		for i, d := range want {
			if cfg.AllowedDomains[i] != d {
				t.Errorf("domain %d: expected %q, got %q", i, d, cfg.AllowedDomains[i])
			}
		}
	})

	t.Run("default trap threshold and depth", func(t *testing.T) {
		t.Parallel()
		if cfg.TrapThreshold != 3 {
			t.Errorf("expected TrapThreshold 3, got %d", cfg.TrapThreshold)
		}
		if cfg.MaxDepth != 10 {
			t.Errorf("expected MaxDepth 10, got %d", cfg.MaxDepth)
		}
	})

	t.Run("default summary is the top 50 words in summary.txt", func(t *testing.T) {
		t.Parallel()
		if cfg.TopN != 50 {
			t.Errorf("expected TopN 50, got %d", cfg.TopN)
		}
		if cfg.SummaryFile != "summary.txt" {
			t.Errorf("expected summary.txt, got %q", cfg.SummaryFile)
		}
		if cfg.SummaryFormat != "text" {
			t.Errorf("expected text format, got %q", cfg.SummaryFormat)
		}
	})

	t.Run("default root-relative mode is concat", func(t *testing.T) {
		t.Parallel()
		if cfg.RootRelative != RootRelativeConcat {
			t.Errorf("expected concat, got %q", cfg.RootRelative)
		}
	})

	t.Run("crawl log is enabled in the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB to be true")
		}
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})

	t.Run("host settings are empty but usable", func(t *testing.T) {
		t.Parallel()
		if cfg.Hosts == nil {
			t.Fatal("expected non-nil Hosts")
		}
		if h := cfg.Hosts.HeaderFor("www.ics.uci.edu"); h != nil {
			t.Errorf("expected no headers, got %v", h)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Seeds = []string{"https://www.ics.uci.edu"}
		cfg.DBDir = "/tmp/scopecrawl"
		return cfg
	}

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()
		if err := validConfig().Validate(); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	})

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"no seeds", func(c *Config) { c.Seeds = nil }, ErrNoSeed},
		{"no allowed domains", func(c *Config) { c.AllowedDomains = nil }, ErrNoAllowedDomain},
		{"trap threshold of 1", func(c *Config) { c.TrapThreshold = 1 }, ErrInvalidTrapThreshold},
		{"zero max depth", func(c *Config) { c.MaxDepth = 0 }, ErrInvalidMaxDepth},
		{"unknown root-relative mode", func(c *Config) { c.RootRelative = "join" }, ErrInvalidRootRelative},
		{"zero workers", func(c *Config) { c.Workers = 0 }, ErrInvalidWorkers},
		{"negative max pages", func(c *Config) { c.MaxPages = -1 }, ErrInvalidMaxPages},
		{"negative delay", func(c *Config) { c.CrawlDelay = -time.Second }, ErrInvalidCrawlDelay},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"zero body size", func(c *Config) { c.MaxBodySize = 0 }, ErrInvalidMaxBodySize},
		{"zero top N", func(c *Config) { c.TopN = 0 }, ErrInvalidTopN},
		{"top N above 50", func(c *Config) { c.TopN = 51 }, ErrInvalidTopN},
		{"empty summary file", func(c *Config) { c.SummaryFile = "" }, ErrNoSummaryFile},
		{"unknown summary format", func(c *Config) { c.SummaryFormat = "csv" }, ErrInvalidSummaryFormat},
		{"db enabled without dir", func(c *Config) { c.DBDir = "" }, ErrNoDBDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("zero delay is allowed", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.CrawlDelay = 0
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	})

	t.Run("db dir is not required when the crawl log is off", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.SaveToDB = false
		cfg.DBDir = ""
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	})

	t.Run("format is case-insensitive", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.SummaryFormat = "Markdown"
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	})
}

// TestGetHostConfig tests merging of host settings with defaults.
func TestGetHostConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: HostConfig{
			Cookie:  "consent=yes",
			Headers: map[string]string{"Accept-Language": "en", "X-Team": "crawler"},
		},
		Hosts: map[string]HostConfig{
			"intranet.ics.uci.edu": {
				Cookie:  "session=xyz",
				Headers: map[string]string{"X-Team": "ics"},
			},
		},
	}

	t.Run("unknown host gets defaults", func(t *testing.T) {
		t.Parallel()

		hc := cf.GetHostConfig("www.stat.uci.edu")
		if hc.Cookie != "consent=yes" {
			t.Errorf("expected default cookie, got %q", hc.Cookie)
		}
		if hc.Headers["X-Team"] != "crawler" {
			t.Errorf("expected default header, got %v", hc.Headers)
		}
	})

	t.Run("host settings override defaults", func(t *testing.T) {
		t.Parallel()

		hc := cf.GetHostConfig("intranet.ics.uci.edu")
		if hc.Cookie != "session=xyz" {
			t.Errorf("expected host cookie, got %q", hc.Cookie)
		}
		if hc.Headers["X-Team"] != "ics" {
			t.Errorf("expected host header, got %q", hc.Headers["X-Team"])
		}
		if hc.Headers["Accept-Language"] != "en" {
			t.Errorf("expected default header to be kept, got %v", hc.Headers)
		}
	})

	t.Run("host match ignores case and port", func(t *testing.T) {
		t.Parallel()

		hc := cf.GetHostConfig("Intranet.ICS.uci.edu:8443")
		if hc.Cookie != "session=xyz" {
			t.Errorf("expected host cookie, got %q", hc.Cookie)
		}
	})

	t.Run("merging does not mutate defaults", func(t *testing.T) {
		t.Parallel()

		_ = cf.GetHostConfig("intranet.ics.uci.edu")
		if cf.Defaults.Headers["X-Team"] != "crawler" {
			t.Errorf("defaults were modified: %v", cf.Defaults.Headers)
		}
	})
}

// TestHeaderFor tests conversion of host settings to request headers.
func TestHeaderFor(t *testing.T) {
	t.Parallel()

	cf := &File{
		Hosts: map[string]HostConfig{
			"www.ics.uci.edu": {
				Cookie:  "a=1; b=2",
				Headers: map[string]string{"x-custom": "value"},
			},
		},
	}

	h := cf.HeaderFor("www.ics.uci.edu")
	if got := h.Get("Cookie"); got != "a=1; b=2" {
		t.Errorf("expected cookie header, got %q", got)
	}
	if got := h.Get("X-Custom"); got != "value" {
		t.Errorf("expected canonicalized custom header, got %q", got)
	}

	if h := cf.HeaderFor("www.cs.uci.edu"); h != nil {
		t.Errorf("expected nil header, got %v", h)
	}
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cf, err := LoadConfigFile("/nonexistent/path/.scopecrawl")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cf != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".scopecrawl")
		content := `scope:
  allowedDomains:
    - ics.uci.edu
  deniedExtensions:
    - xml
  trapThreshold: 4
  maxDepth: 6
  robotsAgent: scopecrawl
crawl:
  seeds:
    - https://www.ics.uci.edu
  workers: 8
  maxPages: 200
  delay: 0s
  timeout: 10s
  charset: iso-8859-1
  rootRelative: resolve
  topN: 20
  summaryFile: out/summary.md
  summaryFormat: markdown
defaults:
  cookie: "consent=yes"
hosts:
  www.ics.uci.edu:
    headers:
      Authorization: "Bearer token"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cf.Scope.TrapThreshold != 4 || cf.Scope.MaxDepth != 6 {
			t.Errorf("unexpected scope section: %+v", cf.Scope)
		}
		if cf.Crawl.Timeout != 10*time.Second {
			t.Errorf("expected 10s timeout, got %v", cf.Crawl.Timeout)
		}
		if cf.Crawl.Delay == nil || *cf.Crawl.Delay != 0 {
			t.Errorf("expected explicit zero delay, got %v", cf.Crawl.Delay)
		}
		if cf.Defaults.Cookie != "consent=yes" {
			t.Errorf("expected default cookie, got %q", cf.Defaults.Cookie)
		}
		if cf.Hosts["www.ics.uci.edu"].Headers["Authorization"] != "Bearer token" {
			t.Errorf("expected Authorization header, got %+v", cf.Hosts)
		}

		cfg := NewConfig()
		cf.ApplyTo(cfg)

		if len(cfg.AllowedDomains) != 1 || cfg.AllowedDomains[0] != "ics.uci.edu" {
			t.Errorf("unexpected domains %v", cfg.AllowedDomains)
		}
		if len(cfg.DeniedExtensions) != 1 || cfg.DeniedExtensions[0] != "xml" {
			t.Errorf("unexpected denied extensions %v", cfg.DeniedExtensions)
		}
		if cfg.RobotsAgent != "scopecrawl" {
			t.Errorf("unexpected robots agent %q", cfg.RobotsAgent)
		}
		if len(cfg.Seeds) != 1 || cfg.Workers != 8 || cfg.MaxPages != 200 {
			t.Errorf("unexpected crawl settings: seeds=%v workers=%d maxPages=%d", cfg.Seeds, cfg.Workers, cfg.MaxPages)
		}
		if cfg.CrawlDelay != 0 {
			t.Errorf("expected delay to be disabled, got %v", cfg.CrawlDelay)
		}
		if cfg.Charset != "iso-8859-1" || cfg.RootRelative != RootRelativeResolve {
			t.Errorf("unexpected charset %q or mode %q", cfg.Charset, cfg.RootRelative)
		}
		if cfg.TopN != 20 || cfg.SummaryFile != "out/summary.md" || cfg.SummaryFormat != "markdown" {
			t.Errorf("unexpected summary settings: %d %q %q", cfg.TopN, cfg.SummaryFile, cfg.SummaryFormat)
		}
		if cfg.Hosts != cf {
			t.Error("expected host settings to be attached")
		}
		// Untouched fields keep their defaults.
		if cfg.UserAgent != DefaultUserAgent || cfg.MaxBodySize != DefaultMaxBodySize {
			t.Errorf("expected defaults to be kept: %q %d", cfg.UserAgent, cfg.MaxBodySize)
		}
	})

	t.Run("missing delay keeps the default", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".scopecrawl")
		if err := os.WriteFile(configPath, []byte("crawl:\n  workers: 2\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cfg := NewConfig()
		cf.ApplyTo(cfg)
		if cfg.CrawlDelay != DefaultCrawlDelay {
			t.Errorf("expected default delay, got %v", cfg.CrawlDelay)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".scopecrawl")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("initializes nil Hosts map", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".scopecrawl")
		if err := os.WriteFile(configPath, []byte("defaults:\n  cookie: a=b\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Hosts == nil {
			t.Error("expected Hosts map to be initialized")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if filepath.Base(XDGDataDir()) != AppName {
		t.Errorf("unexpected XDG data dir %q", XDGDataDir())
	}
	if filepath.Base(XDGConfigDir()) != AppName {
		t.Errorf("unexpected XDG config dir %q", XDGConfigDir())
	}
}
