package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".scopecrawl"

// ScopeSection is the "scope" block of the configuration file.
// Zero values leave the corresponding Config field untouched.
type ScopeSection struct {
	AllowedDomains   []string `yaml:"allowedDomains,omitempty"`
	DeniedExtensions []string `yaml:"deniedExtensions,omitempty"`
	TrapThreshold    int      `yaml:"trapThreshold,omitempty"`
	MaxDepth         int      `yaml:"maxDepth,omitempty"`
	RobotsAgent      string   `yaml:"robotsAgent,omitempty"`
}

// CrawlSection is the "crawl" block of the configuration file.
// Durations use Go syntax ("500ms", "30s").
type CrawlSection struct {
	Seeds         []string       `yaml:"seeds,omitempty"`
	Workers       int            `yaml:"workers,omitempty"`
	MaxPages      int            `yaml:"maxPages,omitempty"`
	Delay         *time.Duration `yaml:"delay,omitempty"`
	Timeout       time.Duration  `yaml:"timeout,omitempty"`
	UserAgent     string         `yaml:"userAgent,omitempty"`
	MaxBodySize   int64          `yaml:"maxBodySize,omitempty"`
	Charset       string         `yaml:"charset,omitempty"`
	RootRelative  string         `yaml:"rootRelative,omitempty"`
	TopN          int            `yaml:"topN,omitempty"`
	SummaryFile   string         `yaml:"summaryFile,omitempty"`
	SummaryFormat string         `yaml:"summaryFormat,omitempty"`
}

// File represents the structure of the .scopecrawl configuration file.
type File struct {
	// Scope narrows or widens what the crawl may visit.
	Scope ScopeSection `yaml:"scope,omitempty"`

	// Crawl tunes the crawl driver and the summary output.
	Crawl CrawlSection `yaml:"crawl,omitempty"`

	// Hosts maps host names to their request settings.
	// Keys are host names without scheme or port (e.g., "www.ics.uci.edu").
	Hosts map[string]HostConfig `yaml:"hosts,omitempty"`

	// Defaults contains request settings applied to all hosts unless
	// overridden in the host-specific configuration.
	Defaults HostConfig `yaml:"defaults,omitempty"`
}

// NewFile returns an empty configuration file.
func NewFile() *File {
	return &File{Hosts: make(map[string]HostConfig)}
}

// LoadConfigFile loads a configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	cf := NewFile()
	if err := yaml.Unmarshal(data, cf); err != nil {
		return nil, err
	}
	if cf.Hosts == nil {
		cf.Hosts = make(map[string]HostConfig)
	}
	return cf, nil
}

// ApplyTo copies every value set in the file onto cfg. CLI flags are
// applied afterwards, so they win over the file.
func (cf *File) ApplyTo(cfg *Config) {
	s := cf.Scope
	if len(s.AllowedDomains) > 0 {
		cfg.AllowedDomains = s.AllowedDomains
	}
	if len(s.DeniedExtensions) > 0 {
		cfg.DeniedExtensions = s.DeniedExtensions
	}
	if s.TrapThreshold != 0 {
		cfg.TrapThreshold = s.TrapThreshold
	}
	if s.MaxDepth != 0 {
		cfg.MaxDepth = s.MaxDepth
	}
	if s.RobotsAgent != "" {
		cfg.RobotsAgent = s.RobotsAgent
	}

	c := cf.Crawl
	if len(c.Seeds) > 0 {
		cfg.Seeds = c.Seeds
	}
	if c.Workers != 0 {
		cfg.Workers = c.Workers
	}
	if c.MaxPages != 0 {
		cfg.MaxPages = c.MaxPages
	}
	// A pointer so that "delay: 0s" can turn the delay off.
	if c.Delay != nil {
		cfg.CrawlDelay = *c.Delay
	}
	if c.Timeout != 0 {
		cfg.Timeout = c.Timeout
	}
	if c.UserAgent != "" {
		cfg.UserAgent = c.UserAgent
	}
	if c.MaxBodySize != 0 {
		cfg.MaxBodySize = c.MaxBodySize
	}
	if c.Charset != "" {
		cfg.Charset = c.Charset
	}
	if c.RootRelative != "" {
		cfg.RootRelative = c.RootRelative
	}
	if c.TopN != 0 {
		cfg.TopN = c.TopN
	}
	if c.SummaryFile != "" {
		cfg.SummaryFile = c.SummaryFile
	}
	if c.SummaryFormat != "" {
		cfg.SummaryFormat = c.SummaryFormat
	}

	cfg.Hosts = cf
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .scopecrawl in the current directory
// 3. Look for .scopecrawl in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	xdgConfig := filepath.Join(XDGConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}
