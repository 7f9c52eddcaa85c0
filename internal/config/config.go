package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "scopecrawl"

	// DefaultTimeout bounds each HTTP request, robots.txt included.
	DefaultTimeout = 30 * time.Second

	// DefaultWorkers is the number of pages fetched at once.
	DefaultWorkers = 4

	// DefaultMaxPages caps the number of fetch attempts per crawl.
	DefaultMaxPages = 1000

	// DefaultCrawlDelay is the minimum spacing between two requests.
	// University servers are shared infrastructure; half a second keeps the
	// crawler well below any reasonable rate limit.
	DefaultCrawlDelay = 500 * time.Millisecond

	// DefaultUserAgent identifies scopecrawl in HTTP requests and in
	// robots.txt group matching.
	DefaultUserAgent = "scopecrawl/1.0 (+https://github.com/nao1215/scopecrawl)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultTrapThreshold is the number of occurrences of one path segment
	// that marks a URL as a crawler trap.
	DefaultTrapThreshold = 3

	// DefaultMaxDepth is the maximum number of path segments in a URL.
	DefaultMaxDepth = 10

	// DefaultRobotsAgent is the user agent matched against robots.txt groups.
	DefaultRobotsAgent = "*"

	// DefaultRootRelative is the default join mode for "/path" links.
	DefaultRootRelative = RootRelativeConcat

	// DefaultTopN is the number of words in each summary.
	DefaultTopN = 50

	// MaxTopN bounds TopN; the text summary announces at most 50 words.
	MaxTopN = 50

	// DefaultSummaryFile is where the summary is written, relative to the
	// working directory.
	DefaultSummaryFile = "summary.txt"

	// DefaultSummaryFormat is the format of the summary file.
	DefaultSummaryFormat = "text"
)

// Root-relative join modes.
const (
	// RootRelativeConcat appends "/path" to the requested URL string.
	RootRelativeConcat = "concat"

	// RootRelativeResolve resolves "/path" against the final page URL.
	RootRelativeResolve = "resolve"
)

// DefaultAllowedDomains are the host substrings a crawl is restricted to.
func DefaultAllowedDomains() []string {
	return []string{"ics.uci.edu", "cs.uci.edu", "informatics.uci.edu", "stat.uci.edu"}
}

// Config holds all configuration options for scopecrawl.
// This struct is populated from the configuration file and CLI flags and
// passed through the application via dependency injection rather than
// global state.
//
// Design decision: We use a single flat struct instead of nested structs.
// The YAML file groups the same fields into scope and crawl sections; the
// grouping is a presentation concern of the file format only.
type Config struct {
	// Seeds are the URLs the crawl starts from.
	Seeds []string

	// AllowedDomains are host substrings a URL must contain to be in scope.
	AllowedDomains []string

	// DeniedExtensions are extensions rejected in addition to the built-in
	// list.
	DeniedExtensions []string

	// TrapThreshold is the number of times a path segment may appear
	// before the URL is considered a trap.
	TrapThreshold int

	// MaxDepth is the maximum number of path segments in a crawled URL.
	MaxDepth int

	// RobotsAgent is the user agent used for robots.txt group matching.
	RobotsAgent string

	// RootRelative selects how "/path" links are joined: "concat" or
	// "resolve".
	RootRelative string

	// Workers is the number of pages fetched at once.
	Workers int

	// MaxPages is the maximum number of fetch attempts.
	MaxPages int

	// CrawlDelay is the minimum spacing between two requests.
	// Zero disables the delay.
	CrawlDelay time.Duration

	// Timeout is the timeout of each HTTP request.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// Charset forces a page encoding instead of detecting it.
	// Empty means detect.
	Charset string

	// TopN is the number of words in each summary.
	TopN int

	// SummaryFile is the path the summary is rewritten to after each page.
	SummaryFile string

	// SummaryFormat is the summary format: text, markdown or json.
	SummaryFormat string

	// DBDir is the directory of the crawl log database.
	// Defaults to XDG data directory (~/.local/share/scopecrawl on Linux).
	DBDir string

	// SaveToDB enables the crawl log.
	SaveToDB bool

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// JSONLog switches log output to JSON.
	JSONLog bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .scopecrawl in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Hosts holds per-host request settings loaded from the config file.
	Hosts *File
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, worker
// count). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		AllowedDomains: DefaultAllowedDomains(),
		TrapThreshold:  DefaultTrapThreshold,
		MaxDepth:       DefaultMaxDepth,
		RobotsAgent:    DefaultRobotsAgent,
		RootRelative:   DefaultRootRelative,
		Workers:        DefaultWorkers,
		MaxPages:       DefaultMaxPages,
		CrawlDelay:     DefaultCrawlDelay,
		Timeout:        DefaultTimeout,
		UserAgent:      DefaultUserAgent,
		MaxBodySize:    DefaultMaxBodySize,
		TopN:           DefaultTopN,
		SummaryFile:    DefaultSummaryFile,
		SummaryFormat:  DefaultSummaryFormat,
		DBDir:          XDGDataDir(),
		SaveToDB:       true,
		Hosts:          NewFile(),
	}
}

// XDGDataDir returns the XDG data directory for scopecrawl.
// On Linux: ~/.local/share/scopecrawl
// On macOS: ~/Library/Application Support/scopecrawl
// On Windows: %LOCALAPPDATA%\scopecrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for scopecrawl.
// On Linux: ~/.config/scopecrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// We return the first error found because fixing one error often makes
// others irrelevant.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeed
	}

	if len(c.AllowedDomains) == 0 {
		return ErrNoAllowedDomain
	}

	if c.TrapThreshold < 2 {
		return ErrInvalidTrapThreshold
	}

	if c.MaxDepth <= 0 {
		return ErrInvalidMaxDepth
	}

	if c.RootRelative != RootRelativeConcat && c.RootRelative != RootRelativeResolve {
		return ErrInvalidRootRelative
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}

	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}

	if c.TopN <= 0 || c.TopN > MaxTopN {
		return ErrInvalidTopN
	}

	if c.SummaryFile == "" {
		return ErrNoSummaryFile
	}

	switch strings.ToLower(c.SummaryFormat) {
	case "text", "markdown", "md", "json":
	default:
		return ErrInvalidSummaryFormat
	}

	if c.SaveToDB && c.DBDir == "" {
		return ErrNoDBDir
	}

	return nil
}
