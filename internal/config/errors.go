package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoSeed is returned when no seed URL is given on the command line
	// or in the configuration file.
	ErrNoSeed = errors.New("no seed specified: provide at least one URL")

	// ErrNoAllowedDomain is returned when the scope allows no host at all.
	ErrNoAllowedDomain = errors.New("no allowed domain: the crawl scope is empty")

	// ErrInvalidTrapThreshold is returned when the trap threshold is below 2.
	// A threshold of 1 would reject every URL with a path.
	ErrInvalidTrapThreshold = errors.New("invalid trap threshold: must be at least 2")

	// ErrInvalidMaxDepth is returned when the path depth limit is not positive.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be positive")

	// ErrInvalidRootRelative is returned for an unknown root-relative mode.
	ErrInvalidRootRelative = errors.New("invalid root-relative mode: must be concat or resolve")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidMaxPages is returned when the page limit is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidTopN is returned when the summary word count is outside 1..50.
	ErrInvalidTopN = errors.New("invalid top word count: must be between 1 and 50")

	// ErrNoSummaryFile is returned when the summary path is empty.
	ErrNoSummaryFile = errors.New("no summary file specified")

	// ErrInvalidSummaryFormat is returned for an unknown summary format.
	ErrInvalidSummaryFormat = errors.New("invalid summary format: must be text, markdown or json")

	// ErrNoDBDir is returned when the crawl log is enabled without a directory.
	ErrNoDBDir = errors.New("no database directory specified")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
