package scope

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/nao1215/scopecrawl/internal/robots"
)

// DefaultAllowedDomains are the host substrings a crawl is restricted to.
var DefaultAllowedDomains = []string{
	"ics.uci.edu",
	"cs.uci.edu",
	"informatics.uci.edu",
	"stat.uci.edu",
}

// DefaultDeniedExtensions lists the file extensions of non-HTML resources.
var DefaultDeniedExtensions = []string{
	"css", "js", "bmp", "gif", "jpg", "jpeg", "ico", "png", "tif", "tiff",
	"mid", "mp2", "mp3", "mp4", "wav", "avi", "mov", "mpeg", "ram", "m4v",
	"mkv", "ogg", "ogv", "pdf", "ps", "eps", "tex", "ppt", "pptx", "doc",
	"docx", "xls", "xlsx", "names", "data", "dat", "exe", "bz2", "tar", "msi",
	"bin", "7z", "psd", "dmg", "iso", "epub", "dll", "cnf", "tgz", "sha1",
	"thmx", "mso", "arff", "rtf", "jar", "csv", "rm", "smil", "wmv", "swf",
	"wma", "zip", "rar", "gz",
}

const (
	// DefaultTrapThreshold is the number of occurrences of a single path
	// segment that marks a URL as a trap.
	DefaultTrapThreshold = 3

	// DefaultMaxDepth is the largest accepted number of path segments.
	DefaultMaxDepth = 10

	// DefaultRobotsAgent is the user agent robots rules are evaluated for.
	DefaultRobotsAgent = "*"
)

var deniedExtensions = toSet(DefaultDeniedExtensions)

// Stage identifies one check of the filter.
type Stage int

const (
	// StageNone means no check rejected the URL.
	StageNone Stage = iota
	// StageScheme rejects anything other than http and https.
	StageScheme
	// StageRobots rejects URLs robots.txt forbids or cannot vouch for.
	StageRobots
	// StageDomain rejects hosts outside the allowed domains.
	StageDomain
	// StageTrap rejects paths with a repeated segment.
	StageTrap
	// StageDepth rejects paths that are too deep.
	StageDepth
	// StageExtension rejects non-HTML file extensions.
	StageExtension
)

// String returns the stage name used in logs and CLI output.
func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageScheme:
		return "scheme"
	case StageRobots:
		return "robots"
	case StageDomain:
		return "domain"
	case StageTrap:
		return "trap"
	case StageDepth:
		return "depth"
	case StageExtension:
		return "extension"
	default:
		return "unknown"
	}
}

// Verdict is the result of evaluating one URL.
type Verdict struct {
	// Accepted is true when every check passed.
	Accepted bool

	// Stage is the first check that failed, or StageNone.
	Stage Stage
}

func accept() Verdict {
	return Verdict{Accepted: true, Stage: StageNone}
}

func reject(stage Stage) Verdict {
	return Verdict{Accepted: false, Stage: stage}
}

// Filter applies the crawl scope rules to candidate URLs.
// A Filter is safe for concurrent use when its robots Policy is.
type Filter struct {
	allowedDomains []string
	trapThreshold  int
	maxDepth       int
	extraExts      map[string]struct{}
	policy         robots.Policy
	robotsAgent    string
	logger         *slog.Logger
}

// Option configures a Filter.
type Option func(*Filter)

// WithAllowedDomains replaces the allowed domain substrings.
// Empty entries are ignored.
func WithAllowedDomains(domains ...string) Option {
	return func(f *Filter) {
		f.allowedDomains = f.allowedDomains[:0:0]
		for _, d := range domains {
			d = strings.ToLower(strings.TrimSpace(d))
			if d != "" {
				f.allowedDomains = append(f.allowedDomains, d)
			}
		}
	}
}

// WithTrapThreshold sets how many occurrences of a segment make a trap.
func WithTrapThreshold(n int) Option {
	return func(f *Filter) {
		if n > 0 {
			f.trapThreshold = n
		}
	}
}

// WithMaxDepth sets the largest accepted number of path segments.
func WithMaxDepth(n int) Option {
	return func(f *Filter) {
		if n > 0 {
			f.maxDepth = n
		}
	}
}

// WithDeniedExtensions adds extensions on top of the default denylist.
// A leading dot is optional.
func WithDeniedExtensions(exts ...string) Option {
	return func(f *Filter) {
		for _, e := range exts {
			e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
			if e != "" {
				f.extraExts[e] = struct{}{}
			}
		}
	}
}

// WithRobotsPolicy sets the robots capability consulted by the robots check.
func WithRobotsPolicy(p robots.Policy) Option {
	return func(f *Filter) {
		f.policy = p
	}
}

// WithRobotsAgent sets the user agent robots rules are evaluated for.
func WithRobotsAgent(agent string) Option {
	return func(f *Filter) {
		if agent != "" {
			f.robotsAgent = agent
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Filter) {
		f.logger = logger
	}
}

// NewFilter creates a Filter with the default scope rules.
//
// Without WithRobotsPolicy the filter allows every URL at the robots stage.
// Crawls should always configure a real policy; the default exists for
// offline checks and tests.
func NewFilter(opts ...Option) *Filter {
	f := &Filter{
		allowedDomains: append([]string(nil), DefaultAllowedDomains...),
		trapThreshold:  DefaultTrapThreshold,
		maxDepth:       DefaultMaxDepth,
		extraExts:      make(map[string]struct{}),
		policy:         robots.Static{Decision: robots.Allow},
		robotsAgent:    DefaultRobotsAgent,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}

	return f
}

// Evaluate runs every check against rawURL and reports the first failure.
// The only error it returns wraps ErrMalformedURL.
func (f *Filter) Evaluate(ctx context.Context, rawURL string) (Verdict, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %q: %w", ErrMalformedURL, rawURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return reject(StageScheme), nil
	}

	if d := f.policy.Check(ctx, u, f.robotsAgent); !d.Allowed() {
		if d == robots.Unavailable {
			f.logger.Debug("robots unavailable, rejecting", "url", rawURL)
		}
		return reject(StageRobots), nil
	}

	if !f.InScope(u.Hostname()) {
		return reject(StageDomain), nil
	}

	// Path checks see the path as written; %2F and %2E stay inside their
	// segment.
	path := u.EscapedPath()

	if HasRepeatedSegments(path, f.trapThreshold) {
		return reject(StageTrap), nil
	}

	if ExceedsDepth(path, f.maxDepth) {
		return reject(StageDepth), nil
	}

	if f.deniedExtension(path) {
		return reject(StageExtension), nil
	}

	return accept(), nil
}

// IsValid reports whether rawURL passes every check.
func (f *Filter) IsValid(ctx context.Context, rawURL string) (bool, error) {
	v, err := f.Evaluate(ctx, rawURL)
	if err != nil {
		return false, err
	}
	return v.Accepted, nil
}

// InScope reports whether host contains one of the allowed domains.
func (f *Filter) InScope(host string) bool {
	host = strings.ToLower(host)
	for _, d := range f.allowedDomains {
		if strings.Contains(host, d) {
			return true
		}
	}
	return false
}

// Trapped reports whether u fails the trap or the depth check.
func (f *Filter) Trapped(u *url.URL) bool {
	path := u.EscapedPath()
	return HasRepeatedSegments(path, f.trapThreshold) || ExceedsDepth(path, f.maxDepth)
}

func (f *Filter) deniedExtension(path string) bool {
	ext, ok := extension(path)
	if !ok {
		return false
	}
	if _, denied := deniedExtensions[ext]; denied {
		return true
	}
	_, denied := f.extraExts[ext]
	return denied
}

// HasRepeatedSegments reports whether any non-empty segment of path occurs
// at least threshold times.
func HasRepeatedSegments(path string, threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultTrapThreshold
	}

	counts := make(map[string]int)
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		counts[seg]++
		if counts[seg] >= threshold {
			return true
		}
	}
	return false
}

// ExceedsDepth reports whether path has more than maxDepth segments once
// leading and trailing slashes are removed.
func ExceedsDepth(path string, maxDepth int) bool {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return len(strings.Split(strings.Trim(path, "/"), "/")) > maxDepth
}

// HasDeniedExtension reports whether path ends with a default denied
// extension or one of extra, ignoring case.
func HasDeniedExtension(path string, extra ...string) bool {
	ext, ok := extension(path)
	if !ok {
		return false
	}
	if _, denied := deniedExtensions[ext]; denied {
		return true
	}
	for _, e := range extra {
		if strings.EqualFold(strings.TrimPrefix(e, "."), ext) {
			return true
		}
	}
	return false
}

// extension returns the lowercased text after the last dot of path.
func extension(path string) (string, bool) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 || i == len(path)-1 {
		return "", false
	}
	return strings.ToLower(path[i+1:]), true
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
