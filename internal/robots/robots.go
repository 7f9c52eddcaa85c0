package robots

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"unicode/utf8"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

// Decision is the outcome of a robots lookup.
type Decision int

const (
	// Allow means the URL may be crawled.
	Allow Decision = iota

	// Deny means robots.txt forbids the URL.
	Deny

	// Unavailable means robots.txt could not be retrieved or parsed.
	// It must be handled as a deny.
	Unavailable
)

// String returns a human-readable name of the decision.
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Allowed reports whether the decision permits crawling.
func (d Decision) Allowed() bool {
	return d == Allow
}

// Policy decides whether a user agent may crawl a target URL.
type Policy interface {
	Check(ctx context.Context, target *url.URL, userAgent string) Decision
}

// Static is a Policy that always returns the same decision.
// It is used for offline runs and tests.
type Static struct {
	Decision Decision
}

// Check implements Policy.
func (s Static) Check(_ context.Context, _ *url.URL, _ string) Decision {
	return s.Decision
}

// DefaultMaxBodySize bounds the size of a robots.txt body read from the network.
const DefaultMaxBodySize = 512 * 1024 // 512 KB

// Cache is a Policy backed by robots.txt files fetched over HTTP.
type Cache struct {
	// client performs the robots.txt requests.
	client *http.Client

	// userAgent is sent as the User-Agent header of robots.txt requests.
	// It is unrelated to the agent that rules are evaluated for.
	userAgent string

	// maxBodySize limits how much of a robots.txt body is read.
	maxBodySize int64

	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry

	group singleflight.Group
}

// entry is the cached outcome for one origin.
// When rules is nil, fixed applies to every URL of the origin.
type entry struct {
	rules *robotstxt.RobotsData
	fixed Decision
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithUserAgent sets the User-Agent header used when fetching robots.txt.
func WithUserAgent(ua string) CacheOption {
	return func(c *Cache) {
		c.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum robots.txt body size.
func WithMaxBodySize(size int64) CacheOption {
	return func(c *Cache) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = logger
	}
}

// NewCache creates a Cache that fetches robots.txt with client.
// The client should carry a timeout; Cache adds none of its own.
func NewCache(client *http.Client, opts ...CacheOption) *Cache {
	if client == nil {
		client = http.DefaultClient
	}

	c := &Cache{
		client:      client,
		maxBodySize: DefaultMaxBodySize,
		entries:     make(map[string]*entry),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// Check implements Policy.
func (c *Cache) Check(ctx context.Context, target *url.URL, userAgent string) Decision {
	origin := Origin(target)
	e := c.lookup(ctx, origin)

	if e.rules == nil {
		return e.fixed
	}
	if e.rules.TestAgent(target.RequestURI(), userAgent) {
		return Allow
	}
	return Deny
}

// Size returns the number of cached origins.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// lookup returns the cached entry for origin, fetching it on first use.
func (c *Cache) lookup(ctx context.Context, origin string) *entry {
	c.mu.Lock()
	e, ok := c.entries[origin]
	c.mu.Unlock()
	if ok {
		return e
	}

	v, _, _ := c.group.Do(origin, func() (any, error) { //nolint:errcheck // fetch never fails; failures are encoded in the entry
		c.mu.Lock()
		cached, ok := c.entries[origin]
		c.mu.Unlock()
		if ok {
			return cached, nil
		}

		fetched := c.fetch(ctx, origin)

		// A cancelled caller must not poison the cache for the rest of the session.
		if ctx.Err() == nil {
			c.mu.Lock()
			c.entries[origin] = fetched
			c.mu.Unlock()
		}
		return fetched, nil
	})

	return v.(*entry) //nolint:forcetypeassert // the closure above only returns *entry
}

// fetch retrieves and parses <origin>/robots.txt.
//
// Status handling follows the classic robots parser:
//   - 2xx: parse the body
//   - 401, 403: the whole origin is off limits
//   - other 4xx: no robots file, everything is allowed
//   - anything else, transport errors, undecodable bodies: Unavailable
func (c *Cache) fetch(ctx context.Context, origin string) *entry {
	robotsURL := origin + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		c.logger.Debug("robots request failed", "url", robotsURL, "error", err)
		return &entry{fixed: Unavailable}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("robots fetch failed", "url", robotsURL, "error", err)
		return &entry{fixed: Unavailable}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &entry{fixed: Deny}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &entry{fixed: Allow}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.logger.Debug("robots fetch returned unusable status", "url", robotsURL, "status", resp.StatusCode)
		return &entry{fixed: Unavailable}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		c.logger.Debug("robots body read failed", "url", robotsURL, "error", err)
		return &entry{fixed: Unavailable}
	}

	rules, err := parse(resp.StatusCode, body)
	if err != nil {
		c.logger.Debug("robots parse failed", "url", robotsURL, "error", err)
		return &entry{fixed: Unavailable}
	}

	return &entry{rules: rules}
}

// ErrInvalidEncoding is returned by parse for bodies that are not UTF-8.
var ErrInvalidEncoding = errors.New("robots.txt is not valid UTF-8")

// parse turns a robots.txt body into rules.
func parse(status int, body []byte) (*robotstxt.RobotsData, error) {
	if !utf8.Valid(body) {
		return nil, ErrInvalidEncoding
	}
	return robotstxt.FromStatusAndBytes(status, body)
}

// Origin returns scheme://host of u, the key robots rules are scoped to.
func Origin(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}
