package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nao1215/scopecrawl/internal/model"
	"github.com/nao1215/scopecrawl/internal/store"
)

const (
	// DefaultWorkers is the number of pages fetched concurrently.
	DefaultWorkers = 4

	// DefaultMaxPages bounds the number of fetch attempts of one crawl.
	DefaultMaxPages = 1000

	// DefaultDelay is the minimum interval between two requests.
	DefaultDelay = 500 * time.Millisecond
)

// Scraper processes one fetched page and returns the links to follow.
// An error aborts the whole crawl.
type Scraper interface {
	Scrape(ctx context.Context, requested string, res *model.FetchResult) ([]string, error)
}

// ScraperFunc adapts a function to the Scraper interface.
type ScraperFunc func(ctx context.Context, requested string, res *model.FetchResult) ([]string, error)

// Scrape implements Scraper.
func (f ScraperFunc) Scrape(ctx context.Context, requested string, res *model.FetchResult) ([]string, error) {
	return f(ctx, requested, res)
}

// Spider drives a crawl: it keeps the frontier, fetches pages and hands
// them to a Scraper.
//
// Design decision: the frontier is processed breadth first in waves. All
// pages of a wave are fetched concurrently, bounded by the worker count, and
// the links they return form the next wave in the order the pages were
// queued. This keeps the crawl order reproducible even though fetches
// overlap.
type Spider struct {
	// fetcher retrieves pages.
	fetcher Fetcher

	// scraper decides which links of a page to follow.
	scraper Scraper

	// workers limits concurrent fetches within a wave.
	workers int

	// maxPages limits the total number of fetch attempts.
	maxPages int

	// limiter spaces requests out.
	limiter *rate.Limiter

	logger *slog.Logger

	// mutex protects visited and stats.
	mutex   sync.Mutex
	visited map[string]struct{}
	stats   SpiderStats
}

// SpiderStats contains crawl statistics.
type SpiderStats struct {
	// PagesVisited is the number of fetch attempts.
	PagesVisited int

	// PagesFailed is the number of fetches that returned an error.
	PagesFailed int

	// URLsQueued is the number of distinct URLs ever put on the frontier.
	URLsQueued int
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithScraper sets the page processor.
func WithScraper(scraper Scraper) SpiderOption {
	return func(s *Spider) {
		s.scraper = scraper
	}
}

// WithWorkers sets the number of concurrent fetches.
func WithWorkers(n int) SpiderOption {
	return func(s *Spider) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithMaxPages sets the maximum number of fetch attempts.
// Zero or a negative value means no limit.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// WithDelay sets the minimum interval between requests.
// Zero disables rate limiting.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		if d <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		s.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithSpiderLogger sets a custom logger.
func WithSpiderLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a new Spider that fetches pages with fetcher.
func NewSpider(fetcher Fetcher, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:  fetcher,
		workers:  DefaultWorkers,
		maxPages: DefaultMaxPages,
		limiter:  rate.NewLimiter(rate.Every(DefaultDelay), 1),
		visited:  make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Crawl visits seeds and every link the scraper returns until the frontier
// is empty, the page limit is reached, the context is cancelled or the
// scraper fails.
//
// Fetch errors are logged and skipped. The returned statistics are valid
// even when an error is returned.
func (s *Spider) Crawl(ctx context.Context, seeds []string) (SpiderStats, error) {
	if len(seeds) == 0 {
		return s.Stats(), ErrNoSeeds
	}
	if s.scraper == nil {
		return s.Stats(), ErrNoScraper
	}

	frontier := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		if s.markVisited(seed) {
			frontier = append(frontier, seed)
		}
	}

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return s.Stats(), err
		}

		if s.maxPages > 0 {
			budget := s.maxPages - s.Stats().PagesVisited
			if budget <= 0 {
				s.logger.Info("page limit reached", "max_pages", s.maxPages, "pending", len(frontier))
				break
			}
			if len(frontier) > budget {
				frontier = frontier[:budget]
			}
		}

		next, err := s.runWave(ctx, frontier)
		if err != nil {
			return s.Stats(), err
		}
		frontier = next
	}

	return s.Stats(), nil
}

// runWave fetches and scrapes every URL of a wave and returns the unvisited
// links they produced.
func (s *Spider) runWave(ctx context.Context, wave []string) ([]string, error) {
	found := make([][]string, len(wave))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, pageURL := range wave {
		g.Go(func() error {
			links, err := s.visit(gctx, pageURL)
			if err != nil {
				return err
			}
			found[i] = links
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	next := make([]string, 0)
	for _, links := range found {
		for _, link := range links {
			if s.markVisited(link) {
				next = append(next, link)
			}
		}
	}
	return next, nil
}

// visit fetches one page and passes it to the scraper.
func (s *Spider) visit(ctx context.Context, pageURL string) ([]string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	s.mutex.Lock()
	s.stats.PagesVisited++
	s.mutex.Unlock()

	res, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("fetch failed", "url", pageURL, "error", err)
		s.mutex.Lock()
		s.stats.PagesFailed++
		s.mutex.Unlock()
		return nil, nil
	}

	s.logger.Debug("fetched", "url", pageURL, "status", res.StatusCode, "final_url", res.FinalURL)

	links, err := s.scraper.Scrape(ctx, pageURL, res)
	if err != nil {
		return nil, fmt.Errorf("failed to process %s: %w", pageURL, err)
	}
	return links, nil
}

// markVisited records pageURL and reports whether it was new.
// URLs differing only in their fragment are the same page.
func (s *Spider) markVisited(pageURL string) bool {
	key := store.StripFragment(pageURL)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.visited[key]; ok {
		return false
	}
	s.visited[key] = struct{}{}
	s.stats.URLsQueued++
	return true
}

// Stats returns current crawl statistics.
func (s *Spider) Stats() SpiderStats {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.stats
}
