package crawler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/nao1215/scopecrawl/internal/model"
	"github.com/nao1215/scopecrawl/internal/scope"
)

// TrapGuard rejects links that would lead the crawler into a loop or into
// an unreasonably deep part of a site. *scope.Filter implements it.
type TrapGuard interface {
	Trapped(u *url.URL) bool
}

// Extraction is what a single parse of a page yields.
type Extraction struct {
	// Links are the normalized, untrapped links in document order.
	// Duplicates are kept.
	Links []string

	// Text is the visible text of the page.
	Text string

	// Title is the page title.
	Title string

	// HrefCount is the number of anchors with an href before normalization.
	HrefCount int
}

// Extractor turns a fetched page into candidate links.
type Extractor struct {
	parser *Parser
	guard  TrapGuard
	mode   RootRelativeMode
	logger *slog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithTrapGuard sets the guard used to drop trapped and deep links.
func WithTrapGuard(guard TrapGuard) ExtractorOption {
	return func(e *Extractor) {
		e.guard = guard
	}
}

// WithRootRelativeMode sets how "/path" hrefs are joined.
func WithRootRelativeMode(mode RootRelativeMode) ExtractorOption {
	return func(e *Extractor) {
		e.mode = mode
	}
}

// WithExtractorLogger sets a custom logger.
func WithExtractorLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates an Extractor. Without WithTrapGuard the default
// trap threshold and depth limit apply.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		parser: NewParser(),
		mode:   RootRelativeConcat,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.guard == nil {
		e.guard = scope.NewFilter(scope.WithLogger(e.logger))
	}

	return e
}

// ExtractLinks returns the candidate links of a page.
// A page that is not a 200 response or has no body yields no links.
func (e *Extractor) ExtractLinks(requested string, res *model.FetchResult) ([]string, error) {
	ex, err := e.Extract(requested, res)
	if err != nil {
		return nil, err
	}
	return ex.Links, nil
}

// Extract parses the page once and returns its links and text.
// A page that is not a 200 response or has no body yields an empty
// Extraction.
func (e *Extractor) Extract(requested string, res *model.FetchResult) (*Extraction, error) {
	empty := &Extraction{Links: make([]string, 0)}
	if !res.OK() || !res.HasBody() {
		return empty, nil
	}

	parsed, err := e.parser.Parse(bytes.NewReader(res.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", requested, err)
	}

	final := e.finalURL(requested, res)

	links := make([]string, 0, len(parsed.Hrefs))
	for _, href := range parsed.Hrefs {
		u, ok := normalize(requested, final, href, e.mode)
		if !ok {
			continue
		}
		if e.guard.Trapped(u) {
			e.logger.Debug("dropping trapped link", "url", u.String())
			continue
		}
		links = append(links, u.String())
	}

	return &Extraction{
		Links:     links,
		Text:      parsed.Text,
		Title:     parsed.Title,
		HrefCount: len(parsed.Hrefs),
	}, nil
}

// finalURL returns the URL relative links are resolved against.
func (e *Extractor) finalURL(requested string, res *model.FetchResult) *url.URL {
	raw := res.FinalURL
	if raw == "" {
		raw = requested
	}
	u, err := url.Parse(raw)
	if err != nil {
		e.logger.Debug("unparsable final URL", "url", raw, "error", err)
		return nil
	}
	return u
}
