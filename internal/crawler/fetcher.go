package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/nao1215/scopecrawl/internal/model"
)

const (
	// DefaultUserAgent identifies the crawler in HTTP requests.
	DefaultUserAgent = "scopecrawl/1.0 (+https://github.com/nao1215/scopecrawl)"

	// DefaultMaxBodySize limits how much of a page body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Fetcher retrieves a single URL.
// A non-200 response is not an error; it is reported through the status
// code of the result.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*model.FetchResult, error)
}

// HeaderProvider returns extra request headers for a host.
// It may return nil.
type HeaderProvider func(host string) http.Header

// HTTPFetcher is a Fetcher backed by an http.Client.
type HTTPFetcher struct {
	// client performs the requests. Redirects are followed by the client.
	client *http.Client

	// userAgent is sent with every request.
	userAgent string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// headers supplies per-host headers such as cookies.
	headers HeaderProvider

	// forced, when set, overrides charset detection.
	forced encoding.Encoding

	logger *slog.Logger
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *HTTPFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithHeaderProvider sets the per-host header source.
func WithHeaderProvider(p HeaderProvider) FetcherOption {
	return func(f *HTTPFetcher) {
		f.headers = p
	}
}

// WithCharset forces every body to be decoded with the named encoding
// instead of detecting it. The name is a WHATWG encoding label.
func WithCharset(label string) (FetcherOption, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", label, err)
	}
	return func(f *HTTPFetcher) {
		f.forced = enc
	}, nil
}

// WithFetcherLogger sets a custom logger.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

// NewHTTPFetcher creates an HTTPFetcher.
// The client should carry a timeout; the fetcher adds none of its own.
func NewHTTPFetcher(client *http.Client, opts ...FetcherOption) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}

	f := &HTTPFetcher{
		client:      client,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}

	return f
}

// Fetch performs a GET request for rawURL.
//
// The body is kept only for HTML responses, and is converted to UTF-8
// using the Content-Type charset, a <meta> declaration or a BOM.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*model.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")
	if f.headers != nil {
		for k, values := range f.headers(req.URL.Hostname()) {
			for _, v := range values {
				req.Header.Add(k, v)
			}
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	result := &model.FetchResult{
		RequestedURL: rawURL,
		FinalURL:     finalURL(resp, rawURL),
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
	}

	if !result.IsHTML() {
		f.logger.Debug("skipping non-HTML body", "url", rawURL, "content_type", result.ContentType)
		return result, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", rawURL, err)
	}

	result.Body = f.decode(body, result.ContentType)
	return result, nil
}

// decode converts body to UTF-8.
// Undecodable bodies are returned unchanged.
func (f *HTTPFetcher) decode(body []byte, contentType string) []byte {
	enc := f.forced
	if enc == nil {
		var (
			name    string
			certain bool
		)
		enc, name, certain = charset.DetermineEncoding(body, contentType)
		// The detector falls back to windows-1252 when it finds no
		// declaration, which would mangle undeclared UTF-8 pages.
		if name == "utf-8" || (!certain && utf8.Valid(body)) {
			return body
		}
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		f.logger.Debug("charset conversion failed", "error", err)
		return body
	}
	return decoded
}

// finalURL returns the URL of the response after redirects.
func finalURL(resp *http.Response, fallback string) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	if _, err := url.Parse(fallback); err == nil {
		return fallback
	}
	return ""
}
