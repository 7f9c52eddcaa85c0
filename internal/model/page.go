package model

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"
)

// FetchResult is the outcome of fetching a single URL.
// It is produced by a fetcher and consumed read-only by the page callback.
type FetchResult struct {
	// RequestedURL is the URL that was handed to the fetcher.
	RequestedURL string `json:"requested_url"`

	// FinalURL is the URL of the page actually served, after redirects.
	// Relative links on the page resolve against this URL.
	FinalURL string `json:"final_url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the Content-Type header of the response.
	ContentType string `json:"content_type,omitempty"`

	// Body is the response body. Nil when the fetcher did not keep a body
	// (non-HTML content, transport failure after headers, etc.).
	Body []byte `json:"-"`
}

// OK reports whether the page was served with status 200.
func (r *FetchResult) OK() bool {
	return r != nil && r.StatusCode == http.StatusOK
}

// HasBody reports whether a body is present.
// An empty, non-nil body still counts as present.
func (r *FetchResult) HasBody() bool {
	return r != nil && r.Body != nil
}

// IsHTML returns true if the content type indicates HTML.
func (r *FetchResult) IsHTML() bool {
	ct := strings.ToLower(r.ContentType)
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

// PageRecord is one row of the crawl log.
// It describes what happened to a processed page; it is never used to
// rebuild aggregation state.
type PageRecord struct {
	// ID is the database identifier. Zero before insertion.
	ID int64 `json:"id,omitempty"`

	// URL is the requested URL of the page.
	URL string `json:"url"`

	// FinalURL is the URL after redirects.
	FinalURL string `json:"final_url"`

	// StatusCode is the HTTP status the page was served with.
	StatusCode int `json:"status_code"`

	// Title is the page title, if any.
	Title string `json:"title,omitempty"`

	// LinksFound is the number of candidate links extracted from the page.
	LinksFound int `json:"links_found"`

	// LinksAccepted is the number of candidate links that passed the filter.
	LinksAccepted int `json:"links_accepted"`

	// TokenCount is the number of tokens in the page text.
	TokenCount int `json:"token_count"`

	// Hash is the SHA-256 of the page body.
	Hash string `json:"hash"`

	// Timestamp is when the record was written.
	Timestamp time.Time `json:"timestamp"`
}

// ComputeHash sets Hash from the given body.
func (p *PageRecord) ComputeHash(body []byte) {
	if len(body) == 0 {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256(body)
	p.Hash = hex.EncodeToString(hash[:])
}
