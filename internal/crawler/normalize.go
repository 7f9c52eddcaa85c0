package crawler

import (
	"net/url"
	"strings"
)

// RootRelativeMode selects how hrefs starting with a single "/" are turned
// into absolute URLs.
type RootRelativeMode int

const (
	// RootRelativeConcat appends the href to the requested URL string as is.
	// "http://a.edu/dir/page" + "/about" becomes "http://a.edu/dir/page/about".
	// This is only equivalent to proper resolution when the requested URL has
	// no path, but it is what the crawler has always done and is the default.
	RootRelativeConcat RootRelativeMode = iota

	// RootRelativeResolve resolves the href against the final page URL
	// following RFC 3986, so "/about" always lands at the host root.
	RootRelativeResolve
)

// String returns the configuration name of the mode.
func (m RootRelativeMode) String() string {
	switch m {
	case RootRelativeConcat:
		return "concat"
	case RootRelativeResolve:
		return "resolve"
	default:
		return "unknown"
	}
}

// ParseRootRelativeMode parses a configuration name produced by String.
// An empty name selects RootRelativeConcat.
func ParseRootRelativeMode(name string) (RootRelativeMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "concat":
		return RootRelativeConcat, nil
	case "resolve":
		return RootRelativeResolve, nil
	default:
		return RootRelativeConcat, ErrUnknownRootRelativeMode
	}
}

// NormalizeHref turns the href of an anchor into an absolute URL.
//
// requested is the URL the page was requested with and final is the URL
// the page was served from after redirects. The rules, applied in order:
//
//  1. "/" alone yields no link.
//  2. anything not starting with "http://", "https://" or "/" yields no link.
//  3. "//host/..." becomes "https://host/...".
//  4. "/path" is joined according to mode.
//  5. absolute http(s) URLs are kept.
//  6. the result is resolved against final; if it cannot be parsed there
//     is no link.
//
// The second return value reports whether a link was produced.
func NormalizeHref(requested string, final *url.URL, href string, mode RootRelativeMode) (string, bool) {
	u, ok := normalize(requested, final, href, mode)
	if !ok {
		return "", false
	}
	return u.String(), true
}

func normalize(requested string, final *url.URL, href string, mode RootRelativeMode) (*url.URL, bool) {
	if href == "/" {
		return nil, false
	}
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") && !strings.HasPrefix(href, "/") {
		return nil, false
	}

	candidate := href
	switch {
	case strings.HasPrefix(href, "//"):
		candidate = "https:" + href
	case strings.HasPrefix(href, "/") && mode == RootRelativeConcat:
		candidate = requested + href
	}

	ref, err := url.Parse(candidate)
	if err != nil {
		return nil, false
	}

	base := final
	if base == nil {
		if b, err := url.Parse(requested); err == nil {
			base = b
		}
	}
	if base == nil {
		if !ref.IsAbs() {
			return nil, false
		}
		return ref, true
	}
	return base.ResolveReference(ref), true
}
