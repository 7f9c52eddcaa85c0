// Package crawler turns fetched pages into candidate links and drives a
// crawl over them.
//
// # Components
//
//   - NormalizeHref: turns an anchor href into an absolute URL
//   - Parser: HTML parser that extracts anchors, title and visible text
//   - Extractor: applies the normalizer and the trap guard to a page
//   - HTTPFetcher: retrieves pages and converts them to UTF-8
//   - Spider: frontier, visited set and worker pool around a Scraper
//
// # Link normalization
//
// Only hrefs starting with "http://", "https://" or "/" become links.
// Protocol-relative hrefs ("//host/path") are always given the https
// scheme. Root-relative hrefs ("/path") are appended to the requested URL
// string by default; RootRelativeResolve switches to RFC 3986 resolution
// against the final page URL instead.
//
// # Politeness
//
// The Spider spaces requests with a token bucket and fetches at most a
// configured number of pages at once. Robots rules are not checked here;
// they belong to the Scraper, which decides what to follow.
//
// # Usage
//
//	fetcher := crawler.NewHTTPFetcher(client)
//	spider := crawler.NewSpider(fetcher, crawler.WithScraper(callback))
//	stats, err := spider.Crawl(ctx, []string{"https://www.ics.uci.edu"})
package crawler
