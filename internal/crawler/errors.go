package crawler

import "errors"

var (
	// ErrUnknownRootRelativeMode is returned by ParseRootRelativeMode for an
	// unrecognized mode name.
	ErrUnknownRootRelativeMode = errors.New("unknown root-relative mode: use concat or resolve")

	// ErrNoSeeds is returned by Spider.Crawl when it is given no start URLs.
	ErrNoSeeds = errors.New("no seed URLs to crawl")

	// ErrNoScraper is returned by Spider.Crawl when no Scraper is configured.
	ErrNoScraper = errors.New("no scraper configured")
)
