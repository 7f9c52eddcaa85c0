// Package main provides the entry point for the scopecrawl CLI.
//
// scopecrawl crawls a fixed set of university domains, respects robots.txt,
// avoids crawler traps and keeps a running summary of the most common words
// and the number of unique pages it has seen.
//
// Usage:
//
//	scopecrawl crawl https://www.ics.uci.edu
//	scopecrawl check https://www.ics.uci.edu/a/a/a/
//	scopecrawl history
//
// See --help for all available options.
package main

// main is the entry point for scopecrawl.
func main() {
	Execute()
}
