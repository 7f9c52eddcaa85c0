// Package store holds the crawl-wide aggregation state: the set of unique
// page URLs and the cumulative word frequencies of every processed page.
//
// A Store lives for exactly one crawl session. It is created by the caller
// and handed to the page callback, so independent sessions (and tests) can
// run side by side in one process.
//
// The store is safe for concurrent use. Counts only grow during a session;
// nothing in this package resets or persists them.
package store
