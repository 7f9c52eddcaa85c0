// Package database provides SQLite-based storage for the scopecrawl crawl log.
//
// This package implements the CrawlDB, which stores:
//   - One record per processed page (status, title, link and token counts)
//   - Every summary snapshot emitted during a crawl
//
// The log is never read back into the aggregation store: each crawl starts
// from an empty store. It backs the history command.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. WAL mode lets history run while a crawl is writing
package database
