// Package pipeline provides the per-page callback of a crawl.
//
// Every fetched page is run through a fixed sequence of steps that share a
// Page state: status check, record the URL as seen, extract links and
// text, tokenize, merge the word counts into the store, emit a summary
// snapshot, filter the links, and optionally persist a crawl log record.
// The accepted links are returned to the crawl driver.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. Each decision lives in one small step that can be tested on its own
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context between steps
//
// Steps never hold per-page state themselves, so one pipeline can serve
// concurrent pages. The store, the summary sink and the crawl log do their
// own locking.
package pipeline
