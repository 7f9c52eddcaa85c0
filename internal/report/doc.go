// Package report renders crawl summaries.
//
// This package contains writers for different output formats:
//   - TextWriter: the plain text summary artifact
//   - MarkdownWriter: GitHub Flavored Markdown with a word chart
//   - JSONWriter: structured JSON output for tool integration
//
// FileSink keeps a summary file current during a crawl. It is rewritten
// after every processed page and replaced atomically, so the file always
// holds one complete summary.
//
// Design decision: We separate report writing from the summary data
// (which lives in the model package) to follow the single responsibility
// principle. This allows adding new output formats without modifying
// the core data structures.
package report
