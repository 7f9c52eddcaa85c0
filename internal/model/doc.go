// Package model defines the data structures shared across scopecrawl.
//
// This package contains the following main types:
//   - FetchResult: What a fetcher returns for one URL
//   - Summary and WordCount: A snapshot of the crawl-wide aggregation
//   - PageRecord: One entry of the crawl log database
//
// Design decision: We keep these types in a leaf package because the
// crawler, pipeline, store, report and database packages all exchange
// them, and centralizing them prevents import cycles.
package model
