package report

import "errors"

var (
	// ErrUnknownFormat is returned for an unsupported output format name.
	ErrUnknownFormat = errors.New("unknown report format: use text, markdown or json")

	// ErrNilSummary is returned when a writer is handed no summary.
	ErrNilSummary = errors.New("nil summary")

	// ErrEmptySinkPath is returned by NewFileSink when no path is given.
	ErrEmptySinkPath = errors.New("summary file path is empty")
)
