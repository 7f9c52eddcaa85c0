package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/scopecrawl/internal/model"
)

// Writer defines the interface for summary output.
// Implementations render a summary snapshot in one format.
//
// Design decision: We use an interface to allow different output formats
// and destinations. The same summary can go to a file sink, stdout or a
// test buffer with the same API.
type Writer interface {
	// Write renders the summary to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(summary *model.Summary) (int, error)
}

// Format names an output format.
type Format string

const (
	// FormatText is the plain text summary artifact.
	FormatText Format = "text"

	// FormatMarkdown is GitHub Flavored Markdown.
	FormatMarkdown Format = "markdown"

	// FormatJSON is indented JSON.
	FormatJSON Format = "json"
)

// ParseFormat parses a format name. An empty name selects FormatText.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// NewWriter returns the Writer for format writing to output.
func NewWriter(format Format, output io.Writer) (Writer, error) {
	switch format {
	case FormatText, "":
		return NewTextWriter(output), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write summaries, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(summary *model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// limit returns the number of words a header announces.
func limit(summary *model.Summary) int {
	if summary.Limit > 0 {
		return summary.Limit
	}
	return model.DefaultTopN
}
