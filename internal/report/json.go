package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/scopecrawl/internal/model"
)

// JSONWriter outputs summaries in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version, when set, wraps the summary in a JSONReport.
	version string

	// now supplies the generation timestamp of wrapped output.
	now func() time.Time
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion wraps every summary in a JSONReport carrying version.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport is a wrapper for the summary with additional metadata.
//
// Design decision: We wrap the summary rather than extending model.Summary
// because this allows us to add output-specific fields without polluting
// the core data structure.
type JSONReport struct {
	// Version is the scopecrawl version that generated this report.
	Version string `json:"version"`

	// GeneratedAt is when the report was rendered.
	GeneratedAt time.Time `json:"generated_at"`

	// Summary is the aggregation snapshot.
	Summary *model.Summary `json:"summary"`
}

// Write outputs the summary in JSON format.
func (w *JSONWriter) Write(summary *model.Summary) (int, error) {
	if summary == nil {
		return 0, ErrNilSummary
	}

	if w.version != "" {
		return w.writeJSON(&JSONReport{
			Version:     w.version,
			GeneratedAt: w.now().UTC(),
			Summary:     summary,
		})
	}
	return w.writeJSON(summary)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
