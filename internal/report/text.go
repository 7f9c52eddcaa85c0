package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/scopecrawl/internal/model"
)

const textHeader = "The top 50 common words in the crawled URLs are :\n"

// TextWriter outputs the plain text summary artifact:
//
//	The top 50 common words in the crawled URLs are :
//	<word> : <count>
//	...
//
//	Total Unique URLs found : <integer>
//
// The header is fixed; the word list holds at most Summary.Limit entries.
// Every line, the last one included, ends with a newline.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in the plain text format.
func (w *TextWriter) Write(summary *model.Summary) (int, error) {
	if summary == nil {
		return 0, ErrNilSummary
	}

	var sb strings.Builder

	sb.WriteString(textHeader)
	for _, wc := range summary.TopWords {
		sb.WriteString(fmt.Sprintf("%s : %d\n", wc.Word, wc.Count))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Total Unique URLs found : %d\n", summary.UniqueURLCount))

	return w.output.Write([]byte(sb.String()))
}
