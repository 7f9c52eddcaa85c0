package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/scopecrawl/internal/model"
)

// chartWords is the number of words drawn in the distribution chart.
const chartWords = 10

// MarkdownWriter outputs summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. Mermaid charts rendered by GitHub
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.Summary) (int, error) {
	if summary == nil {
		return 0, ErrNilSummary
	}

	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Unique URLs", strconv.Itoa(summary.UniqueURLCount)},
			{"Words Listed", strconv.Itoa(len(summary.TopWords))},
		},
	})
	md.PlainText("")

	w.writeWords(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeWords writes the ranked word table and a chart of the leading words.
func (w *MarkdownWriter) writeWords(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Top " + strconv.Itoa(limit(summary)) + " Words")
	md.PlainText("")

	if len(summary.TopWords) == 0 {
		md.PlainText("No words recorded yet.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summary.TopWords))
	for i, wc := range summary.TopWords {
		rows[i] = []string{strconv.Itoa(i + 1), "`" + wc.Word + "`", strconv.Itoa(wc.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Word", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Leading Words"),
		piechart.WithShowData(true),
	)
	for i, wc := range summary.TopWords {
		if i == chartWords {
			break
		}
		chart.LabelAndIntValue(wc.Word, uint64(wc.Count)) //nolint:gosec // counts are never negative
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Summary generated by [scopecrawl](https://github.com/nao1215/scopecrawl)*")
}
