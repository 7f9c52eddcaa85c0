package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/scopecrawl/internal/config"
	"github.com/nao1215/scopecrawl/internal/database"
	"github.com/nao1215/scopecrawl/internal/model"
	"github.com/nao1215/scopecrawl/internal/report"
	"github.com/spf13/cobra"
)

// historyDateFormat is how timestamps are shown in listings.
const historyDateFormat = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
// This command reads the crawl log written by earlier crawls.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the crawl log of earlier crawls",
		Long: `History reads the crawl log that 'scopecrawl crawl' keeps in the XDG data
directory.

Without flags it prints the latest stored summary. A summary snapshot is
stored after every processed page, so the log also shows how the word ranking
developed during a crawl.

Examples:
  # Show the latest summary
  scopecrawl history

  # Show the latest summary as Markdown
  scopecrawl history -f markdown

  # List stored summary snapshots
  scopecrawl history --list

  # List the most recently processed pages
  scopecrawl history --pages -n 20

  # Compare the latest two snapshots
  scopecrawl history --compare

  # Compare the latest snapshot with a specific one
  scopecrawl history --compare --with-id 5`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List stored summary snapshots")
	cmd.Flags().BoolP("pages", "P", false,
		"List processed pages")
	cmd.Flags().BoolP("compare", "C", false,
		"Compare the latest snapshot with an earlier one")
	cmd.Flags().Int64P("with-id", "i", 0,
		"Snapshot ID to compare with (use --list to see available IDs)")
	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of rows to list")
	cmd.Flags().StringP("format", "f", "text",
		"Output format: text, markdown or json")
	cmd.Flags().String("db-dir", "",
		"Crawl log directory (default: XDG data directory)")

	return cmd
}

// historyOptions holds the parsed flags of the history command.
type historyOptions struct {
	list    bool
	pages   bool
	compare bool
	withID  int64
	limit   int
	format  report.Format
	dbDir   string
}

func parseHistoryOptions(cmd *cobra.Command) (*historyOptions, error) {
	flags := cmd.Flags()
	opts := &historyOptions{}

	var err error
	if opts.list, err = flags.GetBool("list"); err != nil {
		return nil, err
	}
	if opts.pages, err = flags.GetBool("pages"); err != nil {
		return nil, err
	}
	if opts.compare, err = flags.GetBool("compare"); err != nil {
		return nil, err
	}
	if opts.withID, err = flags.GetInt64("with-id"); err != nil {
		return nil, err
	}
	if opts.limit, err = flags.GetInt("limit"); err != nil {
		return nil, err
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}

	formatName, err := flags.GetString("format")
	if err != nil {
		return nil, err
	}
	if opts.format, err = report.ParseFormat(formatName); err != nil {
		return nil, err
	}

	modes := 0
	for _, m := range []bool{opts.list, opts.pages, opts.compare} {
		if m {
			modes++
		}
	}
	if modes > 1 {
		return nil, errors.New("--list, --pages and --compare are mutually exclusive")
	}
	if opts.withID != 0 && !opts.compare {
		return nil, errors.New("--with-id requires --compare")
	}
	if opts.limit <= 0 {
		return nil, errors.New("--limit must be positive")
	}
	if opts.dbDir == "" {
		opts.dbDir = config.XDGDataDir()
	}
	return opts, nil
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	// Validate flags before opening the database.
	opts, err := parseHistoryOptions(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	// Never create a database just to report that it is empty.
	db, err := database.Open(opts.dbDir, database.Options{EnableWAL: true})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			fmt.Fprintln(out, "No crawl log found.")
			fmt.Fprintln(out, "\nUse 'scopecrawl crawl <url>' to start a crawl.")
			return nil
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()

	switch {
	case opts.list:
		return listSummaries(ctx, out, db, opts.limit)
	case opts.pages:
		return listPages(ctx, out, db, opts)
	case opts.compare:
		return runSummaryComparison(ctx, out, db, opts)
	default:
		return showLatestSummary(ctx, out, db, opts.format)
	}
}

// showLatestSummary prints the most recent snapshot in the given format.
func showLatestSummary(ctx context.Context, out io.Writer, db *database.CrawlDB, format report.Format) error {
	rec, err := db.GetLatestSummary(ctx)
	if err != nil {
		return fmt.Errorf("failed to get latest summary: %w", err)
	}
	if rec == nil {
		fmt.Fprintln(out, "No summaries found in the crawl log.")
		return nil
	}

	w, err := report.NewWriter(format, out)
	if err != nil {
		return err
	}
	_, err = w.Write(rec.Summary)
	return err
}

// listSummaries lists stored snapshots, newest first.
func listSummaries(ctx context.Context, out io.Writer, db *database.CrawlDB, limit int) error {
	records, err := db.ListSummaries(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list summaries: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No summaries found in the crawl log.")
		return nil
	}

	fmt.Fprintf(out, "Summary snapshots (%d):\n\n", len(records))
	fmt.Fprintf(out, "  %-6s  %-20s  %-12s  %s\n", "ID", "Date", "Unique URLs", "Leading Words")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))

	for _, rec := range records {
		fmt.Fprintf(out, "  %-6d  %-20s  %-12d  %s\n",
			rec.ID,
			rec.Timestamp.Format(historyDateFormat),
			rec.Summary.UniqueURLCount,
			formatLeadingWords(rec.Summary, 3),
		)
	}

	fmt.Fprintln(out, "\nUse 'scopecrawl history --compare --with-id <id>' to compare with a snapshot.")
	return nil
}

// formatLeadingWords formats the first n words of a summary as "word:count".
func formatLeadingWords(summary *model.Summary, n int) string {
	if summary == nil || len(summary.TopWords) == 0 {
		return "-"
	}
	parts := make([]string, 0, n)
	for i, wc := range summary.TopWords {
		if i == n {
			break
		}
		parts = append(parts, wc.Word+":"+strconv.Itoa(wc.Count))
	}
	return strings.Join(parts, " ")
}

// listPages lists processed pages, most recent first.
func listPages(ctx context.Context, out io.Writer, db *database.CrawlDB, opts *historyOptions) error {
	records, err := db.ListPageRecords(ctx, opts.limit)
	if err != nil {
		return fmt.Errorf("failed to list pages: %w", err)
	}

	if opts.format == report.FormatJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	}

	total, err := db.PageCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to count pages: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No pages found in the crawl log.")
		return nil
	}

	fmt.Fprintf(out, "Processed pages (showing %d of %d):\n\n", len(records), total)
	fmt.Fprintf(out, "  %-20s  %-6s  %-7s  %-8s  %s\n", "Date", "Status", "Tokens", "Links", "URL")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))
	for _, rec := range records {
		fmt.Fprintf(out, "  %-20s  %-6d  %-7d  %-8s  %s\n",
			rec.Timestamp.Format(historyDateFormat),
			rec.StatusCode,
			rec.TokenCount,
			fmt.Sprintf("%d/%d", rec.LinksAccepted, rec.LinksFound),
			rec.URL,
		)
	}
	return nil
}

// snapshotMetadata identifies a snapshot in a comparison.
type snapshotMetadata struct {
	ID             int64     `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	UniqueURLCount int       `json:"unique_url_count"`
}

// wordChange is a word present in both snapshots.
type wordChange struct {
	Word          string `json:"word"`
	PreviousRank  int    `json:"previous_rank"`
	CurrentRank   int    `json:"current_rank"`
	PreviousCount int    `json:"previous_count"`
	CurrentCount  int    `json:"current_count"`
}

// summaryComparison is the difference between two snapshots.
type summaryComparison struct {
	Previous     snapshotMetadata  `json:"previous"`
	Current      snapshotMetadata  `json:"current"`
	URLDelta     int               `json:"url_delta"`
	NewWords     []model.WordCount `json:"new_words"`
	DroppedWords []model.WordCount `json:"dropped_words"`
	Changed      []wordChange      `json:"changed"`
}

// runSummaryComparison compares the latest snapshot with an earlier one.
func runSummaryComparison(ctx context.Context, out io.Writer, db *database.CrawlDB, opts *historyOptions) error {
	records, err := db.ListSummaries(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to list summaries: %w", err)
	}
	if len(records) < 2 {
		fmt.Fprintln(out, "At least two summary snapshots are needed for a comparison.")
		return nil
	}

	current := records[0]
	previous := records[1]
	if opts.withID != 0 {
		previous = nil
		for _, rec := range records {
			if rec.ID == opts.withID {
				previous = rec
				break
			}
		}
		if previous == nil {
			return fmt.Errorf("summary snapshot %d not found", opts.withID)
		}
	}

	result := compareSnapshots(previous, current)

	switch opts.format {
	case report.FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case report.FormatMarkdown:
		return outputComparisonMarkdown(out, result)
	default:
		outputComparisonText(out, result)
		return nil
	}
}

// compareSnapshots computes the difference between two snapshots.
// Words are compared by their position in the top word lists.
func compareSnapshots(previous, current *database.SummaryRecord) *summaryComparison {
	result := &summaryComparison{
		Previous: snapshotMetadata{
			ID:             previous.ID,
			Timestamp:      previous.Timestamp,
			UniqueURLCount: previous.Summary.UniqueURLCount,
		},
		Current: snapshotMetadata{
			ID:             current.ID,
			Timestamp:      current.Timestamp,
			UniqueURLCount: current.Summary.UniqueURLCount,
		},
		URLDelta:     current.Summary.UniqueURLCount - previous.Summary.UniqueURLCount,
		NewWords:     []model.WordCount{},
		DroppedWords: []model.WordCount{},
		Changed:      []wordChange{},
	}

	prevRank := make(map[string]int, len(previous.Summary.TopWords))
	for i, wc := range previous.Summary.TopWords {
		prevRank[wc.Word] = i
	}
	curRank := make(map[string]int, len(current.Summary.TopWords))
	for i, wc := range current.Summary.TopWords {
		curRank[wc.Word] = i
	}

	for i, wc := range current.Summary.TopWords {
		p, ok := prevRank[wc.Word]
		if !ok {
			result.NewWords = append(result.NewWords, wc)
			continue
		}
		result.Changed = append(result.Changed, wordChange{
			Word:          wc.Word,
			PreviousRank:  p + 1,
			CurrentRank:   i + 1,
			PreviousCount: previous.Summary.TopWords[p].Count,
			CurrentCount:  wc.Count,
		})
	}
	for _, wc := range previous.Summary.TopWords {
		if _, ok := curRank[wc.Word]; !ok {
			result.DroppedWords = append(result.DroppedWords, wc)
		}
	}

	sort.SliceStable(result.Changed, func(i, j int) bool {
		return result.Changed[i].CurrentRank < result.Changed[j].CurrentRank
	})
	return result
}

// outputComparisonText outputs the comparison in human-readable text format.
func outputComparisonText(out io.Writer, result *summaryComparison) {
	fmt.Fprintln(out, "Summary Comparison")
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\nPrevious snapshot: #%d %s\n", result.Previous.ID, result.Previous.Timestamp.Format(historyDateFormat))
	fmt.Fprintf(out, "Current snapshot:  #%d %s\n", result.Current.ID, result.Current.Timestamp.Format(historyDateFormat))
	fmt.Fprintf(out, "\nUnique URLs: %d -> %d (%s)\n",
		result.Previous.UniqueURLCount, result.Current.UniqueURLCount, formatDelta(result.URLDelta))

	if len(result.NewWords) > 0 {
		fmt.Fprintf(out, "\nNew Words (%d):\n", len(result.NewWords))
		for _, wc := range result.NewWords {
			fmt.Fprintf(out, "  [+] %s : %d\n", wc.Word, wc.Count)
		}
	}

	if len(result.DroppedWords) > 0 {
		fmt.Fprintf(out, "\nDropped Words (%d):\n", len(result.DroppedWords))
		for _, wc := range result.DroppedWords {
			fmt.Fprintf(out, "  [-] %s : %d\n", wc.Word, wc.Count)
		}
	}

	if len(result.Changed) > 0 {
		fmt.Fprintln(out, "\nRanking:")
		fmt.Fprintf(out, "  %-20s  %-10s  %-10s  %s\n", "Word", "Rank", "Count", "Change")
		fmt.Fprintln(out, "  "+strings.Repeat("-", 55))
		for _, c := range result.Changed {
			fmt.Fprintf(out, "  %-20s  %-10s  %-10d  %s\n",
				c.Word,
				fmt.Sprintf("%d -> %d", c.PreviousRank, c.CurrentRank),
				c.CurrentCount,
				formatDelta(c.CurrentCount-c.PreviousCount),
			)
		}
	}
}

// outputComparisonMarkdown outputs the comparison in Markdown format.
func outputComparisonMarkdown(out io.Writer, result *summaryComparison) error {
	md := markdown.NewMarkdown(out)

	md.H1("Summary Comparison")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"Snapshot", "#" + strconv.FormatInt(result.Previous.ID, 10), "#" + strconv.FormatInt(result.Current.ID, 10), "-"},
			{"Date", result.Previous.Timestamp.Format("2006-01-02 15:04"), result.Current.Timestamp.Format("2006-01-02 15:04"), "-"},
			{"Unique URLs", strconv.Itoa(result.Previous.UniqueURLCount), strconv.Itoa(result.Current.UniqueURLCount), formatDelta(result.URLDelta)},
		},
	})
	md.PlainText("")

	if len(result.NewWords) > 0 {
		md.H2(fmt.Sprintf("New Words (%d)", len(result.NewWords)))
		md.PlainText("")
		items := make([]string, len(result.NewWords))
		for i, wc := range result.NewWords {
			items[i] = fmt.Sprintf("`%s` (%d)", wc.Word, wc.Count)
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if len(result.DroppedWords) > 0 {
		md.H2(fmt.Sprintf("Dropped Words (%d)", len(result.DroppedWords)))
		md.PlainText("")
		items := make([]string, len(result.DroppedWords))
		for i, wc := range result.DroppedWords {
			items[i] = fmt.Sprintf("~~`%s` (%d)~~", wc.Word, wc.Count)
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if len(result.Changed) > 0 {
		md.H2("Ranking")
		md.PlainText("")
		rows := make([][]string, len(result.Changed))
		for i, c := range result.Changed {
			rows[i] = []string{
				"`" + c.Word + "`",
				strconv.Itoa(c.PreviousRank) + " → " + strconv.Itoa(c.CurrentRank),
				strconv.Itoa(c.CurrentCount),
				formatDelta(c.CurrentCount - c.PreviousCount),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Word", "Rank", "Count", "Change"},
			Rows:   rows,
		})
	}

	return md.Build()
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}
