package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nao1215/scopecrawl/internal/config"
	"github.com/nao1215/scopecrawl/internal/crawler"
	"github.com/nao1215/scopecrawl/internal/database"
	"github.com/nao1215/scopecrawl/internal/log"
	"github.com/nao1215/scopecrawl/internal/pipeline"
	"github.com/nao1215/scopecrawl/internal/report"
	"github.com/nao1215/scopecrawl/internal/robots"
	"github.com/nao1215/scopecrawl/internal/scope"
	"github.com/nao1215/scopecrawl/internal/store"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url...]",
		Short: "Crawl the allowed domains starting from seed URLs",
		Long: `Crawl fetches the seed URLs and follows every link that passes the scope
filter: http(s) only, allowed by robots.txt, inside an allowed domain, not a
crawler trap, not too deep and not a known non-HTML resource.

After each page the summary file is rewritten with the most common words seen
so far and the number of unique pages. Page records and summaries are also
kept in a crawl log in the XDG data directory unless --no-db is given.

Examples:
  # Crawl the ICS front page with default settings
  scopecrawl crawl https://www.ics.uci.edu

  # Limit the crawl and write a Markdown summary
  scopecrawl crawl -p 200 -f markdown -o summary.md https://www.ics.uci.edu

  # Resolve root-relative links against the final page URL
  scopecrawl crawl --root-relative resolve https://www.stat.uci.edu

  # Use a custom configuration file
  scopecrawl crawl -c crawl.yaml

Configuration file (.scopecrawl) example:
  crawl:
    seeds:
      - https://www.ics.uci.edu
    delay: 1s
  hosts:
    intranet.ics.uci.edu:
      cookie: "session_id=abc123"`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .scopecrawl in current or home directory)")

	// Scope flags
	cmd.Flags().StringSliceP("domain", "D", config.DefaultAllowedDomains(),
		"Allowed domain substrings")
	cmd.Flags().StringSlice("deny-ext", nil,
		"Additional file extensions to reject (e.g. xml,json)")
	cmd.Flags().Int("trap-threshold", config.DefaultTrapThreshold,
		"Number of repeats of one path segment that marks a trap")
	cmd.Flags().Int("max-depth", config.DefaultMaxDepth,
		"Maximum number of path segments in a URL")
	cmd.Flags().String("robots-agent", config.DefaultRobotsAgent,
		"User agent matched against robots.txt groups")
	cmd.Flags().String("root-relative", config.DefaultRootRelative,
		"Join mode for root-relative links: concat or resolve")

	// Crawl behavior flags
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent fetches")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to fetch")
	cmd.Flags().DurationP("delay", "d", config.DefaultCrawlDelay,
		"Minimum interval between requests (0 disables)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header for requests")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum number of body bytes read per page")
	cmd.Flags().String("charset", "",
		"Force a page encoding instead of detecting it (e.g. iso-8859-1)")

	// Summary flags
	cmd.Flags().IntP("top", "n", config.DefaultTopN,
		"Number of words in the summary (1-50); the text header always reads \"The top 50\"")
	cmd.Flags().StringP("output", "o", config.DefaultSummaryFile,
		"Summary file, rewritten after every page")
	cmd.Flags().StringP("format", "f", config.DefaultSummaryFormat,
		"Summary format: text, markdown or json")
	cmd.Flags().Bool("print", false,
		"Also print the final summary to stdout")

	// Crawl log flags
	cmd.Flags().String("db-dir", "",
		"Crawl log directory (default: XDG data directory)")
	cmd.Flags().Bool("no-db", false,
		"Do not keep a crawl log")

	cmd.Flags().Bool("json-log", false, "Write logs as JSON")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, stopping crawl...")
			cancel()
		case <-ctx.Done():
		}
	}()

	printSummary, err := cmd.Flags().GetBool("print")
	if err != nil {
		return err
	}

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout(), printSummary)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// override copies a flag value to dst when the user set the flag.
// Flags that were left alone must not clobber values from the config file.
func override[T any](cmd *cobra.Command, name string, get func(string) (T, error), dst *T) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := get(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// loadConfigFile applies the configuration file to cfg.
// If the user explicitly specified a path, a missing file is an error.
// Otherwise the search falls back to built-in defaults.
func loadConfigFile(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath == "" {
		if cfg.ConfigFilePath != "" {
			return fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
		}
		return nil
	}

	cf, err := config.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	cf.ApplyTo(cfg)
	return nil
}

// buildConfig creates a Config from defaults, the configuration file and
// cobra command flags, in that order of precedence.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	if err := loadConfigFile(cmd, cfg); err != nil {
		return nil, err
	}

	// Commands define different subsets of these flags. Undefined flags
	// are never marked as changed.
	noDB := false
	flags := cmd.Flags()
	overrides := []error{
		override(cmd, "domain", flags.GetStringSlice, &cfg.AllowedDomains),
		override(cmd, "deny-ext", flags.GetStringSlice, &cfg.DeniedExtensions),
		override(cmd, "trap-threshold", flags.GetInt, &cfg.TrapThreshold),
		override(cmd, "max-depth", flags.GetInt, &cfg.MaxDepth),
		override(cmd, "robots-agent", flags.GetString, &cfg.RobotsAgent),
		override(cmd, "root-relative", flags.GetString, &cfg.RootRelative),
		override(cmd, "workers", flags.GetInt, &cfg.Workers),
		override(cmd, "max-pages", flags.GetInt, &cfg.MaxPages),
		override(cmd, "delay", flags.GetDuration, &cfg.CrawlDelay),
		override(cmd, "timeout", flags.GetDuration, &cfg.Timeout),
		override(cmd, "user-agent", flags.GetString, &cfg.UserAgent),
		override(cmd, "max-body-size", flags.GetInt64, &cfg.MaxBodySize),
		override(cmd, "charset", flags.GetString, &cfg.Charset),
		override(cmd, "top", flags.GetInt, &cfg.TopN),
		override(cmd, "output", flags.GetString, &cfg.SummaryFile),
		override(cmd, "format", flags.GetString, &cfg.SummaryFormat),
		override(cmd, "db-dir", flags.GetString, &cfg.DBDir),
		override(cmd, "json-log", flags.GetBool, &cfg.JSONLog),
		override(cmd, "no-db", flags.GetBool, &noDB),
	}
	if err := errors.Join(overrides...); err != nil {
		return nil, err
	}
	if noDB {
		cfg.SaveToDB = false
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Positional arguments replace the seeds of the config file.
	if len(args) > 0 {
		cfg.Seeds = args
	}

	return cfg, nil
}

// setupLogger creates a secure structured logger for the crawl.
// Per-host cookies and session parameters in URLs never reach the output.
func setupLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.JSONLog {
		return log.NewSecureJSONLogger(w, cfg.Verbose)
	}
	return log.NewSecureLogger(w, cfg.Verbose)
}

// newFilter builds the scope filter shared by crawl and check.
func newFilter(cfg *config.Config, policy robots.Policy, logger *slog.Logger) *scope.Filter {
	return scope.NewFilter(
		scope.WithAllowedDomains(cfg.AllowedDomains...),
		scope.WithDeniedExtensions(cfg.DeniedExtensions...),
		scope.WithTrapThreshold(cfg.TrapThreshold),
		scope.WithMaxDepth(cfg.MaxDepth),
		scope.WithRobotsPolicy(policy),
		scope.WithRobotsAgent(cfg.RobotsAgent),
		scope.WithLogger(logger),
	)
}

// newRobotsCache builds a robots.txt cache that identifies itself with the
// crawler's user agent.
func newRobotsCache(cfg *config.Config, client *http.Client, logger *slog.Logger) *robots.Cache {
	return robots.NewCache(client,
		robots.WithUserAgent(cfg.UserAgent),
		robots.WithLogger(logger),
	)
}

// newFetcher builds the page fetcher with per-host headers and the
// optional forced charset.
func newFetcher(cfg *config.Config, client *http.Client, logger *slog.Logger) (*crawler.HTTPFetcher, error) {
	opts := []crawler.FetcherOption{
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithFetcherLogger(logger),
	}
	if cfg.Hosts != nil {
		opts = append(opts, crawler.WithHeaderProvider(cfg.Hosts.HeaderFor))
	}
	if cfg.Charset != "" {
		opt, err := crawler.WithCharset(cfg.Charset)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}
	return crawler.NewHTTPFetcher(client, opts...), nil
}

// runCrawl wires the crawl together and runs it until the frontier is
// empty, the page limit is reached or ctx is cancelled.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer, printSummary bool) error {
	mode, err := crawler.ParseRootRelativeMode(cfg.RootRelative)
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(cfg.SummaryFormat)
	if err != nil {
		return err
	}
	sink, err := report.NewFileSink(cfg.SummaryFile, format)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: cfg.Timeout}
	fetcher, err := newFetcher(cfg, client, logger)
	if err != nil {
		return err
	}
	filter := newFilter(cfg, newRobotsCache(cfg, client, logger), logger)

	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineExtractor(crawler.NewExtractor(
			crawler.WithTrapGuard(filter),
			crawler.WithRootRelativeMode(mode),
			crawler.WithExtractorLogger(logger),
		)),
		pipeline.WithPipelineSink(sink),
		pipeline.WithPipelineTopN(cfg.TopN),
		pipeline.WithPipelineLogger(logger),
	}

	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("crawl log opened", "path", db.Path())
		configOpts = append(configOpts, pipeline.WithPipelineCrawlLog(db))
	}

	s := store.New()
	p := pipeline.DefaultPipeline(s, filter, []pipeline.Option{pipeline.WithLogger(logger)}, configOpts...)

	spider := crawler.NewSpider(fetcher,
		crawler.WithScraper(pipeline.NewCallback(p)),
		crawler.WithWorkers(cfg.Workers),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithDelay(cfg.CrawlDelay),
		crawler.WithSpiderLogger(logger),
	)

	logger.Info("starting crawl",
		"seeds", cfg.Seeds,
		"domains", cfg.AllowedDomains,
		"workers", cfg.Workers,
		"maxPages", cfg.MaxPages,
	)
	fmt.Fprintf(out, "Crawling %s within %s...\n",
		strings.Join(cfg.Seeds, ", "), strings.Join(cfg.AllowedDomains, ", "))

	startTime := time.Now()
	stats, crawlErr := spider.Crawl(ctx, cfg.Seeds)
	elapsed := time.Since(startTime)

	printCrawlStats(out, stats, s.UniqueURLCount(), sink.Path(), elapsed)

	// The sink is rewritten after every processed page. The final write
	// makes sure the file exists even when no page could be processed.
	var final report.Writer = sink
	if printSummary {
		fmt.Fprintln(out)
		final = report.NewMultiWriter(sink, report.NewTextWriter(out))
	}
	if _, err := final.Write(s.Snapshot(cfg.TopN)); err != nil {
		logger.Error("failed to write final summary", "path", sink.Path(), "error", err)
	}

	if crawlErr != nil {
		if errors.Is(crawlErr, context.Canceled) {
			fmt.Fprintln(out, "Crawl interrupted; the summary covers every page processed so far.")
			return nil
		}
		return fmt.Errorf("crawl failed: %w", crawlErr)
	}
	return nil
}

// printCrawlStats prints the end-of-crawl report.
func printCrawlStats(out io.Writer, stats crawler.SpiderStats, uniqueURLs int, summaryPath string, elapsed time.Duration) {
	fmt.Fprintf(out, "\nCrawl completed in %s\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "  Pages fetched:  %d\n", stats.PagesVisited)
	fmt.Fprintf(out, "  Fetch errors:   %d\n", stats.PagesFailed)
	fmt.Fprintf(out, "  URLs queued:    %d\n", stats.URLsQueued)
	fmt.Fprintf(out, "  Unique URLs:    %d\n", uniqueURLs)
	fmt.Fprintf(out, "  Summary:        %s\n", summaryPath)
}
