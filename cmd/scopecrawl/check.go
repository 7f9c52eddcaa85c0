package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nao1215/scopecrawl/internal/config"
	"github.com/nao1215/scopecrawl/internal/robots"
	"github.com/nao1215/scopecrawl/internal/scope"
	"github.com/spf13/cobra"
)

// NewCheckCmd creates the check command.
// It runs URLs through the same scope filter the crawl uses and reports
// which check rejected them.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <url>...",
		Short: "Show whether URLs would be crawled",
		Long: `Check evaluates URLs with the crawl's scope filter and prints the verdict.

The checks run in this order and the first failure is reported:
  scheme, robots, domain, trap, depth, extension

Examples:
  # Check a single URL
  scopecrawl check https://www.ics.uci.edu/~lopes/

  # Check without fetching robots.txt
  scopecrawl check --offline https://www.ics.uci.edu/a/a/a/

  # Output verdicts as JSON
  scopecrawl check --json https://www.cs.uci.edu/file.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCheckCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .scopecrawl in current or home directory)")
	cmd.Flags().StringSliceP("domain", "D", config.DefaultAllowedDomains(),
		"Allowed domain substrings")
	cmd.Flags().StringSlice("deny-ext", nil,
		"Additional file extensions to reject")
	cmd.Flags().Int("trap-threshold", config.DefaultTrapThreshold,
		"Number of repeats of one path segment that marks a trap")
	cmd.Flags().Int("max-depth", config.DefaultMaxDepth,
		"Maximum number of path segments in a URL")
	cmd.Flags().String("robots-agent", config.DefaultRobotsAgent,
		"User agent matched against robots.txt groups")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header for robots.txt requests")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each robots.txt request")
	cmd.Flags().Bool("offline", false,
		"Do not fetch robots.txt; the robots check always passes")
	cmd.Flags().BoolP("json", "j", false,
		"Output verdicts as JSON")

	return cmd
}

// checkResult is the verdict for one URL.
type checkResult struct {
	URL      string `json:"url"`
	Accepted bool   `json:"accepted"`
	Stage    string `json:"stage"`
	Error    string `json:"error,omitempty"`
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	offline, err := cmd.Flags().GetBool("offline")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg)

	var policy robots.Policy = robots.Static{Decision: robots.Allow}
	if !offline {
		policy = newRobotsCache(cfg, &http.Client{Timeout: cfg.Timeout}, logger)
	}
	filter := newFilter(cfg, policy, logger)

	results := checkURLs(cmd.Context(), filter, args)
	if asJSON {
		return writeCheckJSON(cmd.OutOrStdout(), results)
	}
	writeCheckText(cmd.OutOrStdout(), results)
	return nil
}

// checkURLs evaluates every URL. A malformed URL is reported with the
// pseudo stage "parse" instead of aborting the command.
func checkURLs(ctx context.Context, filter *scope.Filter, urls []string) []checkResult {
	results := make([]checkResult, 0, len(urls))
	for _, u := range urls {
		verdict, err := filter.Evaluate(ctx, u)
		r := checkResult{
			URL:      u,
			Accepted: verdict.Accepted,
			Stage:    verdict.Stage.String(),
		}
		if err != nil {
			r.Accepted = false
			r.Stage = "parse"
			r.Error = err.Error()
		}
		results = append(results, r)
	}
	return results
}

func writeCheckText(out io.Writer, results []checkResult) {
	for _, r := range results {
		switch {
		case r.Error != "":
			fmt.Fprintf(out, "  [!] %s: %s\n", r.URL, r.Error)
		case r.Accepted:
			fmt.Fprintf(out, "  [+] %s\n", r.URL)
		default:
			fmt.Fprintf(out, "  [-] %s (rejected by %s)\n", r.URL, r.Stage)
		}
	}
}

func writeCheckJSON(out io.Writer, results []checkResult) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}
