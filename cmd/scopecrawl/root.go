package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for scopecrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scopecrawl",
		Short: "Restricted-domain web crawler with a running word summary",
		Long: `scopecrawl is a web crawler restricted to a set of university domains.

It honors robots.txt, rejects crawler traps and non-HTML resources, and
rewrites a summary of the most common words and the number of unique pages
after every page it processes.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
