package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for DupScan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dupscan",
		Short: "Duplicate content and canonicalization checker for crawled sites",
		Long: `DupScan analyzes crawl exports for duplicate content problems that hurt
search visibility.

It reports pages with identical or near-identical text, duplicates that are
only joined by a temporary redirect, www/non-www and http/https variants that
do not redirect to the canonical origin, and pages where boilerplate
outweighs the main content.

Crawl data and findings are stored in a local SQLite database; use
'dupscan sessions' to list and print stored reports.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewSessionsCmd())
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
