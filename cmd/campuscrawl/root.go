// Package main provides the entry point for the campuscrawl CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/miyata-dev/campuscrawl/internal/crawler"
)

// Exit statuses. The breaker trip gets its own status so supervisors
// can tell "needs manual attention" apart from ordinary failures.
const (
	exitFailure     = 1
	exitBreakerTrip = 3
)

// NewRootCmd creates the root command for campuscrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campuscrawl",
		Short: "Identity resolution crawler for the campus portal",
		Long: `campuscrawl walks the campus portal's numeric profile id space,
resolves each id to a display name, looks the name up in the mobile
directory API, and stores the structured identity records in a local
SQLite database together with a full audit trail.

Runs are resumable: each run continues from the highest stored id,
re-scanning a small overlap window, and stops early when too many
per-id failures accumulate.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewWhoamiCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and maps the error to an exit status.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, crawler.ErrTooManyFailures) {
			os.Exit(exitBreakerTrip)
		}
		os.Exit(exitFailure)
	}
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
