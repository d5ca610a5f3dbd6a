package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/miyata-dev/campuscrawl/internal/config"
	"github.com/miyata-dev/campuscrawl/internal/database"
	"github.com/miyata-dev/campuscrawl/internal/report"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the crawl database",
		Long: `Report reads the crawl database and prints a summary: audit counts,
outcome distribution, and the most recently stored identities.

Examples:
  # Plain-text summary to the terminal
  campuscrawl report

  # Markdown report written to a file
  campuscrawl report --markdown -o report.md

  # Machine-readable JSON
  campuscrawl report --json`,
		Args: cobra.NoArgs,
		RunE: runReportCmd,
	}

	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to the specified file (creates directories if needed)")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")

	return cmd
}

// runReportCmd executes the report command.
func runReportCmd(cmd *cobra.Command, _ []string) error {
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if markdownOut && jsonOut {
		return fmt.Errorf("--markdown and --json are mutually exclusive")
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	// Never create an empty store here; a missing database means there
	// is nothing to report on.
	idb, err := database.Open(dbDir, database.Options{CreateIfNotExists: false})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer idb.Close() //nolint:errcheck // read-only access

	summary, err := report.Collect(cmd.Context(), idb)
	if err != nil {
		return err
	}

	destination, closeDestination, err := openReportDestination(cmd.OutOrStdout(), outputPath)
	if err != nil {
		return err
	}
	defer closeDestination()

	var writer report.Writer
	switch {
	case markdownOut:
		writer = report.NewMarkdownWriter(destination)
	case jsonOut:
		writer = report.NewJSONWriter(destination)
	default:
		writer = report.NewSimpleWriter(destination)
	}

	if _, err := writer.Write(summary); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// openReportDestination resolves the output target: stdout by default,
// or a file whose parent directories are created as needed.
func openReportDestination(stdout io.Writer, outputPath string) (io.Writer, func(), error) {
	if outputPath == "" {
		return stdout, func() {}, nil
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	file, err := os.Create(outputPath) //nolint:gosec // user-provided report path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, func() { _ = file.Close() }, nil
}
