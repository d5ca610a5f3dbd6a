package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/miyata-dev/campuscrawl/internal/auth"
	"github.com/miyata-dev/campuscrawl/internal/config"
	"github.com/miyata-dev/campuscrawl/internal/crawler"
	"github.com/miyata-dev/campuscrawl/internal/database"
	"github.com/miyata-dev/campuscrawl/internal/directory"
	"github.com/miyata-dev/campuscrawl/internal/log"
	"github.com/miyata-dev/campuscrawl/internal/scraper"
	"github.com/miyata-dev/campuscrawl/internal/webclient"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Resolve and store identities across the profile id range",
		Long: `Crawl walks the portal's profile ids from the resume checkpoint to the
end of the range. For every id it fetches the profile page, classifies
the result, and, when a name is found, searches the directory API and
stores the structured identity record.

Every page fetch and directory search is audited in the database. The
run stops with exit status 3 when the per-id failure count reaches the
error threshold.

Endpoints and credentials come from the configuration file
(.campuscrawl in the current or home directory) and the
CAMPUSCRAWL_USERNAME, CAMPUSCRAWL_PASSWORD and CAMPUSCRAWL_SESSION
environment variables.`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().IntP("start-floor", "s", config.DefaultStartFloor,
		"Lowest profile id the run may start from")
	cmd.Flags().IntP("end", "e", config.DefaultEndID,
		"Highest profile id to crawl (inclusive)")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of ids processed concurrently")
	cmd.Flags().Int("overlap", config.DefaultOverlapWindow,
		"Number of ids below the stored maximum to re-scan on resume")
	cmd.Flags().Int("max-errors", config.DefaultMaxErrors,
		"Per-id failure count that aborts the run")
	cmd.Flags().DurationP("timeout", "t", config.DefaultRequestTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .campuscrawl in current or home directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildCrawlConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Graceful shutdown on interrupt: the run finishes in-flight ids and
	// returns the context error.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cmd, cfg, logger)
}

// buildCrawlConfig creates a Config from the config file, environment,
// and command flags, in that order of increasing precedence.
func buildCrawlConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.New()
	cfg.Verbose = getVerboseFlag(cmd)

	configFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if err := loadConfigInto(cfg, configFlag); err != nil {
		return nil, err
	}

	if cfg.StartFloor, err = cmd.Flags().GetInt("start-floor"); err != nil {
		return nil, err
	}
	if cfg.EndID, err = cmd.Flags().GetInt("end"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = cmd.Flags().GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.OverlapWindow, err = cmd.Flags().GetInt("overlap"); err != nil {
		return nil, err
	}
	if cfg.MaxErrors, err = cmd.Flags().GetInt("max-errors"); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return nil, err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	return cfg, nil
}

// loadConfigInto applies the configuration file (if any) and the
// environment overrides to cfg. An explicitly specified file must
// exist; the default locations may be absent.
func loadConfigInto(cfg *config.Config, configFlag string) error {
	configPath := config.FindConfigFile(configFlag)
	if configPath == "" {
		if configFlag != "" {
			return fmt.Errorf("configuration file not found: %s", configFlag)
		}
		config.ApplyEnv(cfg)
		return nil
	}

	file, err := config.LoadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	file.Apply(cfg)
	return nil
}

// runCrawl wires the collaborators together and executes the run.
func runCrawl(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	httpOpts := webclient.DefaultOptions()
	httpOpts.RequestTimeout = cfg.RequestTimeout
	httpOpts.ConnectTimeout = cfg.ConnectTimeout
	httpOpts.RetryAttempts = cfg.RetryAttempts
	httpClient := webclient.New(httpOpts)

	session := auth.NewSession(httpClient,
		cfg.AuthorityURL, cfg.ClientID, cfg.RedirectURI,
		cfg.Username, cfg.Password,
		auth.WithLogger(logger))

	logger.Info("initiating directory login")
	if err := session.Login(ctx); err != nil {
		return fmt.Errorf("directory login failed: %w", err)
	}

	resolver := scraper.NewResolver(httpClient, cfg.PortalURL, cfg.SessionCookie,
		scraper.WithLogger(logger))
	dir := directory.NewClient(httpClient, cfg.DirectoryURL, session)

	idb, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := idb.Close(); err != nil {
			logger.Warn("failed to close database", slog.Any("error", err))
		}
	}()

	orchestrator := crawler.New(resolver, dir, idb,
		crawler.WithRange(cfg.StartFloor, cfg.EndID),
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithOverlap(cfg.OverlapWindow),
		crawler.WithMaxErrors(cfg.MaxErrors),
		crawler.WithLogger(logger))

	result, err := orchestrator.Run(ctx)
	if result != nil {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "processed: %d\n", result.Processed)
		fmt.Fprintf(out, "stored:    %d\n", result.Stored)
		fmt.Fprintf(out, "errors:    %d\n", result.Errors)
	}
	return err
}
