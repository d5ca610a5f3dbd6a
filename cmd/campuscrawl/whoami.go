package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/miyata-dev/campuscrawl/internal/auth"
	"github.com/miyata-dev/campuscrawl/internal/config"
	"github.com/miyata-dev/campuscrawl/internal/directory"
	"github.com/miyata-dev/campuscrawl/internal/log"
	"github.com/miyata-dev/campuscrawl/internal/webclient"
)

// NewWhoamiCmd creates the whoami command.
func NewWhoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the directory record of the crawling account",
		Long: `Whoami logs into the directory API with the configured credentials and
prints the account's own record. Useful for verifying the credentials
and the realm configuration before starting a crawl.`,
		Args: cobra.NoArgs,
		RunE: runWhoamiCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .campuscrawl in current or home directory)")

	return cmd
}

// runWhoamiCmd executes the whoami command.
func runWhoamiCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.New()
	cfg.Verbose = getVerboseFlag(cmd)

	configFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	if err := loadConfigInto(cfg, configFlag); err != nil {
		return err
	}
	if err := cfg.ValidateDirectoryOnly(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)

	httpOpts := webclient.DefaultOptions()
	httpOpts.RequestTimeout = cfg.RequestTimeout
	httpOpts.ConnectTimeout = cfg.ConnectTimeout
	httpOpts.RetryAttempts = cfg.RetryAttempts
	httpClient := webclient.New(httpOpts)

	session := auth.NewSession(httpClient,
		cfg.AuthorityURL, cfg.ClientID, cfg.RedirectURI,
		cfg.Username, cfg.Password,
		auth.WithLogger(logger))
	client := directory.NewClient(httpClient, cfg.DirectoryURL, session)

	account, err := client.Me(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "name:   %s\n", account.FullName)
	fmt.Fprintf(out, "email:  %s\n", account.Email)
	fmt.Fprintf(out, "type:   %s\n", account.Type)
	if len(account.Roles) > 0 {
		fmt.Fprintf(out, "roles:  %s\n", strings.Join(account.Roles, ", "))
	}
	if account.Campus != "" {
		fmt.Fprintf(out, "campus: %s\n", account.Campus)
	}
	return nil
}
