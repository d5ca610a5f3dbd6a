package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. The crawl-shape defaults mirror the
// operational values the service tolerates in production; endpoints have
// no defaults and must come from the config file.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "campuscrawl"

	// DefaultConcurrency is the number of per-id pipelines in flight at
	// once. Five is low enough that the portal does not rate-limit the
	// session cookie.
	DefaultConcurrency = 5

	// DefaultOverlapWindow is how many ids below the last persisted crawl
	// id each run re-scans, to pick up ids that failed to persist on a
	// prior run.
	DefaultOverlapWindow = 20

	// DefaultStartFloor is the lowest crawl id a run may start from,
	// regardless of the overlap computation.
	DefaultStartFloor = 1

	// DefaultEndID is the upper bound of the enumerated id space.
	DefaultEndID = 400000

	// DefaultMaxErrors is the crawl-wide failure threshold. When the
	// error counter reaches this value the run stops so a persistent
	// fault class cannot hammer the upstream services.
	DefaultMaxErrors = 50

	// DefaultRequestTimeout bounds each HTTP request end to end.
	DefaultRequestTimeout = 60 * time.Second

	// DefaultConnectTimeout bounds TCP connection establishment.
	DefaultConnectTimeout = 5 * time.Second

	// DefaultRetryAttempts is how many times a request is retried on
	// server-side errors or transport failures before the failure
	// surfaces to the pipeline.
	DefaultRetryAttempts = 3
)

// Config holds all configuration for a campuscrawl run.
//
// A single flat struct is passed through the application by dependency
// injection; there is no global state.
type Config struct {
	// PortalURL is the base URL of the web portal that serves profile
	// pages, e.g. "https://edu.example.org". The scraper fetches
	// {PortalURL}/user/profile.php?id=<n>.
	PortalURL string

	// AuthorityURL is the base URL of the OpenID Connect realm used by
	// the directory API, e.g. "https://sso.example.org/realms/campus".
	AuthorityURL string

	// DirectoryURL is the base URL of the directory API,
	// e.g. "https://api.example.org".
	DirectoryURL string

	// ClientID is the OAuth client id presented during the
	// authorization-code exchange.
	ClientID string

	// RedirectURI is the registered redirect URI of the client. It is
	// never fetched; it only has to match the client registration so the
	// authorization code appears in the redirect Location.
	RedirectURI string

	// Username and Password are the account credentials submitted to the
	// login form.
	Username string
	Password string

	// SessionCookie is the static portal session cookie value used by the
	// scraper (the MoodleSession cookie).
	SessionCookie string

	// StartFloor is the lowest id the checkpoint computation may yield.
	StartFloor int

	// EndID is the inclusive upper bound of the crawl range.
	EndID int

	// OverlapWindow is the number of ids re-scanned below the last
	// persisted maximum.
	OverlapWindow int

	// Concurrency is the maximum number of per-id pipelines in flight.
	Concurrency int

	// MaxErrors is the crawl-wide failure threshold.
	MaxErrors int

	// RequestTimeout bounds each HTTP request.
	RequestTimeout time.Duration

	// ConnectTimeout bounds TCP connection establishment.
	ConnectTimeout time.Duration

	// RetryAttempts is the transport-level retry count.
	RetryAttempts int

	// DBDir is the directory holding the SQLite database. Defaults to
	// the XDG data directory.
	DBDir string

	// Verbose enables debug-level logging.
	Verbose bool
}

// New returns a Config populated with defaults. Endpoints and
// credentials are left empty; they come from the config file and the
// environment.
func New() *Config {
	return &Config{
		StartFloor:     DefaultStartFloor,
		EndID:          DefaultEndID,
		OverlapWindow:  DefaultOverlapWindow,
		Concurrency:    DefaultConcurrency,
		MaxErrors:      DefaultMaxErrors,
		RequestTimeout: DefaultRequestTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		RetryAttempts:  DefaultRetryAttempts,
		DBDir:          XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for campuscrawl.
// On Linux: ~/.local/share/campuscrawl.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks that the configuration can support a crawl.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.PortalURL == "" || c.AuthorityURL == "" || c.DirectoryURL == "" {
		return ErrMissingEndpoint
	}
	if c.Username == "" || c.Password == "" {
		return ErrMissingCredentials
	}
	if c.SessionCookie == "" {
		return ErrMissingSessionCookie
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxErrors <= 0 {
		return ErrInvalidMaxErrors
	}
	if c.OverlapWindow < 0 {
		return ErrInvalidOverlap
	}
	if c.StartFloor < 0 || c.EndID < c.StartFloor {
		return ErrInvalidRange
	}
	if c.RequestTimeout <= 0 || c.ConnectTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.RetryAttempts < 0 {
		return ErrInvalidRetryAttempts
	}
	return nil
}

// ValidateDirectoryOnly checks the subset of configuration needed for
// commands that only talk to the directory API (whoami). The portal
// session cookie is not required there.
func (c *Config) ValidateDirectoryOnly() error {
	if c.AuthorityURL == "" || c.DirectoryURL == "" {
		return ErrMissingEndpoint
	}
	if c.Username == "" || c.Password == "" {
		return ErrMissingCredentials
	}
	if c.RequestTimeout <= 0 || c.ConnectTimeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}
