package config

import "errors"

// Configuration validation errors. Package-level sentinels so callers
// can use errors.Is while still getting a readable message.
var (
	// ErrMissingEndpoint is returned when the portal, authority, or
	// directory base URL is absent. There are no compiled-in endpoints;
	// they must come from the config file.
	ErrMissingEndpoint = errors.New("missing endpoint: portal_url, authority_url, and directory_url must be set in the config file")

	// ErrMissingCredentials is returned when the account username or
	// password is absent from both the config file and the environment.
	ErrMissingCredentials = errors.New("missing credentials: set username/password in the config file or CAMPUSCRAWL_USERNAME/CAMPUSCRAWL_PASSWORD")

	// ErrMissingSessionCookie is returned when the portal session cookie
	// is absent. The scraper cannot fetch profile pages without it.
	ErrMissingSessionCookie = errors.New("missing session cookie: set session_cookie in the config file or CAMPUSCRAWL_SESSION")

	// ErrInvalidConcurrency is returned when the pipeline concurrency is
	// not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxErrors is returned when the failure threshold is not
	// positive. A threshold of zero would stop the crawl before it starts.
	ErrInvalidMaxErrors = errors.New("invalid max errors: must be positive")

	// ErrInvalidOverlap is returned when the overlap window is negative.
	ErrInvalidOverlap = errors.New("invalid overlap window: must be non-negative")

	// ErrInvalidRange is returned when the id range is empty or starts
	// below zero.
	ErrInvalidRange = errors.New("invalid id range: end must be >= start floor and the floor non-negative")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRetryAttempts is returned when the retry count is negative.
	ErrInvalidRetryAttempts = errors.New("invalid retry attempts: must be non-negative")
)
