package auth

import "errors"

// Authentication errors. Login failures are startup preconditions: the
// crawl cannot proceed without a directory token, so callers treat them
// as fatal rather than per-item failures.
var (
	// ErrNoLoginForm is returned when the authorization endpoint's HTML
	// response contains no form to submit credentials to.
	ErrNoLoginForm = errors.New("authorization page contains no login form")

	// ErrNoAuthCode is returned when the credential submission does not
	// redirect with an authorization code. Usually wrong credentials or a
	// changed login flow.
	ErrNoAuthCode = errors.New("no authorization code in login redirect")

	// ErrNoRefreshToken is returned by Refresh when Login has never
	// succeeded, so there is no refresh token to exchange.
	ErrNoRefreshToken = errors.New("no refresh token available: login first")
)
