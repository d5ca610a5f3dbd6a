// Package log provides a redacting slog handler for campuscrawl.
//
// The crawler handles three kinds of secrets: the portal session cookie,
// the account password, and the OAuth token pair. All of them travel
// through code paths that log request metadata, so every logger in the
// process is wrapped in SecureHandler, which masks attribute values that
// look like or are keyed as credentials before they reach the underlying
// handler.
package log
