// Package webclient builds the HTTP clients shared by the whole crawl.
//
// A single transport carries every request the process makes: profile
// page fetches, directory API calls, and the authentication exchange.
// The transport applies one uniform retry policy (fixed attempts with
// exponential backoff on server-side errors and transport failures) and
// fixed connect/request timeouts, so no caller implements its own retry
// loop.
//
// Two client shapes are exposed: the default redirect-following client,
// and a non-following variant the authentication flow uses to capture
// the authorization code from a redirect Location header.
package webclient
