// Package directory is the client for the institution's mobile
// directory API, the authoritative source for structured identity
// records. Search turns a display name into candidate matches,
// ProfileByEmail fetches the canonical record behind a match, and Me
// describes the crawling account itself.
//
// Every call authenticates lazily through an auth.Session and sends
// the bearer token. A non-2xx response is an error; the caller decides
// whether that fails one pipeline item or the whole run.
package directory
