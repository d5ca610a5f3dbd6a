// Package auth manages the two credential mechanisms the crawl needs.
//
// The directory API is protected by an OAuth-style authorization-code
// flow against the institution's OpenID Connect realm: Session.Login
// walks the HTML login form, submits the account credentials, captures
// the authorization code from the redirect, and exchanges it for an
// access/refresh token pair. The web portal, by contrast, is reached
// with a static session cookie that is configured directly and never
// refreshed here; the scraper package consumes it as-is.
//
// The token pair is replaced wholesale on login and refresh, never
// partially mutated. A 401 from the directory API does not trigger an
// automatic refresh; the failure surfaces to the caller.
package auth
