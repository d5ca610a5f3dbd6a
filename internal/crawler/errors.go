package crawler

import "errors"

// ErrTooManyFailures is returned by Run when the per-id failure count
// reaches the configured threshold. The store is left intact; the
// operator is expected to inspect the error log before restarting.
var ErrTooManyFailures = errors.New("too many failures, stopping crawl")
