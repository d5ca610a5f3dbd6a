// Package crawler orchestrates the identity resolution run: it walks a
// range of crawl ids, resolves each one against the web portal,
// searches the directory for resolved names, and persists the
// deduplicated identities with a full audit trail.
//
// The orchestrator resumes from the store's highest crawl id minus an
// overlap window, fans out over a bounded worker group, and fails one
// id at a time. Per-id failures land in the error log; only when their
// count reaches the configured threshold does the whole run stop with
// ErrTooManyFailures.
package crawler
