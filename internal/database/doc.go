// Package database is the crawl's persistence layer, an SQLite store
// holding the resolved identities, their staff and education
// sub-records, and three append-only audit logs (web requests,
// directory searches, errors).
//
// Deduplication lives in the schema: the identities table carries
// unique constraints on the crawl id, the directory id, and the email,
// and StoreIdentity inserts with OR IGNORE inside one transaction. A
// re-crawled or shared identity is silently skipped and reported to
// the caller as not-stored, never as an error.
package database
