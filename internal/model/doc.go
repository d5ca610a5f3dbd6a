// Package model defines the core data types shared across campuscrawl.
//
// It contains:
//   - ResolutionOutcome, the closed set of results a profile-page fetch
//     can classify into
//   - DirectoryMatch and IdentityProfile, the directory API payloads
//   - the nested sub-records (staff positions, addresses, education)
//
// Types in this package carry no behavior beyond labeling and JSON
// mapping; all I/O lives in the scraper, directory, and database packages.
package model
