// Package main provides the entry point for the campuscrawl CLI.
//
// campuscrawl enumerates the campus portal's profile pages, resolves
// each id to a display name, matches the name against the mobile
// directory API, and stores the deduplicated identity records in a
// local SQLite database.
//
// Usage:
//
//	campuscrawl crawl
//	campuscrawl report --markdown
//	campuscrawl whoami
//
// See --help for all available options.
package main

// main is the entry point for campuscrawl.
func main() {
	Execute()
}
