// Package report renders a crawl store into human-readable summaries.
// Collect reads the counts and listings out of the database; the
// writers format the resulting Summary as plain text, Markdown, or
// JSON. The Markdown output includes a mermaid pie chart of the
// outcome distribution.
package report
