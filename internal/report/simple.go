package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SimpleWriter outputs a human-readable text summary for terminal
// display. Plain ASCII, no colors, safe to pipe anywhere.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *Summary) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\nCAMPUS CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Generated:        %s\n", summary.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "Highest crawl id: %d\n", summary.MaxCrawlID)
	fmt.Fprintf(&sb, "Profile fetches:  %d\n", summary.Requests())
	fmt.Fprintf(&sb, "Searches:         %d\n", summary.Searches)
	fmt.Fprintf(&sb, "Identities:       %d\n", summary.Identities)
	fmt.Fprintf(&sb, "Errors:           %d\n", summary.Errors)

	w.writeOutcomes(&sb, summary)
	w.writeTypes(&sb, summary)
	w.writeRecent(&sb, summary)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeOutcomes(sb *strings.Builder, summary *Summary) {
	sb.WriteString("\nOutcomes\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	if len(summary.Outcomes) == 0 {
		sb.WriteString("  (no requests audited)\n")
		return
	}
	for _, outcome := range summary.Outcomes {
		fmt.Fprintf(sb, "  %-20s %d\n", outcome.Outcome, outcome.Count)
	}
}

func (w *SimpleWriter) writeTypes(sb *strings.Builder, summary *Summary) {
	if len(summary.Types) == 0 {
		return
	}
	sb.WriteString("\nIdentity types\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")

	title := cases.Title(language.English)
	names := make([]string, 0, len(summary.Types))
	for name := range summary.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(sb, "  %-20s %d\n", title.String(name), summary.Types[name])
	}
}

func (w *SimpleWriter) writeRecent(sb *strings.Builder, summary *Summary) {
	if len(summary.Recent) == 0 {
		return
	}
	sb.WriteString("\nRecent identities\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	for _, identity := range summary.Recent {
		fmt.Fprintf(sb, "  %7d  %s <%s>\n", identity.CrawlID, identity.FullName, identity.Email)
	}
}
