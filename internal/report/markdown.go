package report

import (
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MarkdownWriter outputs the summary in Markdown, designed for
// documentation and sharing. The outcome distribution is rendered as
// a mermaid pie chart.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeOutcomes(md, summary)
	w.writeIdentities(md, summary)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *Summary) {
	md.H1("Campus Crawl Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", summary.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Highest crawl id", strconv.Itoa(summary.MaxCrawlID)},
			{"Profile fetches", strconv.Itoa(summary.Requests())},
			{"Directory searches", strconv.Itoa(summary.Searches)},
			{"Stored identities", strconv.Itoa(summary.Identities)},
			{"Errors", strconv.Itoa(summary.Errors)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeOutcomes(md *markdown.Markdown, summary *Summary) {
	md.H2("Outcomes")
	md.PlainText("")

	if len(summary.Outcomes) == 0 {
		md.PlainText("No requests audited yet.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summary.Outcomes))
	for i, outcome := range summary.Outcomes {
		rows[i] = []string{outcome.Outcome, strconv.Itoa(outcome.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Outcome Distribution"),
		piechart.WithShowData(true),
	)
	for _, outcome := range summary.Outcomes {
		if outcome.Count > 0 {
			chart.LabelAndIntValue(outcome.Outcome, uint64(outcome.Count))
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeIdentities(md *markdown.Markdown, summary *Summary) {
	md.H2("Identities")
	md.PlainText("")

	if summary.Identities == 0 {
		md.PlainText("No identities stored yet.")
		md.PlainText("")
		return
	}

	title := cases.Title(language.English)
	names := make([]string, 0, len(summary.Types))
	for name := range summary.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	typeLines := make([]string, 0, len(names))
	for _, name := range names {
		typeLines = append(typeLines, title.String(name)+": "+strconv.Itoa(summary.Types[name]))
	}
	md.BulletList(typeLines...)
	md.PlainText("")

	if len(summary.Recent) == 0 {
		return
	}
	md.H3("Most recently crawled")
	md.PlainText("")
	rows := make([][]string, len(summary.Recent))
	for i, identity := range summary.Recent {
		rows[i] = []string{
			strconv.Itoa(identity.CrawlID),
			identity.FullName,
			identity.Email,
			identity.Type,
			identity.Campus,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Crawl ID", "Name", "Email", "Type", "Campus"},
		Rows:   rows,
	})
	md.PlainText("")
}
