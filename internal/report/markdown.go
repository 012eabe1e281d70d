package report

import (
	"io"
	"strconv"

	"github.com/nao1215/dupscan/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format using the
// nao1215/markdown builder. The output renders on GitHub, including
// alerts and the mermaid severity chart.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs one session report in Markdown format.
func (w *MarkdownWriter) Write(report *model.SessionReport) (int, error) {
	return w.WriteAll([]*model.SessionReport{report})
}

// WriteAll outputs every report in one document, one H1 per session.
func (w *MarkdownWriter) WriteAll(reports []*model.SessionReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	for _, report := range reports {
		w.writeHeader(md, report)
		w.writeSummary(md, report)
		w.writeFindings(md, report)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.SessionReport) {
	md.H1("DupScan Report: " + report.SessionID)
	md.PlainText("")

	rows := [][]string{
		{"Session", "`" + report.SessionID + "`"},
	}
	if report.Source != "" {
		rows = append(rows, []string{"Source", "`" + report.Source + "`"})
	}
	rows = append(rows,
		[]string{"Analyzed", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
		[]string{"Pages Processed", strconv.Itoa(report.PagesProcessed)},
		[]string{"Pages Failed", strconv.Itoa(report.PagesFailed)},
		[]string{"Redirects", strconv.Itoa(report.Redirects)},
		[]string{"Status", markdownStatus(report)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func markdownStatus(report *model.SessionReport) string {
	switch {
	case report.Cancelled:
		return "⚠️ Cancelled (partial results)"
	case report.ErrorMessage != "":
		return "❌ Error - " + report.ErrorMessage
	default:
		return "✅ Complete"
	}
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.SessionReport) {
	md.H2("Severity Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(report.CriticalCount)},
			{"🟠 High", strconv.Itoa(report.HighCount)},
			{"🟡 Medium", strconv.Itoa(report.MediumCount)},
			{"🔵 Low", strconv.Itoa(report.LowCount)},
			{"⚪ Info", strconv.Itoa(report.InfoCount)},
			{"**Total**", "**" + strconv.Itoa(report.TotalFindings()) + "**"},
		},
	})
	md.PlainText("")

	if report.HasFindings() {
		w.writePieChart(md, report)
	}
	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of the severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.SessionReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Severity Distribution"),
		piechart.WithShowData(true),
	)

	counts := []struct {
		label string
		count int
	}{
		{"Critical", report.CriticalCount},
		{"High", report.HighCount},
		{"Medium", report.MediumCount},
		{"Low", report.LowCount},
		{"Info", report.InfoCount},
	}
	for _, c := range counts {
		if c.count > 0 {
			chart.LabelAndIntValue(c.label, uint64(c.count))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.SessionReport) {
	switch {
	case report.CriticalCount > 0:
		md.Cautionf(
			"%d page(s) serve content identical to an unrelated URL. Search engines will split ranking between them.",
			report.CriticalCount,
		)
	case report.HighCount > 0:
		md.Warningf(
			"%d duplicate(s) rely on temporary redirects or unconsolidated host variants.",
			report.HighCount,
		)
	case report.MediumCount > 0:
		md.Importantf(
			"%d finding(s) point at near-duplicate content or redirect misconfiguration.",
			report.MediumCount,
		)
	case report.TotalFindings() > 0:
		md.Note("Only low severity and informational findings detected.")
	default:
		md.Tip("No duplicate content detected.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *model.SessionReport) {
	md.H2("Findings")
	md.PlainText("")

	if !report.HasFindings() {
		md.PlainText("No duplicate content findings.")
		md.PlainText("")
		return
	}

	headers := []struct {
		level  model.Severity
		header string
	}{
		{model.SeverityCritical, "🔴 Critical"},
		{model.SeverityHigh, "🟠 High"},
		{model.SeverityMedium, "🟡 Medium"},
		{model.SeverityLow, "🔵 Low"},
		{model.SeverityInfo, "⚪ Info"},
	}

	for _, sev := range headers {
		findings := report.GetFindingsBySeverity(sev.level)
		if len(findings) == 0 {
			continue
		}
		md.H3(sev.header)
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	rows := make([][]string, len(findings))
	for i, f := range findings {
		rows[i] = []string{
			f.Title,
			"`" + truncateString(f.URL, 60) + "`",
			orDash(truncateString(detailSummary(f), 80)),
			orDash(truncateString(f.Recommendation, 60)),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Title", "URL", "Detail", "Recommendation"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, f := range findings {
		if f.Description != "" {
			md.Details(f.Title+" ("+f.URL+")", f.Description)
		}
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [DupScan](https://github.com/nao1215/dupscan)*")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncateString shortens s to maxLen runes, ending with an ellipsis.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
