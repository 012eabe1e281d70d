package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/dupscan/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs human-readable text reports for terminal display.
// Plain ASCII is used so the output can be piped to files unchanged.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose adds descriptions and recommendations to each finding.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs one session report.
func (w *SimpleWriter) Write(report *model.SessionReport) (int, error) {
	var sb strings.Builder
	w.writeReport(&sb, report)
	w.writeFooter(&sb)
	return io.WriteString(w.output, sb.String())
}

// WriteAll outputs every report followed by a single footer.
func (w *SimpleWriter) WriteAll(reports []*model.SessionReport) (int, error) {
	var sb strings.Builder
	for _, report := range reports {
		w.writeReport(&sb, report)
	}
	w.writeFooter(&sb)
	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeReport(sb *strings.Builder, report *model.SessionReport) {
	w.writeHeader(sb, report)
	w.writeSummary(sb, report)
	w.writeFindings(sb, report)
}

// writeHeader writes the report header with session information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.SessionReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                          DUPSCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Session:         %s\n", report.SessionID)
	if report.Source != "" {
		fmt.Fprintf(sb, "Source:          %s\n", report.Source)
	}
	fmt.Fprintf(sb, "Analyzed:        %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if d := report.Duration(); d > 0 {
		fmt.Fprintf(sb, "Duration:        %s\n", d.Round(time.Millisecond))
	}
	fmt.Fprintf(sb, "Pages Processed: %d\n", report.PagesProcessed)
	if report.PagesFailed > 0 {
		fmt.Fprintf(sb, "Pages Failed:    %d\n", report.PagesFailed)
	}
	fmt.Fprintf(sb, "Redirects:       %d\n", report.Redirects)
	fmt.Fprintf(sb, "Status:          %s\n", statusText(report))
	sb.WriteString("\n")
}

// writeSummary writes the severity summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.SessionReport) {
	writeSection(sb, "SEVERITY SUMMARY")

	fmt.Fprintf(sb, "  CRITICAL: %d\n", report.CriticalCount)
	fmt.Fprintf(sb, "  HIGH:     %d\n", report.HighCount)
	fmt.Fprintf(sb, "  MEDIUM:   %d\n", report.MediumCount)
	fmt.Fprintf(sb, "  LOW:      %d\n", report.LowCount)
	fmt.Fprintf(sb, "  INFO:     %d\n", report.InfoCount)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  TOTAL:    %d findings\n", report.TotalFindings())
	sb.WriteString("\n")
}

// writeFindings writes all findings grouped by severity.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *model.SessionReport) {
	if !report.HasFindings() && !w.showEmpty {
		return
	}

	writeSection(sb, "FINDINGS")

	for _, severity := range severityOrder {
		findings := report.GetFindingsBySeverity(severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}
		w.writeFindingsForSeverity(sb, severity, findings)
	}
}

func (w *SimpleWriter) writeFindingsForSeverity(sb *strings.Builder, severity model.Severity, findings []model.Finding) {
	fmt.Fprintf(sb, "[%s] %s\n", severityIndicator(severity), severity.String())

	if len(findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}

	for _, f := range findings {
		fmt.Fprintf(sb, "  * %s\n", f.Title)
		fmt.Fprintf(sb, "    URL: %s\n", f.URL)
		if summary := detailSummary(f); summary != "" {
			fmt.Fprintf(sb, "    Detail: %s\n", summary)
		}
		if w.verbose {
			if f.Description != "" {
				fmt.Fprintf(sb, "    Description: %s\n", f.Description)
			}
			if f.Recommendation != "" {
				fmt.Fprintf(sb, "    Recommendation: %s\n", f.Recommendation)
			}
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("Report generated by DupScan\n")
	sb.WriteString("https://github.com/nao1215/dupscan\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

// severityIndicator returns a visual indicator for the severity level.
func severityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}
