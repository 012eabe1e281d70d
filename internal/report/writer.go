package report

import (
	"io"

	"github.com/nao1215/dupscan/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs one session report.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.SessionReport) (int, error)

	// WriteAll outputs the reports of several sessions as one document.
	WriteAll(reports []*model.SessionReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.SessionReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteAll outputs the reports to all configured Writers.
func (m *MultiWriter) WriteAll(reports []*model.SessionReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteAll(reports)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// severityOrder lists severities from most to least severe.
var severityOrder = []model.Severity{
	model.SeverityCritical,
	model.SeverityHigh,
	model.SeverityMedium,
	model.SeverityLow,
	model.SeverityInfo,
}

// statusText summarizes how the analysis ended.
func statusText(report *model.SessionReport) string {
	switch {
	case report.Cancelled:
		return "CANCELLED (partial results)"
	case report.ErrorMessage != "":
		return "ERROR - " + report.ErrorMessage
	default:
		return "Complete"
	}
}

// detailSummary returns the one-line payload summary of f, or "".
func detailSummary(f model.Finding) string {
	if f.Detail == nil {
		return ""
	}
	return f.Detail.Summary()
}
