package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/dupscan/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	indentPrefix string
	indentString string

	// version is stamped into the document when non-empty.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion wraps the output in a JSONReport carrying version.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport wraps session reports with the generating tool version.
type JSONReport struct {
	// Version is the DupScan version that generated this report.
	Version string `json:"version"`

	// Reports holds one entry per analyzed session.
	Reports []*model.SessionReport `json:"reports"`
}

// Write outputs one report. Without a version the bare SessionReport is
// written; with one it is wrapped in a JSONReport.
func (w *JSONWriter) Write(report *model.SessionReport) (int, error) {
	if w.version == "" {
		return w.writeJSON(report)
	}
	return w.WriteAll([]*model.SessionReport{report})
}

// WriteAll outputs every report in a single JSONReport document.
func (w *JSONWriter) WriteAll(reports []*model.SessionReport) (int, error) {
	if reports == nil {
		reports = []*model.SessionReport{}
	}
	return w.writeJSON(&JSONReport{
		Version: w.version,
		Reports: reports,
	})
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
