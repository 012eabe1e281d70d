// Package report renders session reports.
//
// Three formats are provided:
//   - SimpleWriter: plain text for terminal display
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown for sharing in issues and pull requests
//
// Report data lives in the model package; writers only format it. All
// writers implement Writer so they can be combined with MultiWriter.
package report
