package model

import (
	"slices"
	"time"
)

// SessionReport is the result of analyzing one crawl session.
//
// Design decision: We use a single struct rather than many small ones
// to simplify serialization and database storage. Severity counts are
// kept in sync by AddFinding so writers never recount.
type SessionReport struct {
	// SessionID identifies the crawl session.
	SessionID string `json:"session_id"`

	// Source is where the pages came from (export file path, etc.).
	Source string `json:"source,omitempty"`

	// StartedAt is when analysis started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when analysis finished.
	FinishedAt time.Time `json:"finished_at"`

	// === Page Statistics ===

	// PagesProcessed is the number of pages handed to the engine.
	PagesProcessed int `json:"pages_processed"`

	// PagesFailed is the number of pages that could not be processed.
	PagesFailed int `json:"pages_failed"`

	// Redirects is the number of redirect edges known for the session.
	Redirects int `json:"redirects"`

	// === Severity Summary ===

	CriticalCount int `json:"critical_count"`
	HighCount     int `json:"high_count"`
	MediumCount   int `json:"medium_count"`
	LowCount      int `json:"low_count"`
	InfoCount     int `json:"info_count"`

	// Findings contains every finding emitted for the session.
	Findings []Finding `json:"findings,omitempty"`

	// Cancelled is true if analysis was interrupted.
	Cancelled bool `json:"cancelled"`

	// Error contains any error that occurred during analysis.
	Error error `json:"-"`

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional

	// Pages holds the pages to analyze. Filled by the import step.
	Pages []Page `json:"-"`

	// RedirectEdges holds the redirect edges imported with the pages.
	RedirectEdges []RedirectEdge `json:"-"`
}

// NewSessionReport creates a new report for the given session.
func NewSessionReport(sessionID string) *SessionReport {
	return &SessionReport{
		SessionID: sessionID,
		StartedAt: time.Now(),
		Findings:  make([]Finding, 0),
	}
}

// AddFinding appends a finding and updates the severity counts.
func (r *SessionReport) AddFinding(finding Finding) {
	r.Findings = append(r.Findings, finding)

	switch finding.Severity {
	case SeverityCritical:
		r.CriticalCount++
	case SeverityHigh:
		r.HighCount++
	case SeverityMedium:
		r.MediumCount++
	case SeverityLow:
		r.LowCount++
	case SeverityInfo:
		r.InfoCount++
	}
}

// AddFindings appends several findings.
func (r *SessionReport) AddFindings(findings []Finding) {
	for _, f := range findings {
		r.AddFinding(f)
	}
}

// SortFindings orders findings by descending severity, then URL, then type.
func (r *SessionReport) SortFindings() {
	slices.SortStableFunc(r.Findings, func(a, b Finding) int {
		if a.Severity != b.Severity {
			return int(b.Severity) - int(a.Severity)
		}
		if a.URL != b.URL {
			if a.URL < b.URL {
				return -1
			}
			return 1
		}
		if a.Type < b.Type {
			return -1
		}
		if a.Type > b.Type {
			return 1
		}
		return 0
	})
}

// SetError records err on the report.
func (r *SessionReport) SetError(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// TotalFindings returns the total number of findings.
func (r *SessionReport) TotalFindings() int {
	return len(r.Findings)
}

// HasFindings returns true if there are any findings.
func (r *SessionReport) HasFindings() bool {
	return len(r.Findings) > 0
}

// GetFindingsBySeverity returns findings filtered by severity.
func (r *SessionReport) GetFindingsBySeverity(severity Severity) []Finding {
	var result []Finding
	for _, f := range r.Findings {
		if f.Severity == severity {
			result = append(result, f)
		}
	}
	return result
}

// Duration returns how long the analysis took.
func (r *SessionReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
