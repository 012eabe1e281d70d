package model

import (
	"encoding/json"
	"fmt"
)

// Finding is one classified outcome for a page or a session.
//
// Design decision: Finding is a tagged variant. The common fields make
// every finding printable by the report writers without a type switch,
// while Detail carries a payload whose concrete type is fixed by Type.
// Consumers that need the structured data switch on Detail.
type Finding struct {
	// Type is the finding type identifier.
	// This maps to findingInfoMapping in severity.go.
	Type FindingType `json:"type"`

	// Severity is the impact level.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity.
	SeverityText string `json:"severity_text"`

	// Title is a short description of the finding.
	Title string `json:"title"`

	// Description provides more detail about the finding.
	Description string `json:"description,omitempty"`

	// Impact explains why this finding matters for search visibility.
	Impact string `json:"impact,omitempty"`

	// Recommendation provides guidance on how to address this finding.
	Recommendation string `json:"recommendation,omitempty"`

	// URL is the page (or canonical origin, for variant findings) the
	// finding is attached to.
	URL string `json:"url"`

	// Detail is the type-specific payload.
	Detail FindingDetail `json:"detail,omitempty"`
}

// FindingDetail is implemented by every type-specific finding payload.
type FindingDetail interface {
	// Summary renders the payload as one line for text reports.
	Summary() string
}

// NewFinding creates a finding with severity, impact and recommendation
// looked up from the finding type.
func NewFinding(findingType FindingType, url, title, description string, detail FindingDetail) Finding {
	info := GetFindingInfo(findingType)
	return Finding{
		Type:           findingType,
		Severity:       info.Severity,
		SeverityText:   info.Severity.String(),
		Title:          title,
		Description:    description,
		Impact:         info.Impact,
		Recommendation: info.Recommendation,
		URL:            url,
		Detail:         detail,
	}
}

// WithSeverity returns a copy of f with the severity overridden.
func (f Finding) WithSeverity(s Severity) Finding {
	f.Severity = s
	f.SeverityText = s.String()
	return f
}

// ExactDuplicateDetail lists the unrelated URLs serving identical content.
type ExactDuplicateDetail struct {
	Fingerprint string   `json:"fingerprint"`
	Duplicates  []string `json:"duplicates"`
	Count       int      `json:"count"`
}

// Summary implements FindingDetail.
func (d ExactDuplicateDetail) Summary() string {
	return fmt.Sprintf("%d duplicate(s): %v", d.Count, d.Duplicates)
}

// RedirectDetail describes a duplicate pair joined by a redirect.
// It is the payload of both FindingTemporaryRedirectDuplicate and
// FindingRedirectConsolidated.
type RedirectDetail struct {
	Partner   string `json:"partner"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	Permanent bool   `json:"permanent"`
}

// Summary implements FindingDetail.
func (d RedirectDetail) Summary() string {
	kind := "temporary"
	if d.Permanent {
		kind = "permanent"
	}
	return fmt.Sprintf("%s redirect %s -> %s", kind, d.Source, d.Target)
}

// NearMatch is one near-duplicate candidate.
type NearMatch struct {
	URL        string  `json:"url"`
	Similarity float64 `json:"similarity"`
	Distance   int     `json:"distance"`
}

// NearDuplicateDetail lists the most similar pages, best first.
type NearDuplicateDetail struct {
	Fingerprint string      `json:"fingerprint"`
	Matches     []NearMatch `json:"matches"`
}

// Summary implements FindingDetail.
func (d NearDuplicateDetail) Summary() string {
	if len(d.Matches) == 0 {
		return "no matches"
	}
	best := d.Matches[0]
	return fmt.Sprintf("%d match(es), best %s at %.1f%%", len(d.Matches), best.URL, best.Similarity)
}

// VariantDetail records the result of probing one domain/protocol variant.
type VariantDetail struct {
	Variant    string `json:"variant"`
	Canonical  string `json:"canonical"`
	StatusCode int    `json:"status_code,omitempty"`
	Location   string `json:"location,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Summary implements FindingDetail.
func (d VariantDetail) Summary() string {
	switch {
	case d.Error != "":
		return fmt.Sprintf("%s: %s", d.Variant, d.Error)
	case d.Location != "":
		return fmt.Sprintf("%s -> %d %s", d.Variant, d.StatusCode, d.Location)
	default:
		return fmt.Sprintf("%s -> %d", d.Variant, d.StatusCode)
	}
}

// BoilerplateDetail holds the main-content ratio of a page.
type BoilerplateDetail struct {
	Ratio      float64 `json:"ratio"`
	Score      float64 `json:"score"`
	MainLength int     `json:"main_length"`
	TotalLen   int     `json:"total_length"`
}

// Summary implements FindingDetail.
func (d BoilerplateDetail) Summary() string {
	return fmt.Sprintf("main content ratio %.2f (%d of %d chars)", d.Ratio, d.MainLength, d.TotalLen)
}

// DecodeDetail decodes a JSON payload into the detail type that belongs
// to findingType. It returns nil for an empty payload.
func DecodeDetail(findingType FindingType, raw []byte) (FindingDetail, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var (
		detail FindingDetail
		err    error
	)
	switch findingType {
	case FindingExactDuplicate:
		var d ExactDuplicateDetail
		err = json.Unmarshal(raw, &d)
		detail = d
	case FindingTemporaryRedirectDuplicate, FindingRedirectConsolidated:
		var d RedirectDetail
		err = json.Unmarshal(raw, &d)
		detail = d
	case FindingNearDuplicate:
		var d NearDuplicateDetail
		err = json.Unmarshal(raw, &d)
		detail = d
	case FindingBoilerplate:
		var d BoilerplateDetail
		err = json.Unmarshal(raw, &d)
		detail = d
	case FindingVariantCorrect, FindingVariantWrongTarget, FindingVariantWrongRedirect,
		FindingVariantDuplicateContent, FindingVariantUnexpectedStatus,
		FindingVariantUnreachable, FindingVariantTimeout:
		var d VariantDetail
		err = json.Unmarshal(raw, &d)
		detail = d
	default:
		return nil, fmt.Errorf("unknown finding type %q", findingType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s detail: %w", findingType, err)
	}
	return detail, nil
}

// UnmarshalJSON decodes a finding and its typed detail payload.
func (f *Finding) UnmarshalJSON(data []byte) error {
	type plain Finding
	aux := struct {
		*plain
		Detail json.RawMessage `json:"detail,omitempty"`
	}{plain: (*plain)(f)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	detail, err := DecodeDetail(f.Type, aux.Detail)
	if err != nil {
		return err
	}
	f.Detail = detail
	return nil
}
