package model

// Severity represents how badly a finding hurts search visibility.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Severity int

const (
	// SeverityInfo indicates informational findings that need no action.
	// Examples: consolidated redirects, variants that redirect correctly,
	// variants that could not be reached.
	SeverityInfo Severity = iota

	// SeverityLow indicates minor issues with limited impact.
	// Examples: boilerplate-heavy pages, unexpected variant status codes.
	SeverityLow

	// SeverityMedium indicates issues that dilute ranking signals.
	// Examples: near-duplicate pages, variants using temporary redirects.
	SeverityMedium

	// SeverityHigh indicates serious canonicalization defects.
	// Examples: duplicates joined only by a temporary redirect, variants
	// that serve the full site instead of redirecting.
	SeverityHigh

	// SeverityCritical indicates defects search engines are certain to punish.
	// Example: byte-for-byte identical content on unrelated URLs.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity converts the output of String back to a Severity.
// Unknown text maps to SeverityInfo.
func ParseSeverity(text string) Severity {
	for s := SeverityInfo; s <= SeverityCritical; s++ {
		if s.String() == text {
			return s
		}
	}
	return SeverityInfo
}

// FindingType identifies the kind of outcome a classifier produced.
type FindingType string

// Finding types emitted by the engine.
const (
	FindingExactDuplicate             FindingType = "exact_duplicate"
	FindingTemporaryRedirectDuplicate FindingType = "temporary_redirect_duplicate"
	FindingRedirectConsolidated       FindingType = "redirect_consolidated"
	FindingNearDuplicate              FindingType = "near_duplicate"
	FindingBoilerplate                FindingType = "boilerplate_heavy"

	FindingVariantCorrect          FindingType = "variant_correct"
	FindingVariantWrongTarget      FindingType = "variant_wrong_target"
	FindingVariantWrongRedirect    FindingType = "variant_wrong_redirect_type"
	FindingVariantDuplicateContent FindingType = "variant_duplicate_content"
	FindingVariantUnexpectedStatus FindingType = "variant_unexpected_status"
	FindingVariantUnreachable      FindingType = "variant_unreachable"
	FindingVariantTimeout          FindingType = "variant_timeout"
)

// FindingInfo contains metadata about a finding type including severity,
// impact description, and remediation recommendation.
type FindingInfo struct {
	Severity       Severity
	Impact         string
	Recommendation string
}

// findingInfoMapping maps finding types to their metadata.
// This centralized mapping keeps severities consistent between the
// classifiers, the report writers and the database.
var findingInfoMapping = map[FindingType]FindingInfo{
	FindingExactDuplicate: {
		Severity:       SeverityCritical,
		Impact:         "Identical content on unrelated URLs splits ranking signals and lets search engines pick an arbitrary canonical.",
		Recommendation: "Pick one canonical URL and 301 redirect the others to it, or add rel=canonical pointing at it.",
	},
	FindingTemporaryRedirectDuplicate: {
		Severity:       SeverityHigh,
		Impact:         "A temporary redirect keeps the source URL indexed, so both URLs compete with the same content.",
		Recommendation: "Replace the 302/307 redirect with a 301 or 308 if the move is permanent.",
	},
	FindingRedirectConsolidated: {
		Severity:       SeverityInfo,
		Impact:         "Duplicate content is consolidated with a permanent redirect. Search engines merge the URLs.",
		Recommendation: "No action needed.",
	},
	FindingNearDuplicate: {
		Severity:       SeverityMedium,
		Impact:         "Pages with almost the same content may be filtered from results as thin or duplicate.",
		Recommendation: "Differentiate the page content or consolidate the pages with a canonical URL.",
	},
	FindingBoilerplate: {
		Severity:       SeverityLow,
		Impact:         "Most of the page text is navigation or template chrome, leaving little unique content.",
		Recommendation: "Add substantive main content or reduce repeated header, footer and navigation text.",
	},
	FindingVariantCorrect: {
		Severity:       SeverityInfo,
		Impact:         "The variant permanently redirects to the canonical origin.",
		Recommendation: "No action needed.",
	},
	FindingVariantWrongTarget: {
		Severity:       SeverityHigh,
		Impact:         "The variant redirects permanently, but not to the canonical origin.",
		Recommendation: "Point the redirect at the canonical scheme and host.",
	},
	FindingVariantWrongRedirect: {
		Severity:       SeverityMedium,
		Impact:         "The variant uses a temporary redirect, so search engines may keep it indexed.",
		Recommendation: "Use a 301 or 308 redirect to the canonical origin.",
	},
	FindingVariantDuplicateContent: {
		Severity:       SeverityHigh,
		Impact:         "The variant serves the site directly, duplicating every page under a second origin.",
		Recommendation: "Redirect the variant to the canonical origin with a 301 or 308.",
	},
	FindingVariantUnexpectedStatus: {
		Severity:       SeverityLow,
		Impact:         "The variant answered with an unexpected status code.",
		Recommendation: "Check the server configuration for the variant origin.",
	},
	FindingVariantUnreachable: {
		Severity:       SeverityInfo,
		Impact:         "The variant could not be reached. This is normal when the origin has no DNS record or listener.",
		Recommendation: "No action needed unless the variant is expected to be served.",
	},
	FindingVariantTimeout: {
		Severity:       SeverityInfo,
		Impact:         "The variant did not answer in time.",
		Recommendation: "Check whether the variant origin is firewalled or overloaded.",
	},
}

// GetSeverity returns the severity level for a finding type.
// Returns SeverityInfo if the finding type is not in the mapping.
func GetSeverity(findingType FindingType) Severity {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetFindingInfo returns the full finding information for a finding type.
// Returns a default FindingInfo with SeverityInfo if the type is not in the mapping.
func GetFindingInfo(findingType FindingType) FindingInfo {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info
	}
	return FindingInfo{
		Severity:       SeverityInfo,
		Impact:         "Unknown finding type. Review manually.",
		Recommendation: "Investigate the finding and assess impact.",
	}
}
