package model

import "testing"

// TestSeverityString tests the String method of Severity.
func TestSeverityString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		severity Severity
		expected string
	}{
		{SeverityInfo, "INFO"},
		{SeverityLow, "LOW"},
		{SeverityMedium, "MEDIUM"},
		{SeverityHigh, "HIGH"},
		{SeverityCritical, "CRITICAL"},
		{Severity(999), "UNKNOWN"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if tc.severity.String() != tc.expected {
				t.Errorf("got %q, expected %q", tc.severity.String(), tc.expected)
			}
		})
	}
}

func TestParseSeverity(t *testing.T) {
	t.Parallel()

	for s := SeverityInfo; s <= SeverityCritical; s++ {
		if got := ParseSeverity(s.String()); got != s {
			t.Errorf("ParseSeverity(%q) = %v, expected %v", s.String(), got, s)
		}
	}
	if got := ParseSeverity("bogus"); got != SeverityInfo {
		t.Errorf("expected unknown text to map to INFO, got %v", got)
	}
}

// TestGetSeverity tests the GetSeverity function.
func TestGetSeverity(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		findingType FindingType
		expected    Severity
	}{
		{FindingExactDuplicate, SeverityCritical},
		{FindingTemporaryRedirectDuplicate, SeverityHigh},
		{FindingVariantDuplicateContent, SeverityHigh},
		{FindingVariantWrongTarget, SeverityHigh},
		{FindingNearDuplicate, SeverityMedium},
		{FindingVariantWrongRedirect, SeverityMedium},
		{FindingBoilerplate, SeverityLow},
		{FindingVariantUnexpectedStatus, SeverityLow},
		{FindingRedirectConsolidated, SeverityInfo},
		{FindingVariantCorrect, SeverityInfo},
		{FindingVariantUnreachable, SeverityInfo},
		{FindingVariantTimeout, SeverityInfo},

		// Unknown finding type defaults to Info
		{"unknown_type", SeverityInfo},
	}

	for _, tc := range testCases {
		t.Run(string(tc.findingType), func(t *testing.T) {
			t.Parallel()
			result := GetSeverity(tc.findingType)
			if result != tc.expected {
				t.Errorf("GetSeverity(%q) = %v, expected %v", tc.findingType, result, tc.expected)
			}
		})
	}
}

// TestSeverityOrdering tests that severity levels are ordered correctly.
// Info < Low < Medium < High < Critical
func TestSeverityOrdering(t *testing.T) {
	t.Parallel()

	if SeverityInfo >= SeverityLow {
		t.Error("expected SeverityInfo < SeverityLow")
	}
	if SeverityLow >= SeverityMedium {
		t.Error("expected SeverityLow < SeverityMedium")
	}
	if SeverityMedium >= SeverityHigh {
		t.Error("expected SeverityMedium < SeverityHigh")
	}
	if SeverityHigh >= SeverityCritical {
		t.Error("expected SeverityHigh < SeverityCritical")
	}
}

// TestGetFindingInfo tests the GetFindingInfo function.
func TestGetFindingInfo(t *testing.T) {
	t.Parallel()

	t.Run("every known type has impact and recommendation", func(t *testing.T) {
		t.Parallel()

		for findingType, info := range findingInfoMapping {
			if info.Impact == "" {
				t.Errorf("%s: expected non-empty Impact", findingType)
			}
			if info.Recommendation == "" {
				t.Errorf("%s: expected non-empty Recommendation", findingType)
			}
		}
	})

	t.Run("returns default info for unknown finding type", func(t *testing.T) {
		t.Parallel()

		info := GetFindingInfo("completely_unknown_type")

		if info.Severity != SeverityInfo {
			t.Errorf("expected SeverityInfo, got %v", info.Severity)
		}
		if info.Impact == "" {
			t.Error("expected default Impact")
		}
	})
}
