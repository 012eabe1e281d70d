package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// TestNewSessionReport tests the SessionReport constructor.
func TestNewSessionReport(t *testing.T) {
	t.Parallel()

	report := NewSessionReport("session-1")

	t.Run("sets session id", func(t *testing.T) {
		t.Parallel()
		if report.SessionID != "session-1" {
			t.Errorf("got %q, expected %q", report.SessionID, "session-1")
		}
	})

	t.Run("sets start timestamp", func(t *testing.T) {
		t.Parallel()
		if report.StartedAt.IsZero() {
			t.Error("expected StartedAt to be set")
		}
		if time.Since(report.StartedAt) > time.Second {
			t.Error("StartedAt is too old")
		}
	})

	t.Run("starts without findings", func(t *testing.T) {
		t.Parallel()
		if report.HasFindings() {
			t.Error("expected no findings")
		}
	})
}

// TestSessionReportAddFinding tests severity counting.
func TestSessionReportAddFinding(t *testing.T) {
	t.Parallel()

	report := NewSessionReport("s")
	report.AddFindings([]Finding{
		NewFinding(FindingExactDuplicate, "https://a.example/", "t", "d", nil),
		NewFinding(FindingNearDuplicate, "https://b.example/", "t", "d", nil),
		NewFinding(FindingNearDuplicate, "https://c.example/", "t", "d", nil),
		NewFinding(FindingBoilerplate, "https://d.example/", "t", "d", nil),
		NewFinding(FindingVariantCorrect, "https://e.example/", "t", "d", nil),
		NewFinding(FindingVariantDuplicateContent, "https://f.example/", "t", "d", nil),
	})

	if report.TotalFindings() != 6 {
		t.Fatalf("expected 6 findings, got %d", report.TotalFindings())
	}
	if report.CriticalCount != 1 || report.HighCount != 1 || report.MediumCount != 2 ||
		report.LowCount != 1 || report.InfoCount != 1 {
		t.Errorf("unexpected counts: critical=%d high=%d medium=%d low=%d info=%d",
			report.CriticalCount, report.HighCount, report.MediumCount, report.LowCount, report.InfoCount)
	}
	if got := len(report.GetFindingsBySeverity(SeverityMedium)); got != 2 {
		t.Errorf("expected 2 medium findings, got %d", got)
	}
}

func TestSessionReportSortFindings(t *testing.T) {
	t.Parallel()

	report := NewSessionReport("s")
	report.AddFinding(NewFinding(FindingBoilerplate, "https://z.example/", "", "", nil))
	report.AddFinding(NewFinding(FindingExactDuplicate, "https://b.example/", "", "", nil))
	report.AddFinding(NewFinding(FindingExactDuplicate, "https://a.example/", "", "", nil))

	report.SortFindings()

	expected := []string{"https://a.example/", "https://b.example/", "https://z.example/"}
	for i, f := range report.Findings {
		if f.URL != expected[i] {
			t.Errorf("finding[%d]: got %q, expected %q", i, f.URL, expected[i])
		}
	}
}

func TestSessionReportSetError(t *testing.T) {
	t.Parallel()

	report := NewSessionReport("s")
	report.SetError(errors.New("boom"))

	if report.ErrorMessage != "boom" {
		t.Errorf("got %q, expected %q", report.ErrorMessage, "boom")
	}
}

// TestFindingDetailJSON checks that the typed payload survives the JSON
// form used by the database and the JSON report.
func TestFindingDetailJSON(t *testing.T) {
	t.Parallel()

	t.Run("near duplicate detail is restored with its concrete type", func(t *testing.T) {
		t.Parallel()

		original := NewFinding(FindingNearDuplicate, "https://a.example/x", "Near duplicate", "", NearDuplicateDetail{
			Fingerprint: "00000000000000ff",
			Matches:     []NearMatch{{URL: "https://a.example/y", Similarity: 98.4375, Distance: 1}},
		})

		data, err := json.Marshal(original)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded Finding
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		detail, ok := decoded.Detail.(NearDuplicateDetail)
		if !ok {
			t.Fatalf("expected NearDuplicateDetail, got %T", decoded.Detail)
		}
		if len(detail.Matches) != 1 || detail.Matches[0].Distance != 1 {
			t.Errorf("unexpected matches: %+v", detail.Matches)
		}
		if decoded.Severity != SeverityMedium {
			t.Errorf("expected MEDIUM, got %v", decoded.Severity)
		}
	})

	t.Run("finding without detail decodes to nil detail", func(t *testing.T) {
		t.Parallel()

		var decoded Finding
		if err := json.Unmarshal([]byte(`{"type":"exact_duplicate","url":"u"}`), &decoded); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if decoded.Detail != nil {
			t.Errorf("expected nil detail, got %T", decoded.Detail)
		}
	})

	t.Run("unknown type with detail is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeDetail("mystery", []byte(`{"a":1}`))
		if err == nil {
			t.Error("expected error for unknown type")
		}
	})
}

func TestFindingWithSeverity(t *testing.T) {
	t.Parallel()

	f := NewFinding(FindingRedirectConsolidated, "u", "", "", nil).WithSeverity(SeverityLow)
	if f.Severity != SeverityLow || f.SeverityText != "LOW" {
		t.Errorf("got %v/%q, expected LOW", f.Severity, f.SeverityText)
	}
}
