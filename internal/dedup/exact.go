package dedup

import (
	"fmt"
	"strings"

	"github.com/nao1215/dupscan/internal/fingerprint"
	"github.com/nao1215/dupscan/internal/model"
	"github.com/nao1215/dupscan/internal/redirect"
)

// Classifier answers how two URLs are related by redirects.
// *redirect.Graph implements it.
type Classifier interface {
	Classify(a, b string) redirect.Relationship
}

// ExactOutcome is the partition of one page's exact-duplicate partners.
type ExactOutcome struct {
	URL         string
	Fingerprint fingerprint.Exact

	// Consolidated are partners joined by a permanent redirect.
	Consolidated []redirect.Relationship
	// Temporary are partners joined by a temporary redirect.
	Temporary []redirect.Relationship
	// Unrelated are partners with no redirect relationship.
	Unrelated []string
}

// ClassifyExact partitions collisions, the URLs sharing url's exact
// fingerprint, by their redirect relationship with url. The current URL
// itself is skipped wherever it appears in collisions.
func ClassifyExact(url string, fp fingerprint.Exact, collisions []string, relations Classifier) ExactOutcome {
	out := ExactOutcome{URL: url, Fingerprint: fp}
	self := model.URLKey(url)

	for _, partner := range collisions {
		if model.URLKey(partner) == self {
			continue
		}

		rel := redirect.Relationship{}
		if relations != nil {
			rel = relations.Classify(url, partner)
		}

		switch {
		case !rel.Related():
			out.Unrelated = append(out.Unrelated, partner)
		case rel.Permanent:
			out.Consolidated = append(out.Consolidated, rel)
		default:
			out.Temporary = append(out.Temporary, rel)
		}
	}
	return out
}

// Empty reports whether url had no partners at all.
func (o ExactOutcome) Empty() bool {
	return len(o.Consolidated) == 0 && len(o.Temporary) == 0 && len(o.Unrelated) == 0
}

// Findings renders the outcome. Consolidated partners are suppressed
// unless reportConsolidated is set, in which case they appear at INFO.
func (o ExactOutcome) Findings(reportConsolidated bool) []model.Finding {
	var findings []model.Finding

	if reportConsolidated {
		for _, rel := range o.Consolidated {
			findings = append(findings, model.NewFinding(
				model.FindingRedirectConsolidated,
				o.URL,
				"Duplicate Consolidated by Permanent Redirect",
				fmt.Sprintf("%s permanently redirects to %s", rel.Source, rel.Target),
				redirectDetail(o.URL, rel),
			))
		}
	}

	for _, rel := range o.Temporary {
		findings = append(findings, model.NewFinding(
			model.FindingTemporaryRedirectDuplicate,
			o.URL,
			"Duplicate via Temporary Redirect",
			fmt.Sprintf("%s redirects to %s with a temporary status; both URLs serve identical content", rel.Source, rel.Target),
			redirectDetail(o.URL, rel),
		))
	}

	if len(o.Unrelated) > 0 {
		findings = append(findings, model.NewFinding(
			model.FindingExactDuplicate,
			o.URL,
			"Exact Duplicate Content",
			fmt.Sprintf("Identical content is served by %d other URL(s): %s",
				len(o.Unrelated), strings.Join(o.Unrelated, ", ")),
			model.ExactDuplicateDetail{
				Fingerprint: string(o.Fingerprint),
				Duplicates:  o.Unrelated,
				Count:       len(o.Unrelated),
			},
		))
	}

	return findings
}

func redirectDetail(url string, rel redirect.Relationship) model.RedirectDetail {
	partner := rel.Target
	if model.URLKey(partner) == model.URLKey(url) {
		partner = rel.Source
	}
	return model.RedirectDetail{
		Partner:   partner,
		Source:    rel.Source,
		Target:    rel.Target,
		Permanent: rel.Permanent,
	}
}
