package dedup

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/nao1215/dupscan/internal/model"
	"github.com/nao1215/dupscan/internal/simhash"
)

// MaxNearMatches is how many near-duplicates a finding lists.
const MaxNearMatches = 5

// Buckets is a read view over SimHash buckets.
// *session.Index[simhash.Fingerprint] implements it.
type Buckets interface {
	RangeKeys(fn func(key simhash.Fingerprint) bool)
	Lookup(key simhash.Fingerprint) []string
}

// FindNear returns the pages whose fingerprint is within threshold bits
// of fp, best first, at most MaxNearMatches. The bucket of fp itself and
// the sentinel bucket are skipped, as is url. A sentinel fp has no
// near-duplicates.
//
// Only fingerprints are compared during the scan; the URLs of a bucket
// are read only when it is within threshold.
func FindNear(url string, fp simhash.Fingerprint, buckets Buckets, threshold int) []model.NearMatch {
	if fp.IsSentinel() || buckets == nil {
		return nil
	}

	var near []simhash.Fingerprint
	buckets.RangeKeys(func(other simhash.Fingerprint) bool {
		if other != fp && simhash.IsNear(fp, other, threshold) {
			near = append(near, other)
		}
		return true
	})
	if len(near) == 0 {
		return nil
	}

	self := model.URLKey(url)
	var matches []model.NearMatch
	for _, other := range near {
		distance := simhash.HammingDistance(fp, other)
		similarity := simhash.Similarity(fp, other)
		for _, u := range buckets.Lookup(other) {
			if model.URLKey(u) == self {
				continue
			}
			matches = append(matches, model.NearMatch{URL: u, Similarity: similarity, Distance: distance})
		}
	}

	slices.SortFunc(matches, func(a, b model.NearMatch) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return cmp.Compare(a.URL, b.URL)
	})
	if len(matches) > MaxNearMatches {
		matches = matches[:MaxNearMatches]
	}
	return matches
}

// NearFinding renders near-duplicate matches for url as one finding.
// It returns false when there are no matches.
func NearFinding(url string, fp simhash.Fingerprint, matches []model.NearMatch) (model.Finding, bool) {
	if len(matches) == 0 {
		return model.Finding{}, false
	}
	best := matches[0]
	return model.NewFinding(
		model.FindingNearDuplicate,
		url,
		"Near-Duplicate Content",
		fmt.Sprintf("Content is %.1f%% similar to %s (%d similar page(s) listed)",
			best.Similarity, best.URL, len(matches)),
		model.NearDuplicateDetail{
			Fingerprint: fp.String(),
			Matches:     matches,
		},
	), true
}
