// Package dedup classifies fingerprint collisions into findings.
//
// ClassifyExact partitions the pages sharing an exact fingerprint by
// their redirect relationship with the current page: permanent redirects
// are legitimate consolidation, temporary redirects are a defect of their
// own, and unrelated pages are true duplicates. Every partner is
// classified; one page can yield several outcomes.
//
// FindNear scans the SimHash buckets of a session for fingerprints within
// the near-duplicate threshold and keeps the closest matches.
package dedup
