package simhash

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/mfonda/simhash"
)

// Fingerprint is a 64-bit SimHash.
type Fingerprint uint64

// Sentinel is the fingerprint of a page without usable tokens.
const Sentinel Fingerprint = 0

// Threshold is the default near-duplicate cut-off: fingerprints closer
// than this many bits are near-duplicates.
const Threshold = 3

// Bits is the fingerprint width.
const Bits = 64

// IsSentinel reports whether f marks a page without usable content.
func (f Fingerprint) IsSentinel() bool {
	return f == Sentinel
}

// String renders the fingerprint as 16 hex digits.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// Parse reads a fingerprint produced by String.
func Parse(s string) (Fingerprint, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return Sentinel, fmt.Errorf("invalid simhash %q: %w", s, err)
	}
	return Fingerprint(v), nil
}

// tokenFeature adapts a token to simhash.Feature with an xxhash64 digest.
type tokenFeature uint64

func (t tokenFeature) Sum() uint64 { return uint64(t) }
func (t tokenFeature) Weight() int { return 1 }

// Compute returns the SimHash of tokens. Every token votes +1 on the bits
// set in its digest and -1 on the others; a bit of the result is set only
// when its vote total is strictly positive. An empty token list yields
// Sentinel.
func Compute(tokens []string) Fingerprint {
	if len(tokens) == 0 {
		return Sentinel
	}

	features := make([]simhash.Feature, len(tokens))
	for i, tok := range tokens {
		features[i] = tokenFeature(xxhash.Sum64String(tok))
	}
	v := simhash.Vectorize(features)

	// simhash.Fingerprint sets bits on ties; ties must stay clear here.
	var f uint64
	for i := range Bits {
		if v[i] > 0 {
			f |= 1 << uint(i)
		}
	}
	return Fingerprint(f)
}

// HammingDistance returns the number of differing bits, 0 to 64.
func HammingDistance(a, b Fingerprint) int {
	return int(simhash.Compare(uint64(a), uint64(b)))
}

// Similarity returns (64 - distance) / 64 as a percentage.
func Similarity(a, b Fingerprint) float64 {
	return float64(Bits-HammingDistance(a, b)) / Bits * 100
}

// IsNear reports whether a and b are near-duplicates under threshold.
// Sentinel fingerprints are never near anything.
func IsNear(a, b Fingerprint, threshold int) bool {
	if a.IsSentinel() || b.IsSentinel() {
		return false
	}
	return HammingDistance(a, b) < threshold
}
