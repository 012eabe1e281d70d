// Package fingerprint computes exact content fingerprints: hex-encoded
// cryptographic digests of normalized visible text.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"

	"golang.org/x/crypto/sha3"
)

// Algorithm names a digest used for exact fingerprints.
type Algorithm string

const (
	// SHA256 is the default digest.
	SHA256 Algorithm = "sha256"
	// SHA3 selects SHA3-256.
	SHA3 Algorithm = "sha3-256"
)

// ErrUnknownAlgorithm is returned for an unsupported digest name.
var ErrUnknownAlgorithm = errors.New("unknown fingerprint algorithm")

// Exact is the hex digest of a page's normalized text.
type Exact string

// Hasher produces exact fingerprints with a fixed algorithm.
// It is safe for concurrent use.
type Hasher struct {
	algorithm Algorithm
	newHash   func() hash.Hash
}

// NewHasher returns a Hasher for algorithm.
func NewHasher(algorithm Algorithm) (*Hasher, error) {
	switch algorithm {
	case SHA256, "":
		return &Hasher{algorithm: SHA256, newHash: sha256.New}, nil
	case SHA3:
		return &Hasher{algorithm: SHA3, newHash: sha3.New256}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
}

// Algorithm returns the digest in use.
func (h *Hasher) Algorithm() Algorithm {
	return h.algorithm
}

// Sum fingerprints normalized text. Empty text is not fingerprinted and
// yields "".
func (h *Hasher) Sum(normalized string) Exact {
	if normalized == "" {
		return ""
	}
	d := h.newHash()
	d.Write([]byte(normalized))
	return Exact(hex.EncodeToString(d.Sum(nil)))
}

// Sum fingerprints normalized text with SHA-256.
func Sum(normalized string) Exact {
	if normalized == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(normalized))
	return Exact(hex.EncodeToString(sum[:]))
}
