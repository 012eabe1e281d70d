package session

import (
	"log/slog"
	"sync/atomic"

	"github.com/nao1215/dupscan/internal/fingerprint"
	"github.com/nao1215/dupscan/internal/redirect"
	"github.com/nao1215/dupscan/internal/simhash"
)

// Scope is the state of one crawl session.
type Scope struct {
	id string

	// Exact indexes pages by exact content fingerprint.
	Exact *Index[fingerprint.Exact]

	// Near indexes pages by SimHash. Sentinel fingerprints are never
	// registered here.
	Near *Index[simhash.Fingerprint]

	// Redirects is the lazily loaded redirect graph of the session.
	Redirects *redirect.Cache

	probeClaimed atomic.Bool
	released     atomic.Bool
}

func newScope(id string, feed redirect.Feed, logger *slog.Logger) *Scope {
	return &Scope{
		id:        id,
		Exact:     NewIndex[fingerprint.Exact](),
		Near:      NewIndex[simhash.Fingerprint](),
		Redirects: redirect.NewCache(id, feed, redirect.WithLogger(logger)),
	}
}

// ID returns the session id.
func (s *Scope) ID() string {
	return s.id
}

// ClaimProbe returns true for exactly one caller per session: the one
// that gets to run the variant probe.
func (s *Scope) ClaimProbe() bool {
	return s.probeClaimed.CompareAndSwap(false, true)
}

// ReleaseProbe gives the probe claim back, e.g. after the probe was
// cancelled before it finished.
func (s *Scope) ReleaseProbe() {
	s.probeClaimed.Store(false)
}

// ProbeClaimed reports whether the probe has been claimed.
func (s *Scope) ProbeClaimed() bool {
	return s.probeClaimed.Load()
}

// Released reports whether the scope was torn down. Pages still in flight
// may keep using a released scope; their registrations are simply lost.
func (s *Scope) Released() bool {
	return s.released.Load()
}

func (s *Scope) release() {
	if s.released.Swap(true) {
		return
	}
	s.Exact.Clear()
	s.Near.Clear()
}
