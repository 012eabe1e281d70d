package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nao1215/dupscan/internal/redirect"
)

// DefaultMaxSessions is the default number of sessions kept at once.
const DefaultMaxSessions = 1024

// ErrInvalidMaxSessions is returned when the session limit is not positive.
var ErrInvalidMaxSessions = errors.New("max sessions must be positive")

// Registry maps session ids to scopes.
//
// Design decision: The registry is an LRU bounded by MaxSessions rather
// than an unbounded map. A host that forgets to call Cleanup loses the
// oldest sessions instead of growing without limit.
type Registry struct {
	feed        redirect.Feed
	logger      *slog.Logger
	maxSessions int

	// mu serializes scope creation and removal. Lookups of existing
	// scopes go through the cache alone.
	mu     sync.Mutex
	scopes *lru.Cache[string, *Scope]
}

// Option configures a Registry.
type Option func(*Registry)

// WithMaxSessions limits how many sessions are kept.
func WithMaxSessions(n int) Option {
	return func(r *Registry) {
		r.maxSessions = n
	}
}

// WithLogger sets the logger passed to each scope.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry returns a Registry whose scopes load redirects from feed.
func NewRegistry(feed redirect.Feed, opts ...Option) (*Registry, error) {
	r := &Registry{
		feed:        feed,
		logger:      slog.Default(),
		maxSessions: DefaultMaxSessions,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.maxSessions <= 0 {
		return nil, ErrInvalidMaxSessions
	}

	scopes, err := lru.NewWithEvict(r.maxSessions, func(id string, s *Scope) {
		r.logger.Debug("session released",
			"session", id,
			"pages", s.Exact.URLCount(),
			"near_buckets", s.Near.Len(),
		)
		s.release()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}
	r.scopes = scopes
	return r, nil
}

// Scope returns the scope of sessionID, creating it on first use.
// Concurrent first calls for one session all get the same scope.
func (r *Registry) Scope(sessionID string) *Scope {
	if s, ok := r.scopes.Get(sessionID); ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.scopes.Get(sessionID); ok {
		return s
	}
	s := newScope(sessionID, r.feed, r.logger)
	r.scopes.Add(sessionID, s)
	return s
}

// Lookup returns the scope of sessionID without creating it.
func (r *Registry) Lookup(sessionID string) (*Scope, bool) {
	return r.scopes.Peek(sessionID)
}

// Cleanup releases all state of sessionID. Calling it for an unknown or
// already cleaned session is a no-op.
func (r *Registry) Cleanup(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scopes.Remove(sessionID)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return r.scopes.Len()
}
