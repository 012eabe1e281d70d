package redirect

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// State is the load state of a Cache.
type State int32

const (
	// NotLoaded means no caller has asked for the graph yet, or the last
	// load was cancelled.
	NotLoaded State = iota
	// Loading means a load is in flight.
	Loading
	// Loaded means the graph is published and reads are lock-free.
	Loaded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case NotLoaded:
		return "not_loaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// emptyGraph stands in when no relationships are known.
var emptyGraph = NewGraph(nil)

// Cache lazily loads the redirect graph of one session.
type Cache struct {
	sessionID string
	feed      Feed
	logger    *slog.Logger

	group   singleflight.Group
	graph   atomic.Pointer[Graph]
	loading atomic.Int32
	loads   atomic.Int32
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLogger sets the logger used to report feed failures.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCache returns a Cache for sessionID backed by feed. A nil feed
// behaves like a feed with no redirects.
func NewCache(sessionID string, feed Feed, opts ...CacheOption) *Cache {
	c := &Cache{
		sessionID: sessionID,
		feed:      feed,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current load state.
func (c *Cache) State() State {
	if c.graph.Load() != nil {
		return Loaded
	}
	if c.loading.Load() > 0 {
		return Loading
	}
	return NotLoaded
}

// loadCount returns how many times the feed has been queried.
func (c *Cache) loadCount() int {
	return int(c.loads.Load())
}

// Graph returns the session's redirect graph, loading it on first use.
// Concurrent callers share one load. The only error is the caller's own
// context error; a failing feed yields an empty graph.
func (c *Cache) Graph(ctx context.Context) (*Graph, error) {
	for {
		if g := c.graph.Load(); g != nil {
			return g, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ch := c.group.DoChan(c.sessionID, func() (any, error) {
			return c.load(ctx)
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(*Graph), nil
			}
			// The shared load was cancelled by the caller that started it.
			// Retry with our own context unless it is done too.
			if !isContextError(res.Err) {
				return nil, res.Err
			}
		}
	}
}

// Classify loads the graph if needed and classifies the pair.
func (c *Cache) Classify(ctx context.Context, a, b string) (Relationship, error) {
	g, err := c.Graph(ctx)
	if err != nil {
		return Relationship{}, err
	}
	return g.Classify(a, b), nil
}

func (c *Cache) load(ctx context.Context) (*Graph, error) {
	if g := c.graph.Load(); g != nil {
		return g, nil
	}

	c.loading.Add(1)
	defer c.loading.Add(-1)

	if c.feed == nil {
		c.graph.Store(emptyGraph)
		return emptyGraph, nil
	}

	attempt := c.loads.Add(1)
	edges, err := c.feed.Redirects(ctx, c.sessionID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Warn("redirect feed unavailable, assuming no redirects",
			"session", c.sessionID,
			"attempt", attempt,
			"error", err)
		c.graph.Store(emptyGraph)
		return emptyGraph, nil
	}

	g := NewGraph(edges)
	c.graph.Store(g)
	c.logger.Debug("redirect graph loaded",
		"session", c.sessionID,
		"attempt", attempt,
		"edges", g.Edges(),
		"sources", g.Len())
	return g, nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
