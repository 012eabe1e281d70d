package engine

import (
	"log/slog"

	"github.com/nao1215/dupscan/internal/boilerplate"
	"github.com/nao1215/dupscan/internal/fingerprint"
	"github.com/nao1215/dupscan/internal/redirect"
)

// Option configures an Engine.
type Option func(*Engine)

// WithFeed sets where redirect edges come from.
func WithFeed(feed redirect.Feed) Option {
	return func(e *Engine) {
		e.feed = feed
	}
}

// WithProber enables the variant probe. Without a prober no variant
// findings are produced.
func WithProber(p VariantProber) Option {
	return func(e *Engine) {
		e.prober = p
	}
}

// WithExtractor replaces the default HTML-to-text extractor.
func WithExtractor(fn TextExtractor) Option {
	return func(e *Engine) {
		if fn != nil {
			e.extract = fn
		}
	}
}

// WithHasher sets the exact fingerprint digest.
func WithHasher(h *fingerprint.Hasher) Option {
	return func(e *Engine) {
		if h != nil {
			e.hasher = h
		}
	}
}

// WithNearThreshold sets the SimHash distance below which pages are
// near-duplicates.
func WithNearThreshold(bits int) Option {
	return func(e *Engine) {
		if bits > 0 {
			e.nearThreshold = bits
		}
	}
}

// WithReportConsolidated reports permanently redirected duplicates at INFO
// instead of suppressing them.
func WithReportConsolidated(report bool) Option {
	return func(e *Engine) {
		e.reportConsolidated = report
	}
}

// WithBoilerplate sets the boilerplate analyzer. Nil disables it.
func WithBoilerplate(a *boilerplate.Analyzer) Option {
	return func(e *Engine) {
		e.boilerplate = a
	}
}

// WithMaxSessions bounds the number of sessions held at once.
func WithMaxSessions(n int) Option {
	return func(e *Engine) {
		e.maxSessions = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}
