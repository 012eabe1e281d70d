package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/dupscan/internal/boilerplate"
	"github.com/nao1215/dupscan/internal/dedup"
	"github.com/nao1215/dupscan/internal/fingerprint"
	"github.com/nao1215/dupscan/internal/model"
	"github.com/nao1215/dupscan/internal/redirect"
	"github.com/nao1215/dupscan/internal/session"
	"github.com/nao1215/dupscan/internal/simhash"
	"github.com/nao1215/dupscan/internal/textnorm"
)

// TextExtractor turns rendered HTML into normalized visible text.
type TextExtractor func(html string) string

// VariantProber checks the domain/protocol variants of a canonical origin.
// *variant.Prober implements it.
type VariantProber interface {
	Probe(ctx context.Context, canonical string, identity model.ClientIdentity) ([]model.Finding, error)
}

// Engine coordinates duplicate-content checks for crawl sessions.
//
// Design decision: We use a coordinator rather than letting each check
// register its own crawler hook because:
//  1. Exact and near-duplicate checks share the extracted text
//  2. Session state is owned in one place and torn down with one call
//  3. Cancellation is checked once before results are returned
type Engine struct {
	registry *session.Registry

	feed               redirect.Feed
	prober             VariantProber
	extract            TextExtractor
	hasher             *fingerprint.Hasher
	boilerplate        *boilerplate.Analyzer
	nearThreshold      int
	reportConsolidated bool
	maxSessions        int
	logger             *slog.Logger
}

// New creates an Engine. By default it has no redirect feed, no variant
// prober, SHA-256 exact fingerprints, the default near-duplicate threshold
// and the default boilerplate analyzer.
func New(opts ...Option) (*Engine, error) {
	hasher, err := fingerprint.NewHasher(fingerprint.SHA256)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		extract:       textnorm.VisibleText,
		hasher:        hasher,
		boilerplate:   boilerplate.NewAnalyzer(),
		nearThreshold: simhash.Threshold,
		maxSessions:   session.DefaultMaxSessions,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	registry, err := session.NewRegistry(e.feed,
		session.WithMaxSessions(e.maxSessions),
		session.WithLogger(e.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create session registry: %w", err)
	}
	e.registry = registry
	return e, nil
}

// ProcessPage fingerprints one page of sessionID and returns the findings
// it triggers. The first page of a session also runs the variant probe.
//
// The only error is the context error: if ctx is cancelled, no findings
// are returned. Problems with the page itself, the redirect feed or the
// probe degrade to fewer findings.
func (e *Engine) ProcessPage(ctx context.Context, sessionID, url string, fields model.PageFields) ([]model.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scope := e.registry.Scope(sessionID)
	var findings []model.Finding

	probeFindings, err := e.probeOnce(ctx, scope, fields)
	if err != nil {
		return nil, err
	}
	findings = append(findings, probeFindings...)

	pageFindings, err := e.checkPage(ctx, scope, url, fields)
	if err != nil {
		return nil, err
	}
	findings = append(findings, pageFindings...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return findings, nil
}

// Cleanup releases all state of sessionID. It is safe to call more than
// once and for sessions that never existed. Pages of the session still in
// flight finish against the released state.
func (e *Engine) Cleanup(sessionID string) {
	e.registry.Cleanup(sessionID)
}

// Sessions returns the number of live sessions.
func (e *Engine) Sessions() int {
	return e.registry.Len()
}

// probeOnce runs the variant probe if this page is the first to claim it.
func (e *Engine) probeOnce(ctx context.Context, scope *session.Scope, fields model.PageFields) ([]model.Finding, error) {
	if e.prober == nil || fields.BaseURL == "" {
		return nil, nil
	}
	if !scope.ClaimProbe() {
		return nil, nil
	}

	findings, err := e.prober.Probe(ctx, fields.BaseURL, fields.Client)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			// Let a later page of the session try again.
			scope.ReleaseProbe()
			return nil, ctxErr
		}
		e.logger.Warn("variant probe skipped",
			"session", scope.ID(),
			"canonical", fields.BaseURL,
			"error", err)
		return nil, nil
	}
	return findings, nil
}

// checkPage runs the content checks for one page.
func (e *Engine) checkPage(ctx context.Context, scope *session.Scope, url string, fields model.PageFields) ([]model.Finding, error) {
	if !fields.IsHTML() || !fields.HasContent() {
		return nil, nil
	}

	text := e.extract(fields.HTML)
	if text == "" {
		e.logger.Debug("no visible text, skipping fingerprints", "url", url)
		return nil, nil
	}

	var findings []model.Finding

	exact, err := e.checkExact(ctx, scope, url, text)
	if err != nil {
		return nil, err
	}
	findings = append(findings, exact...)

	if f, ok := e.checkNear(scope, url, text); ok {
		findings = append(findings, f)
	}

	if e.boilerplate != nil {
		f, ok, err := e.boilerplate.Analyze(url, fields.HTML, fields.Depth)
		if err != nil {
			e.logger.Debug("boilerplate analysis failed", "url", url, "error", err)
		} else if ok {
			findings = append(findings, f)
		}
	}

	return findings, nil
}

// checkExact registers the exact fingerprint and classifies collisions.
// The redirect graph is only loaded once a collision exists.
func (e *Engine) checkExact(ctx context.Context, scope *session.Scope, url, text string) ([]model.Finding, error) {
	fp := e.hasher.Sum(text)
	if fp == "" {
		return nil, nil
	}

	scope.Exact.Register(fp, url)
	collisions := scope.Exact.Lookup(fp)
	if len(collisions) < 2 {
		return nil, nil
	}

	graph, err := scope.Redirects.Graph(ctx)
	if err != nil {
		return nil, err
	}

	outcome := dedup.ClassifyExact(url, fp, collisions, graph)
	return outcome.Findings(e.reportConsolidated), nil
}

// checkNear registers the SimHash and looks for near-duplicates.
func (e *Engine) checkNear(scope *session.Scope, url, text string) (model.Finding, bool) {
	fp := simhash.Compute(textnorm.Tokenize(text))
	if fp.IsSentinel() {
		return model.Finding{}, false
	}

	scope.Near.Register(fp, url)
	matches := dedup.FindNear(url, fp, scope.Near, e.nearThreshold)
	return dedup.NearFinding(url, fp, matches)
}
