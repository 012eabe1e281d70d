package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/dupscan/internal/config"
	"github.com/nao1215/dupscan/internal/database"
	"github.com/nao1215/dupscan/internal/model"
)

// ImportStep loads the crawl export named by report.Source and stores it
// in the database under the session id.
type ImportStep struct {
	db *database.CrawlDB

	// sessionID overrides the export's session id when set.
	sessionID string

	logger *slog.Logger
}

// ImportStepOption configures an ImportStep.
type ImportStepOption func(*ImportStep)

// WithImportSessionID stores the export under sessionID instead of the
// id recorded in the export.
func WithImportSessionID(sessionID string) ImportStepOption {
	return func(s *ImportStep) {
		s.sessionID = sessionID
	}
}

// WithImportLogger sets a custom logger for the import step.
func WithImportLogger(logger *slog.Logger) ImportStepOption {
	return func(s *ImportStep) {
		s.logger = logger
	}
}

// NewImportStep creates a new import step.
func NewImportStep(db *database.CrawlDB, opts ...ImportStepOption) *ImportStep {
	s := &ImportStep{
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ImportStep) Name() string {
	return "import"
}

// Do executes the import step.
func (s *ImportStep) Do(ctx context.Context, report *model.SessionReport) error {
	if report.Source == "" {
		return fmt.Errorf("%s: report has no source", s.Name())
	}

	exp, err := database.LoadExport(report.Source)
	if err != nil {
		return err
	}

	override := s.sessionID
	if override == "" {
		override = report.SessionID
	}
	sessionID, err := s.db.ImportExport(ctx, exp, override)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", report.Source, err)
	}

	report.SessionID = sessionID
	report.Pages = exp.Pages
	report.RedirectEdges = exp.Redirects
	report.Redirects = len(exp.Redirects)

	s.logger.Debug("crawl export imported",
		"session", sessionID,
		"source", report.Source,
		"pages", len(exp.Pages),
		"redirects", len(exp.Redirects),
	)
	return nil
}

// AnalyzeStep runs the duplicate-content engine over the session's pages.
//
// Design decision: Site settings from the config file are applied here,
// not in the engine, so the engine only sees the final client identity
// and canonical origin of every page.
type AnalyzeStep struct {
	batch *PageBatch

	sites            *config.File
	defaultUserAgent string

	logger *slog.Logger
}

// AnalyzeStepOption configures an AnalyzeStep.
type AnalyzeStepOption func(*AnalyzeStep)

// WithSiteConfig applies per-site client identities and canonical
// overrides to pages before analysis. userAgent is used when neither the
// page nor the site provides one.
func WithSiteConfig(sites *config.File, userAgent string) AnalyzeStepOption {
	return func(s *AnalyzeStep) {
		s.sites = sites
		s.defaultUserAgent = userAgent
	}
}

// WithAnalyzeLogger sets a custom logger for the analyze step.
func WithAnalyzeLogger(logger *slog.Logger) AnalyzeStepOption {
	return func(s *AnalyzeStep) {
		s.logger = logger
	}
}

// NewAnalyzeStep creates a new analyze step that processes pages with batch.
func NewAnalyzeStep(batch *PageBatch, opts ...AnalyzeStepOption) *AnalyzeStep {
	s := &AnalyzeStep{
		batch:  batch,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *AnalyzeStep) Name() string {
	return "analyze"
}

// Do executes the analyze step. Findings of pages that completed are kept
// even when the session is cancelled part way.
func (s *AnalyzeStep) Do(ctx context.Context, report *model.SessionReport) error {
	pages := make([]model.Page, len(report.Pages))
	for i, p := range report.Pages {
		pages[i] = model.Page{URL: p.URL, Fields: s.siteFields(p)}
	}

	results, err := s.batch.ProcessPages(ctx, report.SessionID, pages)

	processed := 0
	for _, r := range results {
		if r.URL == "" || r.Err != nil {
			continue
		}
		processed++
		report.AddFindings(r.Findings)
	}
	report.PagesProcessed = processed
	report.PagesFailed = len(pages) - processed
	report.SortFindings()
	report.FinishedAt = time.Now()

	if err != nil {
		if ctx.Err() != nil {
			report.Cancelled = true
		}
		return fmt.Errorf("analysis of session %s stopped: %w", report.SessionID, err)
	}

	s.logger.Info("session analyzed",
		"session", report.SessionID,
		"pages", processed,
		"findings", report.TotalFindings(),
	)
	return nil
}

// siteFields applies the site settings for the page's host.
func (s *AnalyzeStep) siteFields(p model.Page) model.PageFields {
	var site config.SiteConfig
	if s.sites != nil {
		host := config.HostOf(p.Fields.BaseURL)
		if host == "" {
			host = config.HostOf(p.URL)
		}
		site = s.sites.GetSiteConfig(host)
	}
	return site.Apply(p.Fields, s.defaultUserAgent)
}

// PersistStep saves the findings and the report of the session.
type PersistStep struct {
	db *database.CrawlDB
}

// NewPersistStep creates a new persist step.
func NewPersistStep(db *database.CrawlDB) *PersistStep {
	return &PersistStep{db: db}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do executes the persist step.
func (s *PersistStep) Do(ctx context.Context, report *model.SessionReport) error {
	if report.FinishedAt.IsZero() {
		report.FinishedAt = time.Now()
	}
	if err := s.db.SaveFindings(ctx, report.SessionID, report.Findings); err != nil {
		return err
	}
	return s.db.SaveSessionReport(ctx, report)
}

// SessionCleaner releases the in-memory state of a session.
// *engine.Engine implements it.
type SessionCleaner interface {
	Cleanup(sessionID string)
}

// CleanupStep releases the engine state of the session.
type CleanupStep struct {
	cleaner SessionCleaner
}

// NewCleanupStep creates a new cleanup step.
func NewCleanupStep(cleaner SessionCleaner) *CleanupStep {
	return &CleanupStep{cleaner: cleaner}
}

// Name returns the step name.
func (s *CleanupStep) Name() string {
	return "cleanup"
}

// Do executes the cleanup step.
func (s *CleanupStep) Do(_ context.Context, report *model.SessionReport) error {
	if report.SessionID == "" {
		return nil
	}
	s.cleaner.Cleanup(report.SessionID)
	return nil
}

// Engine is what the default pipeline needs from the analysis engine.
type Engine interface {
	PageProcessor
	SessionCleaner
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// SessionID overrides the session id of the export.
	SessionID string

	// Concurrency is the number of pages analyzed at once.
	Concurrency int

	// Sites holds per-site settings from the config file.
	Sites *config.File

	// UserAgent is the fallback User-Agent for variant probes.
	UserAgent string
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineSessionID overrides the session id of the export.
func WithPipelineSessionID(sessionID string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.SessionID = sessionID
	}
}

// WithPipelineConcurrency sets the number of pages analyzed at once.
func WithPipelineConcurrency(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Concurrency = n
	}
}

// WithPipelineSites sets per-site settings.
func WithPipelineSites(sites *config.File) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Sites = sites
	}
}

// WithPipelineUserAgent sets the fallback User-Agent for variant probes.
func WithPipelineUserAgent(userAgent string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.UserAgent = userAgent
	}
}

// DefaultPipeline creates the standard pipeline: import, analyze and
// persist, with cleanup as a finalizer so engine state is released even
// when analysis fails or is cancelled.
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelineConcurrency, etc).
func DefaultPipeline(db *database.CrawlDB, eng Engine, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	cfg := &DefaultPipelineConfig{
		Concurrency: config.DefaultConcurrency,
		UserAgent:   config.DefaultUserAgent,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	p := New(pipelineOpts...)

	importOpts := []ImportStepOption{WithImportLogger(p.logger)}
	if cfg.SessionID != "" {
		importOpts = append(importOpts, WithImportSessionID(cfg.SessionID))
	}

	batch := NewPageBatch(eng,
		WithConcurrency(cfg.Concurrency),
		WithBatchLogger(p.logger),
	)

	p.AddSteps(
		NewImportStep(db, importOpts...),
		NewAnalyzeStep(batch,
			WithSiteConfig(cfg.Sites, cfg.UserAgent),
			WithAnalyzeLogger(p.logger),
		),
		NewPersistStep(db),
	)
	p.AddFinalizer(NewCleanupStep(eng))

	return p
}
