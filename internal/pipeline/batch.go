package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/dupscan/internal/model"
)

// DefaultConcurrency is the default number of concurrent workers.
const DefaultConcurrency = 10

// BatchProcessor runs one pipeline per crawl export concurrently.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline so the Pipeline stays focused on one session.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each input.
	pipelineFactory func() *Pipeline

	concurrency int

	logger *slog.Logger

	results []*model.SessionReport
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor or a PageBatch.
type BatchOption func(*batchOptions)

type batchOptions struct {
	concurrency int
	logger      *slog.Logger
}

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *batchOptions) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent workers.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *batchOptions) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

func applyBatchOptions(opts []BatchOption) batchOptions {
	o := batchOptions{concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// NewBatchProcessor creates a new BatchProcessor.
// pipelineFactory is called once per input so pipeline state never leaks
// between sessions.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	o := applyBatchOptions(opts)
	return &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     o.concurrency,
		logger:          o.logger,
		results:         make([]*model.SessionReport, 0),
	}
}

// ProcessBatch analyzes several crawl exports concurrently. Each report
// starts with Source set to its input and an empty session id that the
// import step fills in.
//
// Returns all reports in input order, even for inputs that failed.
// The error return indicates if the batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, inputs []string) ([]*model.SessionReport, error) {
	bp.logger.Info("starting batch processing",
		"total_inputs", len(inputs),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	bp.results = make([]*model.SessionReport, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, input := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			report := model.NewSessionReport("")
			report.Source = input

			err := bp.pipelineFactory().Execute(ctx, report)

			bp.mu.Lock()
			bp.results[i] = report
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("analysis failed",
					"input", input,
					"error", err,
				)
				// Other inputs keep going; the error is in the report.
				return nil
			}

			bp.logger.Info("analysis completed",
				"input", input,
				"session", report.SessionID,
			)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch processing complete",
		"total_inputs", len(inputs),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}

// PageProcessor fingerprints one page. *engine.Engine implements it.
type PageProcessor interface {
	ProcessPage(ctx context.Context, sessionID, url string, fields model.PageFields) ([]model.Finding, error)
}

// PageResult is the outcome of one page.
type PageResult struct {
	URL      string
	Findings []model.Finding
	Err      error
}

// PageBatch runs a PageProcessor over the pages of one session.
type PageBatch struct {
	processor   PageProcessor
	concurrency int
	logger      *slog.Logger
}

// NewPageBatch creates a PageBatch.
func NewPageBatch(processor PageProcessor, opts ...BatchOption) *PageBatch {
	o := applyBatchOptions(opts)
	return &PageBatch{
		processor:   processor,
		concurrency: o.concurrency,
		logger:      o.logger,
	}
}

// ProcessPages runs every page of sessionID through the processor, at most
// the configured number at once. Results are in page order.
//
// The engine only fails on cancellation, so the first page error stops the
// batch and is returned; pages that never ran have a nil result.
func (pb *PageBatch) ProcessPages(ctx context.Context, sessionID string, pages []model.Page) ([]PageResult, error) {
	results := make([]PageResult, len(pages))
	err := pb.ProcessPagesWithCallback(ctx, sessionID, pages, func(r PageResult, i int) {
		results[i] = r
	})
	return results, err
}

// ProcessPagesWithCallback is ProcessPages streaming each result to
// callback as soon as its page finishes. callback is called from worker
// goroutines, each index exactly once.
func (pb *PageBatch) ProcessPagesWithCallback(
	ctx context.Context,
	sessionID string,
	pages []model.Page,
	callback func(result PageResult, index int),
) error {
	pb.logger.Debug("processing pages",
		"session", sessionID,
		"total_pages", len(pages),
		"concurrency", pb.concurrency,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pb.concurrency)

	for i, page := range pages {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			findings, err := pb.processor.ProcessPage(gctx, sessionID, page.URL, page.Fields)
			callback(PageResult{URL: page.URL, Findings: findings, Err: err}, i)
			if err != nil {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}
