package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/dupscan/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the accumulated
// report from previous steps.
//
// Design decision: We use an interface rather than function types because
// steps carry configuration state (database, engine) and need a Name() for
// logging.
type Step interface {
	// Do executes the pipeline step.
	// Returns an error if the step fails critically; non-critical errors
	// should be recorded in the report and return nil.
	Do(ctx context.Context, report *model.SessionReport) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps []Step

	// finalizers run after steps, whatever the outcome.
	finalizers []Step

	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. Failed steps are logged and their errors
// are recorded in the report, but subsequent steps still execute.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// AddFinalizer appends a step that runs after all other steps even if one
// of them failed or the context was cancelled. Finalizers get a context
// that is never cancelled, and their errors are only logged.
func (p *Pipeline) AddFinalizer(step Step) {
	p.finalizers = append(p.finalizers, step)
}

// Execute runs all pipeline steps in sequence.
// Cancellation is checked before each step; steps handle their own
// cancellation while running.
//
// Returns the first error encountered if continueOnError is false,
// or nil if all steps complete (errors are recorded in report).
func (p *Pipeline) Execute(ctx context.Context, report *model.SessionReport) error {
	defer p.finalize(context.WithoutCancel(ctx), report)

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", err,
			)
			report.Cancelled = true
			return err
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"session", report.SessionID,
		)

		if err := step.Do(ctx, report); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"session", report.SessionID,
				"error", err,
			)
			report.SetError(err)

			if !p.continueOnError {
				return err
			}
			continue
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"session", report.SessionID,
		)
	}

	return nil
}

func (p *Pipeline) finalize(ctx context.Context, report *model.SessionReport) {
	for _, step := range p.finalizers {
		if err := step.Do(ctx, report); err != nil {
			p.logger.Error("finalizer failed",
				"step", step.Name(),
				"session", report.SessionID,
				"error", err,
			)
		}
	}
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
