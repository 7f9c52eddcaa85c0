package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/scopecrawl/internal/crawler"
	"github.com/nao1215/scopecrawl/internal/model"
	"github.com/nao1215/scopecrawl/internal/tokenizer"
)

// Page is the state of one fetched page as it moves through the steps.
// Each step reads what earlier steps left and adds its own result.
type Page struct {
	// Requested is the URL the crawl driver asked for.
	Requested string

	// Result is the fetch outcome. Steps never modify it.
	Result *model.FetchResult

	// Extraction holds the candidate links and the visible text.
	Extraction *crawler.Extraction

	// Frequencies holds the word counts of this page alone.
	Frequencies *tokenizer.Frequencies

	// TokenCount is the number of tokens in the page text.
	TokenCount int

	// Summary is the snapshot taken after this page was merged.
	Summary *model.Summary

	// Accepted are the candidate links that passed the scope filter.
	Accepted []string

	// Halted is set by a step that decided the page contributes nothing.
	// No later step runs.
	Halted bool

	// PerformedSteps lists the steps that ran, in order.
	PerformedSteps []string
}

// NewPage creates the state for a fetched page.
func NewPage(requested string, result *model.FetchResult) *Page {
	return &Page{
		Requested:      requested,
		Result:         result,
		Accepted:       make([]string, 0),
		PerformedSteps: make([]string, 0),
	}
}

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the page state
// left by the previous steps.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry their collaborators (store, filter, sink)
// 2. It provides a Name() method for logging and debugging
// 3. Tests can assemble partial pipelines from the same steps
type Step interface {
	// Do executes the pipeline step.
	// Returning an error stops the pipeline unless continueOnError is set.
	Do(ctx context.Context, page *Page) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
// This follows the functional options pattern for clean API design.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. The first error is still returned once every
// step has run.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:           make([]Step, 0),
		continueOnError: false,
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
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps in sequence until one halts the page.
//
// Design decision: We check context.Done() before each step rather than
// during, because steps that block (the robots lookup) handle the context
// themselves.
func (p *Pipeline) Execute(ctx context.Context, page *Page) error {
	var firstErr error

	for _, step := range p.steps {
		if page.Halted {
			p.logger.Debug("page halted", "url", page.Requested, "after", lastStep(page))
			break
		}

		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"url", page.Requested,
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"url", page.Requested,
		)

		if err := step.Do(ctx, page); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"url", page.Requested,
				"error", err,
			)

			if !p.continueOnError {
				return err
			}
			if firstErr == nil {
				firstErr = err
			}
		}

		page.PerformedSteps = append(page.PerformedSteps, step.Name())
	}

	return firstErr
}

// lastStep returns the name of the most recent step, if any.
func lastStep(page *Page) string {
	if len(page.PerformedSteps) == 0 {
		return ""
	}
	return page.PerformedSteps[len(page.PerformedSteps)-1]
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
