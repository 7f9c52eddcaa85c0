package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/scopecrawl/internal/crawler"
	"github.com/nao1215/scopecrawl/internal/model"
	"github.com/nao1215/scopecrawl/internal/report"
	"github.com/nao1215/scopecrawl/internal/store"
)

// DefaultPipelineConfig holds the collaborators of the default pipeline.
type DefaultPipelineConfig struct {
	// Extractor parses pages. When nil, an extractor guarded by the
	// filter (if it can guard) is created.
	Extractor *crawler.Extractor

	// Sink receives every summary snapshot. Optional.
	Sink report.Writer

	// CrawlLog receives page records and snapshots. Optional.
	CrawlLog PageLog

	// TopN is the number of words per snapshot.
	TopN int

	// Logger is shared by the steps that log.
	Logger *slog.Logger
}

// DefaultPipelineOption configures the default pipeline.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineExtractor sets the extractor.
func WithPipelineExtractor(e *crawler.Extractor) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Extractor = e
	}
}

// WithPipelineSink sets where summaries are written.
func WithPipelineSink(sink report.Writer) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Sink = sink
	}
}

// WithPipelineCrawlLog enables the persist step.
func WithPipelineCrawlLog(log PageLog) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CrawlLog = log
	}
}

// WithPipelineTopN sets the number of words per snapshot.
func WithPipelineTopN(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.TopN = n
	}
}

// WithPipelineLogger sets the logger used by the steps.
func WithPipelineLogger(logger *slog.Logger) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Logger = logger
	}
}

// DefaultPipeline creates the per-page pipeline:
// status, record_seen, extract, tokenize, merge, summary, filter and,
// when a crawl log is configured, persist.
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts collaborator options (WithPipelineSink, etc).
func DefaultPipeline(s *store.Store, filter Evaluator, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		TopN:   model.DefaultTopN,
		Logger: slog.Default(),
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	extractor := cfg.Extractor
	if extractor == nil {
		extractorOpts := []crawler.ExtractorOption{crawler.WithExtractorLogger(cfg.Logger)}
		if guard, ok := filter.(crawler.TrapGuard); ok {
			extractorOpts = append(extractorOpts, crawler.WithTrapGuard(guard))
		}
		extractor = crawler.NewExtractor(extractorOpts...)
	}

	summaryOpts := []SummaryStepOption{WithSummaryTopN(cfg.TopN)}
	if cfg.Sink != nil {
		summaryOpts = append(summaryOpts, WithSummarySink(cfg.Sink))
	}

	p.AddSteps(
		NewStatusStep(),
		NewRecordSeenStep(s),
		NewExtractStep(extractor),
		NewTokenizeStep(),
		NewMergeStep(s),
		NewSummaryStep(s, summaryOpts...),
		NewFilterStep(filter, WithFilterLogger(cfg.Logger)),
	)
	if cfg.CrawlLog != nil {
		p.AddStep(NewPersistStep(cfg.CrawlLog, WithPersistLogger(cfg.Logger)))
	}

	return p
}

// Callback runs a pipeline for every fetched page and hands the accepted
// links back to the crawl driver. It implements crawler.Scraper.
type Callback struct {
	pipeline *Pipeline
}

// NewCallback creates a Callback around p.
func NewCallback(p *Pipeline) *Callback {
	return &Callback{pipeline: p}
}

// Scrape processes one fetched page and returns the links to follow.
// A page that was not served with status 200 or has no body yields an
// empty slice and no error.
func (c *Callback) Scrape(ctx context.Context, requested string, res *model.FetchResult) ([]string, error) {
	page := NewPage(requested, res)
	if err := c.pipeline.Execute(ctx, page); err != nil {
		return nil, err
	}
	return page.Accepted, nil
}

var _ crawler.Scraper = (*Callback)(nil)
