package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nao1215/scopecrawl/internal/crawler"
	"github.com/nao1215/scopecrawl/internal/model"
	"github.com/nao1215/scopecrawl/internal/report"
	"github.com/nao1215/scopecrawl/internal/scope"
	"github.com/nao1215/scopecrawl/internal/store"
	"github.com/nao1215/scopecrawl/internal/tokenizer"
)

// Step names, in default execution order.
const (
	StepStatus     = "status"
	StepRecordSeen = "record_seen"
	StepExtract    = "extract"
	StepTokenize   = "tokenize"
	StepMerge      = "merge"
	StepSummary    = "summary"
	StepFilter     = "filter"
	StepPersist    = "persist"
)

// StatusStep halts pages that were not served with status 200 or that
// carry no body. Such pages yield no links and leave the store untouched.
type StatusStep struct{}

// NewStatusStep creates a new status check step.
func NewStatusStep() *StatusStep {
	return &StatusStep{}
}

// Name returns the step name.
func (s *StatusStep) Name() string {
	return StepStatus
}

// Do executes the status check.
func (s *StatusStep) Do(_ context.Context, page *Page) error {
	if !page.Result.OK() || !page.Result.HasBody() {
		page.Halted = true
	}
	return nil
}

// RecordSeenStep adds the requested URL to the unique URL set.
type RecordSeenStep struct {
	store *store.Store
}

// NewRecordSeenStep creates a new step that records the page URL.
func NewRecordSeenStep(s *store.Store) *RecordSeenStep {
	return &RecordSeenStep{store: s}
}

// Name returns the step name.
func (s *RecordSeenStep) Name() string {
	return StepRecordSeen
}

// Do executes the record step.
func (s *RecordSeenStep) Do(_ context.Context, page *Page) error {
	s.store.RecordSeen(page.Requested)
	return nil
}

// ExtractStep parses the page and collects its candidate links and text.
type ExtractStep struct {
	extractor *crawler.Extractor
}

// NewExtractStep creates a new link extraction step.
func NewExtractStep(extractor *crawler.Extractor) *ExtractStep {
	return &ExtractStep{extractor: extractor}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return StepExtract
}

// Do executes the extraction.
func (s *ExtractStep) Do(_ context.Context, page *Page) error {
	ex, err := s.extractor.Extract(page.Requested, page.Result)
	if err != nil {
		return err
	}
	page.Extraction = ex
	return nil
}

// TokenizeStep counts the words of the page text.
type TokenizeStep struct{}

// NewTokenizeStep creates a new tokenize step.
func NewTokenizeStep() *TokenizeStep {
	return &TokenizeStep{}
}

// Name returns the step name.
func (s *TokenizeStep) Name() string {
	return StepTokenize
}

// Do executes the tokenize step.
func (s *TokenizeStep) Do(_ context.Context, page *Page) error {
	var text string
	if page.Extraction != nil {
		text = page.Extraction.Text
	}

	page.Frequencies = tokenizer.ComputeWordFrequencies(tokenizer.Tokenize(text))
	page.TokenCount = page.Frequencies.Total()
	return nil
}

// MergeStep adds the page word counts to the running totals.
type MergeStep struct {
	store *store.Store
}

// NewMergeStep creates a new merge step.
func NewMergeStep(s *store.Store) *MergeStep {
	return &MergeStep{store: s}
}

// Name returns the step name.
func (s *MergeStep) Name() string {
	return StepMerge
}

// Do executes the merge step.
func (s *MergeStep) Do(_ context.Context, page *Page) error {
	s.store.MergeFrequencies(page.Frequencies)
	return nil
}

// SummaryStep takes a snapshot of the store and hands it to a sink.
//
// Design decision: The snapshot and the write happen under one lock so
// that concurrent pages never replace a newer summary with an older one.
type SummaryStep struct {
	store *store.Store
	sink  report.Writer
	topN  int

	mu sync.Mutex
}

// SummaryStepOption configures a SummaryStep.
type SummaryStepOption func(*SummaryStep)

// WithSummarySink sets where every snapshot is written.
// Without a sink the snapshot is only kept on the page.
func WithSummarySink(sink report.Writer) SummaryStepOption {
	return func(s *SummaryStep) {
		s.sink = sink
	}
}

// WithSummaryTopN sets the number of words in each snapshot.
func WithSummaryTopN(n int) SummaryStepOption {
	return func(s *SummaryStep) {
		s.topN = n
	}
}

// NewSummaryStep creates a new summary step.
func NewSummaryStep(s *store.Store, opts ...SummaryStepOption) *SummaryStep {
	step := &SummaryStep{
		store: s,
		topN:  model.DefaultTopN,
	}

	for _, opt := range opts {
		opt(step)
	}

	return step
}

// Name returns the step name.
func (s *SummaryStep) Name() string {
	return StepSummary
}

// Do executes the summary step.
func (s *SummaryStep) Do(_ context.Context, page *Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	page.Summary = s.store.Snapshot(s.topN)
	if s.sink == nil {
		return nil
	}
	if _, err := s.sink.Write(page.Summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// Evaluator decides whether a URL should be crawled.
// *scope.Filter implements it.
type Evaluator interface {
	Evaluate(ctx context.Context, rawURL string) (scope.Verdict, error)
}

// FilterStep keeps the candidate links that pass the scope filter.
// A malformed URL stops the pipeline.
type FilterStep struct {
	filter Evaluator
	logger *slog.Logger
}

// FilterStepOption configures a FilterStep.
type FilterStepOption func(*FilterStep)

// WithFilterLogger sets a custom logger for the filter step.
func WithFilterLogger(logger *slog.Logger) FilterStepOption {
	return func(s *FilterStep) {
		s.logger = logger
	}
}

// NewFilterStep creates a new filter step.
func NewFilterStep(filter Evaluator, opts ...FilterStepOption) *FilterStep {
	s := &FilterStep{
		filter: filter,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *FilterStep) Name() string {
	return StepFilter
}

// Do executes the filter step.
func (s *FilterStep) Do(ctx context.Context, page *Page) error {
	if page.Extraction == nil {
		return nil
	}

	for _, link := range page.Extraction.Links {
		v, err := s.filter.Evaluate(ctx, link)
		if err != nil {
			return fmt.Errorf("failed to filter links of %s: %w", page.Requested, err)
		}
		if !v.Accepted {
			s.logger.Debug("link rejected", "url", link, "stage", v.Stage.String())
			continue
		}
		page.Accepted = append(page.Accepted, link)
	}

	return nil
}

// PageLog stores what happened to processed pages.
// *database.CrawlDB implements it.
type PageLog interface {
	InsertPageRecord(ctx context.Context, record *model.PageRecord) error
	SaveSummary(ctx context.Context, summary *model.Summary) error
}

// PersistStep writes a page record and the latest snapshot to the crawl
// log. Failures are logged and never stop the crawl.
type PersistStep struct {
	log    PageLog
	logger *slog.Logger
}

// PersistStepOption configures a PersistStep.
type PersistStepOption func(*PersistStep)

// WithPersistLogger sets a custom logger for the persist step.
func WithPersistLogger(logger *slog.Logger) PersistStepOption {
	return func(s *PersistStep) {
		s.logger = logger
	}
}

// NewPersistStep creates a new persist step.
func NewPersistStep(log PageLog, opts ...PersistStepOption) *PersistStep {
	s := &PersistStep{
		log:    log,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return StepPersist
}

// Do executes the persist step.
func (s *PersistStep) Do(ctx context.Context, page *Page) error {
	record := &model.PageRecord{
		URL:           page.Requested,
		FinalURL:      page.Result.FinalURL,
		StatusCode:    page.Result.StatusCode,
		TokenCount:    page.TokenCount,
		LinksAccepted: len(page.Accepted),
	}
	if page.Extraction != nil {
		record.Title = page.Extraction.Title
		record.LinksFound = len(page.Extraction.Links)
	}
	record.ComputeHash(page.Result.Body)

	if err := s.log.InsertPageRecord(ctx, record); err != nil {
		s.logger.Warn("failed to record page", "url", page.Requested, "error", err)
	}
	if page.Summary != nil {
		if err := s.log.SaveSummary(ctx, page.Summary); err != nil {
			s.logger.Warn("failed to record summary", "url", page.Requested, "error", err)
		}
	}

	return nil
}
