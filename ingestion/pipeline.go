package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/doxa/ai"
	"github.com/poiesic/doxa/core"
	"github.com/poiesic/doxa/corpus"
	"github.com/poiesic/doxa/storage"
)

// prefixLength is how much statement text failure logs carry.
const prefixLength = 60

// Pipeline ingests position statements into a chunk repository.
// A Pipeline may be reused for several runs but must not run concurrently
// with itself.
type Pipeline struct {
	repository    storage.ChunkRepository
	embedder      ai.Embedder
	throttle      Throttle
	scopeMode     ScopeMode
	startIndex    int
	embeddingText corpus.EmbeddingTextBuilder
	display       corpus.DisplayContentBuilder
	dimensions    int
	progress      io.Writer
	progressEvery int
	maxPersisted  int
	maxFailures   int
	recorder      Recorder
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithThrottle sets the pacing applied before every embedding call.
// Default pauses one second after every five calls.
func WithThrottle(throttle Throttle) Option {
	return func(p *Pipeline) error {
		if throttle == nil {
			throttle = NoopThrottle{}
		}
		p.throttle = throttle
		return nil
	}
}

// WithScopeMode sets the key chunk indices are allocated under.
// Default is ScopeByFigure.
func WithScopeMode(mode ScopeMode) Option {
	return func(p *Pipeline) error {
		if mode != ScopeByFigure && mode != ScopeByPaper {
			return fmt.Errorf("%w: scope mode %d", ErrInvalidOption, mode)
		}
		p.scopeMode = mode
		return nil
	}
}

// WithStartIndex sets the first index used in an empty scope.
// Default is 0.
func WithStartIndex(start int) Option {
	return func(p *Pipeline) error {
		if start < 0 {
			return fmt.Errorf("%w: negative start index %d", ErrInvalidOption, start)
		}
		p.startIndex = start
		return nil
	}
}

// WithEmbeddingText sets how the embedded text is composed.
// Default is corpus.DomainTagged.
func WithEmbeddingText(builder corpus.EmbeddingTextBuilder) Option {
	return func(p *Pipeline) error {
		if builder != nil {
			p.embeddingText = builder
		}
		return nil
	}
}

// WithDisplayContent sets how the stored content is composed.
// Default is corpus.SameAsEmbedding.
func WithDisplayContent(builder corpus.DisplayContentBuilder) Option {
	return func(p *Pipeline) error {
		if builder != nil {
			p.display = builder
		}
		return nil
	}
}

// WithDimensions fixes the expected vector length. With zero, each run
// adopts the length already stored for its figures, or else the length
// of its first vector.
func WithDimensions(dimensions int) Option {
	return func(p *Pipeline) error {
		if dimensions < 0 {
			return fmt.Errorf("%w: negative dimensions %d", ErrInvalidOption, dimensions)
		}
		p.dimensions = dimensions
		return nil
	}
}

// WithProgress writes a progress line to w every 'every' statements.
// A nil writer disables progress output.
func WithProgress(w io.Writer, every int) Option {
	return func(p *Pipeline) error {
		p.progress = w
		if every > 0 {
			p.progressEvery = every
		}
		return nil
	}
}

// WithMaxPersisted stops a run after n chunks were inserted. Zero means no limit.
func WithMaxPersisted(n int) Option {
	return func(p *Pipeline) error {
		if n < 0 {
			return fmt.Errorf("%w: negative persist limit %d", ErrInvalidOption, n)
		}
		p.maxPersisted = n
		return nil
	}
}

// WithMaxFailures aborts a run once n statements have failed. Zero means no limit.
func WithMaxFailures(n int) Option {
	return func(p *Pipeline) error {
		if n < 0 {
			return fmt.Errorf("%w: negative failure limit %d", ErrInvalidOption, n)
		}
		p.maxFailures = n
		return nil
	}
}

// WithRecorder sets the observer notified of outcomes and embedding latency.
func WithRecorder(recorder Recorder) Option {
	return func(p *Pipeline) error {
		if recorder == nil {
			recorder = noopRecorder{}
		}
		p.recorder = recorder
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(repository storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	throttle, err := NewPacingThrottle(DefaultPacingEvery, DefaultPacingDelay)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository:    repository,
		embedder:      embedder,
		throttle:      throttle,
		scopeMode:     ScopeByFigure,
		embeddingText: corpus.DomainTagged,
		display:       corpus.SameAsEmbedding,
		progressEvery: DefaultProgressEvery,
		recorder:      noopRecorder{},
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	return p, nil
}

// run holds the state of one Run call.
type run struct {
	alloc      *allocator
	dimensions int
	stored     map[string][]int
	result     *core.Result
	progress   *ProgressTracker
}

// Run ingests statements in order and returns the run summary.
// Item-level failures are recorded in the Result. A non-nil error means
// the run stopped early; the Result then covers the statements handled so far.
func (p *Pipeline) Run(ctx context.Context, statements []core.PositionStatement) (*core.Result, error) {
	result := &core.Result{}

	for i := range statements {
		if err := core.ValidateStatement(&statements[i]); err != nil {
			return result, fmt.Errorf("%w: statement %d: %w", ErrInvalidCorpus, i, err)
		}
	}

	r := &run{
		alloc:      newAllocator(p.repository, p.startIndex),
		dimensions: p.dimensions,
		result:     result,
	}

	for i := range statements {
		if err := r.alloc.resolve(ctx, p.scopeMode.Scope(&statements[i])); err != nil {
			return result, err
		}
	}
	for _, scope := range r.alloc.order {
		p.logger.Debug("resolved scope", "scope", scope.String(), "next_index", r.alloc.peek(scope))
	}

	if err := p.loadDimensions(ctx, r, statements); err != nil {
		return result, err
	}

	if p.progress != nil {
		r.progress = NewProgressTracker(p.progress, len(statements), p.progressEvery)
		r.progress.Start()
		defer r.progress.Finish()
	}

	p.logger.Info("ingestion started", "statements", len(statements), "scopes", len(r.alloc.order), "scope_mode", p.scopeMode.String())
	start := time.Now()

	for i := range statements {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if p.maxPersisted > 0 && result.Persisted >= p.maxPersisted {
			result.Limited = true
			p.logger.Info("persist limit reached", "limit", p.maxPersisted, "remaining", len(statements)-i)
			break
		}

		state, err := p.ingest(ctx, r, i, &statements[i])
		result.Record(state)
		p.recorder.RecordOutcome(state)
		if r.progress != nil {
			r.progress.Record(state)
		}
		if err != nil {
			p.logger.Error("ingestion aborted", "position", i, "err", err)
			return result, err
		}

		if p.maxFailures > 0 && result.Failed >= p.maxFailures {
			return result, fmt.Errorf("%w: %d", ErrTooManyFailures, result.Failed)
		}
	}

	p.logger.Info("ingestion finished",
		"processed", result.Processed,
		"persisted", result.Persisted,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"limited", result.Limited,
		"elapsed", time.Since(start).Round(time.Millisecond))

	return result, nil
}

// loadDimensions reads the vector lengths already stored for each figure
// in the run and, unless dimensions were configured, locks the run onto
// the first single length found. Repositories without statistics are not
// consulted.
func (p *Pipeline) loadDimensions(ctx context.Context, r *run, statements []core.PositionStatement) error {
	auditor, ok := p.repository.(storage.ChunkAuditor)
	if !ok {
		return nil
	}

	r.stored = make(map[string][]int)
	var figures []string
	for i := range statements {
		figure := statements[i].Figure()
		if slices.Contains(figures, figure) {
			continue
		}
		figures = append(figures, figure)

		stats, err := auditor.ScopeStats(ctx, core.Scope{FigureID: figure})
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrDimensionLookup, figure, err)
		}
		if len(stats.Dimensions) == 0 {
			continue
		}
		r.stored[figure] = stats.Dimensions
		if stats.MixedDimensions() {
			p.logger.Warn("figure already stores mixed dimensions", "figure", figure, "dimensions", stats.Dimensions)
			continue
		}
		if r.dimensions == 0 {
			r.dimensions = stats.Dimensions[0]
			p.logger.Debug("embedding dimensions locked from store", "figure", figure, "dimensions", r.dimensions)
		}
	}
	return nil
}

// ingest moves one statement to a terminal state. A non-nil error is
// run-level and stops the run.
func (p *Pipeline) ingest(ctx context.Context, r *run, position int, stmt *core.PositionStatement) (core.ItemState, error) {
	text := p.embeddingText(stmt)
	content := p.display(stmt, text)

	fail := func(state core.ItemState, err error) {
		r.result.AddFailure(core.Failure{
			Position: position,
			Topic:    stmt.Topic,
			Prefix:   stmt.Prefix(prefixLength),
			State:    state,
			Err:      err.Error(),
		})
		p.logger.Warn("statement failed",
			"position", position,
			"state", state.String(),
			"topic", stmt.Topic,
			"statement", stmt.Prefix(prefixLength),
			"err", err)
	}

	// Embedding
	if err := p.throttle.Wait(ctx); err != nil {
		fail(core.StateEmbeddingFailed, err)
		return core.StateEmbeddingFailed, err
	}

	started := time.Now()
	vector, err := p.embedder.EmbedText(ctx, text)
	p.recorder.RecordEmbedding(time.Since(started), err)
	if err != nil {
		fail(core.StateEmbeddingFailed, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return core.StateEmbeddingFailed, ctxErr
		}
		if ai.IsFatal(err) {
			return core.StateEmbeddingFailed, err
		}
		return core.StateEmbeddingFailed, nil
	}

	if len(vector) == 0 {
		fail(core.StateEmbeddingFailed, ai.ErrEmptyEmbedding)
		return core.StateEmbeddingFailed, nil
	}
	if r.dimensions == 0 {
		r.dimensions = len(vector)
		p.logger.Debug("embedding dimensions locked", "dimensions", r.dimensions)
	}
	if len(vector) != r.dimensions {
		fail(core.StateEmbeddingFailed, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), r.dimensions))
		return core.StateEmbeddingFailed, nil
	}
	if want, ok := r.stored[stmt.Figure()]; ok && !slices.Contains(want, len(vector)) {
		fail(core.StateEmbeddingFailed, fmt.Errorf("%w: got %d, %s stores %v", ErrDimensionMismatch, len(vector), stmt.Figure(), want))
		return core.StateEmbeddingFailed, nil
	}

	// Persisting
	scope := p.scopeMode.Scope(stmt)
	chunk := &core.Chunk{
		Author:      stmt.Author,
		FigureID:    stmt.Figure(),
		PaperTitle:  stmt.Paper(),
		Content:     content,
		Embedding:   vector,
		ChunkIndex:  r.alloc.peek(scope),
		Domain:      stmt.Topic,
		SourceWork:  stmt.SourceWork,
		ContentHash: stmt.Identity().Hex(),
	}
	if d := stmt.Details; d != nil {
		chunk.PositionID = d.PositionID
		chunk.Significance = d.Significance
		chunk.Engagements = &core.Engagements{
			Challenges:       d.Challenges,
			Supports:         d.Supports,
			Consistency:      d.Consistency,
			RelatedPositions: d.RelatedPositions,
		}
		if chunk.Engagements.IsZero() {
			chunk.Engagements = nil
		}
	}

	err = p.repository.Insert(ctx, chunk)
	switch {
	case err == nil:
		r.alloc.commit(scope)
		p.logger.Debug("statement persisted", "position", position, "scope", scope.String(), "index", chunk.ChunkIndex)
		return core.StatePersisted, nil

	case errors.Is(err, storage.ErrDuplicateKey):
		p.logger.Debug("statement already stored", "position", position, "scope", scope.String())
		return core.StateDuplicateSkipped, nil

	case errors.Is(err, storage.ErrStorageClosed):
		fail(core.StatePersistFailed, err)
		return core.StatePersistFailed, err

	case ctx.Err() != nil:
		fail(core.StatePersistFailed, err)
		return core.StatePersistFailed, ctx.Err()

	case errors.Is(err, storage.ErrIndexConflict):
		fail(core.StatePersistFailed, err)
		if refreshErr := r.alloc.refresh(ctx, scope); refreshErr != nil {
			return core.StatePersistFailed, refreshErr
		}
		return core.StatePersistFailed, nil

	default:
		fail(core.StatePersistFailed, err)
		return core.StatePersistFailed, nil
	}
}
