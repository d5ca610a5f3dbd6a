package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/miyata-dev/campuscrawl/internal/model"
)

// nameResolver resolves one crawl id to a classification outcome.
// Satisfied by *scraper.Resolver.
type nameResolver interface {
	Resolve(ctx context.Context, id int) model.ResolutionOutcome
}

// directorySearcher looks names and emails up in the directory API.
// Satisfied by *directory.Client.
type directorySearcher interface {
	Search(ctx context.Context, name string) ([]model.DirectoryMatch, error)
	ProfileByEmail(ctx context.Context, email string) (*model.IdentityProfile, error)
}

// identityStore is the persistence surface the run needs. Satisfied by
// *database.IdentityDB.
type identityStore interface {
	MaxCrawlID(ctx context.Context) (int, error)
	StoreIdentity(ctx context.Context, crawlID int, profile *model.IdentityProfile) (bool, error)
	LogWebRequest(ctx context.Context, crawlID int, outcome model.ResolutionOutcome) error
	LogDirectorySearch(ctx context.Context, name string, matches []model.DirectoryMatch) error
	LogError(ctx context.Context, crawlID int, errorType, message, stack string) error
}

// Result summarizes a finished (or aborted) run.
type Result struct {
	// StartID is the first crawl id the run submitted.
	StartID int

	// Processed is the number of ids that completed the pipeline,
	// successfully or not.
	Processed int

	// Stored is the number of new identities written to the store.
	Stored int

	// Errors is the number of per-id failures recorded in the error log.
	Errors int
}

// Orchestrator drives one crawl run.
type Orchestrator struct {
	resolver  nameResolver
	directory directorySearcher
	store     identityStore
	logger    *slog.Logger

	concurrency int
	overlap     int
	startFloor  int
	endID       int
	maxErrors   int

	// errorCount is shared by all workers; the threshold check reads
	// the value returned by its own increment, so the breaker trips
	// exactly once.
	errorCount atomic.Int64

	processed atomic.Int64
	stored    atomic.Int64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency caps the number of ids processed at once.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithRange sets the id space: floor is the lowest id ever submitted,
// end the highest.
func WithRange(floor, end int) Option {
	return func(o *Orchestrator) {
		o.startFloor = floor
		o.endID = end
	}
}

// WithOverlap sets how many ids before the stored maximum are
// re-submitted on resume, covering ids that were in flight when the
// previous run stopped.
func WithOverlap(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.overlap = n
		}
	}
}

// WithMaxErrors sets the failure threshold that aborts the run.
func WithMaxErrors(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxErrors = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an Orchestrator over the three collaborators.
func New(resolver nameResolver, directory directorySearcher, store identityStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		resolver:    resolver,
		directory:   directory,
		store:       store,
		concurrency: 5,
		overlap:     20,
		startFloor:  1,
		endID:       400000,
		maxErrors:   50,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Run executes the crawl from the resume checkpoint to the end of the
// id range. It returns ErrTooManyFailures when the failure threshold
// is reached and the context error when cancelled; every other per-id
// failure is absorbed into the error log.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	start, err := o.checkpoint(ctx)
	if err != nil {
		return nil, err
	}

	o.logger.Info("starting crawl",
		slog.Int("start", start),
		slog.Int("end", o.endID),
		slog.Int("concurrency", o.concurrency))
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for id := start; id <= o.endID; id++ {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			return o.processOne(gctx, id)
		})
	}

	err = g.Wait()

	result := &Result{
		StartID:   start,
		Processed: int(o.processed.Load()),
		Stored:    int(o.stored.Load()),
		Errors:    int(o.errorCount.Load()),
	}
	o.logger.Info("crawl finished",
		slog.Int("processed", result.Processed),
		slog.Int("stored", result.Stored),
		slog.Int("errors", result.Errors),
		slog.Duration("elapsed", time.Since(startTime)))
	return result, err
}

// checkpoint computes the first id to submit: one past the highest
// stored crawl id, backed up by the overlap window and clamped to the
// range floor.
func (o *Orchestrator) checkpoint(ctx context.Context) (int, error) {
	maxID, err := o.store.MaxCrawlID(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading resume checkpoint: %w", err)
	}
	start := maxID + 1 - o.overlap
	if start < o.startFloor {
		start = o.startFloor
	}
	return start, nil
}

// processOne runs the pipeline for a single id and feeds any failure
// into the breaker: increment the count, write the error log row, then
// trip if the threshold is reached. The order guarantees the row for
// the tripping failure is persisted before the run stops.
func (o *Orchestrator) processOne(ctx context.Context, id int) error {
	err := o.crawlOne(ctx, id)
	o.processed.Add(1)
	if err == nil {
		return nil
	}

	stage, stack := "pipeline", ""
	var serr *stageError
	if errors.As(err, &serr) {
		stage, stack = serr.stage, serr.stack
	}
	o.logger.Error("crawl id failed",
		slog.Int("id", id),
		slog.String("stage", stage),
		slog.Any("error", err))

	count := o.errorCount.Add(1)
	if logErr := o.store.LogError(ctx, id, stage, err.Error(), stack); logErr != nil {
		o.logger.Error("writing error log failed", slog.Int("id", id), slog.Any("error", logErr))
	}
	if count >= int64(o.maxErrors) {
		o.logger.Error("failure threshold reached",
			slog.Int64("errors", count),
			slog.Int("threshold", o.maxErrors))
		return ErrTooManyFailures
	}
	return nil
}

// crawlOne is the per-id pipeline: resolve, audit, search, audit,
// fetch the profile, store. A panic anywhere inside becomes an
// ordinary failure for this id only.
func (o *Orchestrator) crawlOne(ctx context.Context, id int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &stageError{
				stage: "panic",
				err:   fmt.Errorf("recovered: %v", r),
				stack: string(debug.Stack()),
			}
		}
	}()

	outcome := o.resolver.Resolve(ctx, id)
	if logErr := o.store.LogWebRequest(ctx, id, outcome); logErr != nil {
		return &stageError{stage: "web audit", err: logErr}
	}

	success, ok := outcome.(model.Success)
	if !ok {
		return nil
	}
	name := success.Name
	o.logger.Info("name resolved", slog.Int("id", id), slog.String("name", name))

	matches, err := o.directory.Search(ctx, name)
	if err != nil {
		return &stageError{stage: "directory search", err: err}
	}
	if logErr := o.store.LogDirectorySearch(ctx, name, matches); logErr != nil {
		return &stageError{stage: "search audit", err: logErr}
	}

	if len(matches) == 0 {
		o.logger.Warn("no directory match", slog.Int("id", id), slog.String("name", name))
		return nil
	}
	if len(matches) > 1 {
		emails := make([]string, 0, len(matches))
		for _, match := range matches {
			emails = append(emails, match.Email)
		}
		o.logger.Warn("multiple directory matches, taking the first",
			slog.Int("id", id),
			slog.String("name", name),
			slog.Any("emails", emails))
	}
	match := matches[0]

	profile, err := o.directory.ProfileByEmail(ctx, match.Email)
	if err != nil {
		return &stageError{stage: "profile lookup", err: err}
	}

	stored, err := o.store.StoreIdentity(ctx, id, profile)
	if err != nil {
		return &stageError{stage: "store", err: err}
	}
	if !stored {
		o.logger.Warn("identity already stored",
			slog.Int("id", id),
			slog.String("name", profile.FullName))
		return nil
	}

	o.stored.Add(1)
	o.logger.Info("identity stored",
		slog.Int("id", id),
		slog.String("name", profile.FullName),
		slog.String("email", profile.Email))
	return nil
}

// stageError tags a pipeline failure with the stage it happened in,
// which becomes the error_type column of the error log.
type stageError struct {
	stage string
	err   error
	stack string
}

func (e *stageError) Error() string {
	return e.stage + ": " + e.err.Error()
}

func (e *stageError) Unwrap() error {
	return e.err
}
