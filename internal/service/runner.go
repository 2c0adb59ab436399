package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"vm-inventory/internal/aggregate"
	"vm-inventory/internal/config"
	"vm-inventory/internal/metrics"
	"vm-inventory/internal/model"
	"vm-inventory/internal/source"
)

const (
	defaultTimezone = "Asia/Shanghai"
	canceledReason  = "canceled"
)

// Runner orchestrates a complete run: scanning the source directory,
// processing files concurrently and merging the per-file results.
type Runner struct {
	processor FileProcessor
	config    *config.Config
	timezone  *time.Location
	version   string
	metrics   *metrics.Recorder
	now       func() time.Time
	logger    zerolog.Logger
}

// RunnerOption is a functional option for configuring a Runner.
type RunnerOption func(*Runner)

// NewRunner creates a new Runner with the given dependencies.
func NewRunner(
	cfg *config.Config,
	proc FileProcessor,
	logger zerolog.Logger,
	opts ...RunnerOption,
) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if proc == nil {
		return nil, fmt.Errorf("file processor is required")
	}

	// Determine timezone from config or use default
	tzName := defaultTimezone
	if cfg.Report.Timezone != "" {
		tzName = cfg.Report.Timezone
	}

	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", tzName, err)
	}

	r := &Runner{
		processor: proc,
		config:    cfg,
		timezone:  loc,
		version:   "dev",
		now:       time.Now,
		logger:    logger.With().Str("component", "runner").Logger(),
	}

	// Apply options
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// WithVersion sets the tool version recorded in the run report.
func WithVersion(version string) RunnerOption {
	return func(r *Runner) {
		r.version = version
	}
}

// WithMetrics records file and run statistics into m.
func WithMetrics(m *metrics.Recorder) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// Run executes the complete workflow:
// 1. Scans the source directory
// 2. Processes every file on a bounded worker pool
// 3. Merges the partial aggregates in path order
//
// A run with no usable input still yields a well-formed, empty report and
// an EmptyInputWarning. Run returns an error only for invalid setup.
func (r *Runner) Run(ctx context.Context) (*model.RunReport, error) {
	dir := r.config.Source.Dir
	if dir == "" {
		return nil, fmt.Errorf("source directory is required")
	}

	startTime := r.now().In(r.timezone)
	report := model.NewRunReport(uuid.NewString(), dir, startTime)
	report.Version = r.version

	log := r.logger.With().Str("run_id", report.RunID).Logger()
	log.Info().
		Time("start_time", startTime).
		Str("source_dir", dir).
		Int("concurrency", r.concurrency()).
		Msg("starting run")

	// Step 1: Scan source directory
	paths, err := source.Scan(dir, r.config.Source.Extensions)
	if err != nil {
		report.Warnings = append(report.Warnings, &model.EmptyInputWarning{Dir: dir, Reason: err.Error()})
		log.Warn().Err(err).Msg("cannot read source directory, completing run with empty result")
	} else if len(paths) == 0 {
		report.Warnings = append(report.Warnings, &model.EmptyInputWarning{Dir: dir, Reason: "no input files"})
		log.Warn().Msg("no input files found, completing run with empty result")
	}

	// Step 2: Process files
	log.Debug().Int("files", len(paths)).Msg("step 2: processing files")
	results := r.processAll(ctx, paths)

	// Step 3: Merge in path order
	log.Debug().Msg("step 3: merging results")
	sort.SliceStable(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	partials := make([]*model.PartialAggregate, 0, len(results))
	for _, res := range results {
		if res.OK() {
			partials = append(partials, res.Partial)
		}
	}

	report.Files = results
	report.Aggregate = aggregate.Merge(r.config.Capacity.Ranges, partials...)

	if len(results) > 0 && len(partials) == 0 {
		report.Warnings = append(report.Warnings, &model.EmptyInputWarning{Dir: dir, Reason: "all files were skipped"})
		log.Warn().Int("files", len(results)).Msg("all files were skipped")
	}

	// Step 4: Finalize
	report.Finalize(r.now().In(r.timezone))
	if r.metrics != nil {
		r.metrics.ObserveRun(report)
	}

	log.Info().
		Int("files_total", report.Summary.FilesTotal).
		Int("files_processed", report.Summary.FilesProcessed).
		Int("files_partial", report.Summary.FilesPartial).
		Int("files_skipped", report.Summary.FilesSkipped).
		Int("rows_counted", report.Summary.RowsCounted).
		Int("grand_total", report.Aggregate.GrandTotal()).
		Dur("duration", report.Duration).
		Msg("run completed")

	return report, nil
}

// processAll fans paths out to the worker pool. Every task writes only its
// own slot and returns nil, so one failing file never cancels the others.
func (r *Runner) processAll(ctx context.Context, paths []string) []*model.FileResult {
	results := make([]*model.FileResult, len(paths))
	if len(paths) == 0 {
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			res := r.processOne(gctx, path)
			if r.metrics != nil {
				r.metrics.ObserveFile(res)
			}
			results[i] = res
			return nil
		})
	}

	// Tasks never return errors
	_ = g.Wait()

	return results
}

// processOne runs the processor for one file with the per-file timeout.
// Panics are turned into a skipped result.
func (r *Runner) processOne(ctx context.Context, path string) (res *model.FileResult) {
	start := r.now()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Str("file", path).
				Interface("panic", rec).
				Msg("file task panicked, skipping")
			res = model.NewSkippedResult(path, fmt.Errorf("panic: %v", rec))
		}
		res.Duration = r.now().Sub(start)
	}()

	if err := ctx.Err(); err != nil {
		return canceledResult(path, err)
	}

	fileCtx := ctx
	if timeout := r.config.Processing.FileTimeout; timeout > 0 {
		var cancel context.CancelFunc
		fileCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res = r.processor.Process(fileCtx, path)
	if res == nil {
		return model.NewSkippedResult(path, errors.New("processor returned no result"))
	}
	if res.Status == model.FileStatusSkipped && ctx.Err() != nil {
		return canceledResult(path, ctx.Err())
	}
	return res
}

func canceledResult(path string, err error) *model.FileResult {
	res := model.NewSkippedResult(path, err)
	res.Reason = canceledReason
	return res
}

func (r *Runner) concurrency() int {
	if n := r.config.Processing.Concurrency; n > 0 {
		return n
	}
	return config.DefaultConcurrency()
}

// Timezone returns the configured timezone.
func (r *Runner) Timezone() *time.Location {
	return r.timezone
}

// Version returns the configured version.
func (r *Runner) Version() string {
	return r.version
}
