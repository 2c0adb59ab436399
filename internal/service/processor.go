// Package service provides the per-file processing pipeline and the run
// orchestration of the VM inventory report.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"vm-inventory/internal/aggregate"
	"vm-inventory/internal/bucket"
	"vm-inventory/internal/config"
	"vm-inventory/internal/model"
	"vm-inventory/internal/normalize"
	"vm-inventory/internal/schema"
	"vm-inventory/internal/source"
)

// FileProcessor turns one input file into a tagged result. Implementations
// must be safe for concurrent use and must never return nil.
type FileProcessor interface {
	Process(ctx context.Context, path string) *model.FileResult
}

// Processor reads, normalizes and aggregates a single file.
// It holds no mutable state and is safe for concurrent use.
type Processor struct {
	environments []string
	reader       source.Reader
	resolver     *schema.Resolver
	normalizer   *normalize.Normalizer
	classifier   *bucket.Classifier
	logger       zerolog.Logger
}

// NewProcessor creates a new Processor with the given dependencies.
func NewProcessor(
	cfg *config.Config,
	reader source.Reader,
	norm *normalize.Normalizer,
	cls *bucket.Classifier,
	logger zerolog.Logger,
) *Processor {
	var envs []string
	if cfg != nil {
		envs = cfg.Grouping.Environments
	}

	return &Processor{
		environments: envs,
		reader:       reader,
		resolver:     schema.NewResolver(schema.DefaultPatterns()),
		normalizer:   norm,
		classifier:   cls,
		logger:       logger.With().Str("component", "processor").Logger(),
	}
}

// NewProcessorFromConfig wires a Processor from configuration: the file
// reader, the normalizer with its ignore rules and the range classifier.
func NewProcessorFromConfig(cfg *config.Config, logger zerolog.Logger) (*Processor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	names, err := config.LoadIgnorePatterns(cfg.Filter.IgnoreFile)
	if err != nil {
		return nil, err
	}

	norm, err := normalize.New(normalize.Options{
		IgnoreNamePatterns: names,
		IgnoreLocations:    cfg.Filter.IgnoreLocations,
		IgnorePoweredOff:   cfg.Filter.IgnorePoweredOff,
		ExcludedOSMarkers:  cfg.Filter.ExcludedOSMarkers,
		SpecialOS:          cfg.Filter.SpecialOS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create normalizer: %w", err)
	}

	reader := source.NewReader(source.ReaderOptions{
		Sheet:        cfg.Source.Sheet,
		ClusterSheet: cfg.Source.ClusterSheet,
	}, logger)

	return NewProcessor(cfg, reader, norm, bucket.New(cfg.Capacity.Ranges), logger), nil
}

// Process runs the pipeline for path:
// 1. Reads the workbook
// 2. Resolves the column schema and drops axes with missing columns
// 3. Normalizes rows
// 4. Builds the partial aggregate
func (p *Processor) Process(ctx context.Context, path string) *model.FileResult {
	start := time.Now()
	log := p.logger.With().Str("file", path).Logger()

	// Step 1: Read the workbook
	wb, err := p.reader.Read(ctx, path)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read file, skipping")
		return model.NewSkippedResult(path, err)
	}
	if err := ctx.Err(); err != nil {
		return model.NewSkippedResult(path, err)
	}

	// Step 2: Resolve schema per axis
	sch := p.resolver.Resolve(wb.Info.Headers)
	var schemaErrs []error
	osAxis, clusterAxis := true, true
	if missing := sch.Missing(model.AxisOSCapacity); len(missing) > 0 {
		osAxis = false
		schemaErrs = append(schemaErrs, &model.SchemaNotFoundError{Path: path, Axis: model.AxisOSCapacity, Fields: missing})
	}
	if missing := sch.Missing(model.AxisCluster); len(missing) > 0 {
		clusterAxis = false
		schemaErrs = append(schemaErrs, &model.SchemaNotFoundError{Path: path, Axis: model.AxisCluster, Fields: missing})
	}

	if !osAxis && !clusterAxis {
		err := errors.Join(schemaErrs...)
		log.Warn().Err(err).Str("sheet", wb.Info.Name).Msg("no usable columns, skipping")
		return model.NewSkippedResult(path, err)
	}
	for _, e := range schemaErrs {
		log.Warn().Err(e).Msg("axis skipped, continuing with others")
	}

	log.Debug().
		Str("sheet", wb.Info.Name).
		Int("rows", len(wb.Info.Rows)).
		Str("capacity_unit", string(sch.CapacityUnit())).
		Msg("schema resolved")

	// Step 3: Normalize rows
	res := p.normalizer.Normalize(wb.Info, sch)
	if err := ctx.Err(); err != nil {
		return model.NewSkippedResult(path, err)
	}

	// Step 4: Aggregate
	partial, gaps := aggregate.Build(res, p.classifier, aggregate.BuildOptions{
		Path:         path,
		OSCapacity:   osAxis,
		Cluster:      clusterAxis,
		Environments: p.environments,
	})
	if clusterAxis {
		partial.HostCounts = aggregate.HostCounts(wb.Clusters)
	}

	for _, g := range gaps {
		log.Debug().Err(g).Msg("row outside configured ranges")
	}
	if len(gaps) > 0 {
		log.Warn().Int("rows", len(gaps)).Msg("rows outside configured capacity ranges were not bucketed")
	}

	result := &model.FileResult{
		Path:     path,
		Status:   model.FileStatusProcessed,
		Partial:  partial,
		Warnings: append(schemaErrs, gaps...),
		Duration: time.Since(start),
	}
	if len(schemaErrs) > 0 {
		result.Status = model.FileStatusPartial
		result.Reason = errors.Join(schemaErrs...).Error()
	}

	log.Debug().
		Str("status", string(result.Status)).
		Int("rows_read", partial.RowsRead).
		Int("rows_counted", partial.Counted()).
		Int("rows_excluded", partial.Excluded()).
		Dur("duration", result.Duration).
		Msg("file processed")

	return result
}
