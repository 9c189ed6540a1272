// Package pipeline runs a Canopy job: it extracts the input dataset once,
// runs every enabled analysis against it and persists each result as its
// own file.
//
// # Overview
//
// A run goes through three stages:
//   - Extract: load the input into an immutable table. Failure is fatal.
//   - Query: run the analyses concurrently on a bounded worker group.
//   - Sink: write each result to <output dir>/<suffix>.csv and optionally
//     mirror it to S3.
//
// # Partial success
//
// By default a failing analysis is recorded in the report and the others
// continue; Run returns the combined error. With reliability.fail_fast the
// first failure cancels analyses that have not started, which are reported
// as skipped. Files already written stay on disk.
//
// # Basic Usage
//
//	driver, err := pipeline.NewDriver(ctx, cfg, pipeline.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	report, err := driver.Run(ctx)
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/canopy/pkg/analysis"
	"github.com/ajitpratap0/canopy/pkg/config"
	csvdest "github.com/ajitpratap0/canopy/pkg/connector/destinations/csv"
	s3dest "github.com/ajitpratap0/canopy/pkg/connector/destinations/s3"
	csvsource "github.com/ajitpratap0/canopy/pkg/connector/sources/csv"
	"github.com/ajitpratap0/canopy/pkg/logger"
	"github.com/ajitpratap0/canopy/pkg/metrics"
	"github.com/ajitpratap0/canopy/pkg/models"
	"github.com/ajitpratap0/canopy/pkg/observability"
)

// Source loads the input table
type Source interface {
	Load(ctx context.Context) (*models.Table, error)
}

// Sink persists one result table at a path
type Sink interface {
	Write(ctx context.Context, table *models.Table, path string) (csvdest.WriteResult, error)
	Extension() string
}

// Mirror copies a written result file elsewhere and returns its location
type Mirror interface {
	Upload(ctx context.Context, runID, localPath string, rows int) (string, error)
}

// Driver orchestrates extract, query and sink for one job configuration.
type Driver struct {
	cfg      *config.JobConfig
	source   Source
	sink     Sink
	mirror   Mirror
	analyses []analysis.Analysis
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// Option customizes a Driver
type Option func(*Driver)

// WithLogger sets the base logger
func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithSource replaces the CSV source built from the configuration
func WithSource(s Source) Option {
	return func(d *Driver) { d.source = s }
}

// WithSink replaces the CSV sink built from the configuration
func WithSink(s Sink) Option {
	return func(d *Driver) { d.sink = s }
}

// WithMirror sets where written results are mirrored
func WithMirror(m Mirror) Option {
	return func(d *Driver) { d.mirror = m }
}

// WithAnalyses replaces the analyses built from the configuration
func WithAnalyses(a []analysis.Analysis) Option {
	return func(d *Driver) { d.analyses = a }
}

// WithMetrics sets the collector recording the run
func WithMetrics(c *metrics.Collector) Option {
	return func(d *Driver) { d.metrics = c }
}

// NewDriver validates cfg and wires the components it describes. Options
// override the wired components.
func NewDriver(ctx context.Context, cfg *config.JobConfig, opts ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Driver{cfg: cfg}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logger.Get()
	}
	d.logger = d.logger.With(zap.String("job", cfg.Name))

	if d.source == nil {
		srcOpts, err := csvsource.OptionsFromConfig(cfg.Input)
		if err != nil {
			return nil, err
		}
		d.source = csvsource.NewCSVSource(srcOpts, d.logger)
	}
	if d.sink == nil {
		sinkOpts, err := csvdest.OptionsFromConfig(cfg.Output)
		if err != nil {
			return nil, err
		}
		d.sink = csvdest.NewCSVDestination(sinkOpts, d.logger)
	}
	if d.mirror == nil && cfg.Output.S3.Enabled() {
		mirror, err := s3dest.NewS3Destination(ctx, cfg.Output.S3, d.logger)
		if err != nil {
			return nil, err
		}
		d.mirror = mirror
	}
	if d.analyses == nil {
		d.analyses = analysis.Build(cfg.Analyses)
	}
	if d.metrics == nil {
		d.metrics = metrics.NewCollector(cfg.Name)
	}
	return d, nil
}

// Analyses returns the analyses the driver runs, in order
func (d *Driver) Analyses() []analysis.Analysis {
	return d.analyses
}

// Metrics returns the collector recording the run
func (d *Driver) Metrics() *metrics.Collector {
	return d.metrics
}

// OutputPath returns where the result of a is written
func (d *Driver) OutputPath(a analysis.Analysis) string {
	return filepath.Join(d.cfg.Output.Dir, a.Suffix+d.sink.Extension())
}

// Run executes the job. The report is returned even when err is not nil;
// err combines a StageError per failed analysis, or is the extract failure.
func (d *Driver) Run(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()
	report := &Report{
		RunID:     runID,
		Job:       d.cfg.Name,
		InputPath: d.cfg.Input.Path,
		StartedAt: time.Now(),
		Analyses:  make([]AnalysisReport, len(d.analyses)),
	}
	for i, a := range d.analyses {
		report.Analyses[i] = AnalysisReport{
			Name:   a.Name,
			Suffix: a.Suffix,
			Output: d.OutputPath(a),
			Status: StatusSkipped,
		}
	}

	ctx = context.WithValue(ctx, logger.RunIDKey, runID)
	log := logger.FromContext(ctx, d.logger)
	ctx, span := observability.StartSpan(ctx, "pipeline.run")
	span.SetAttribute("run_id", runID)
	span.SetAttribute("job", d.cfg.Name)

	log.Info("starting pipeline",
		zap.String("input", d.cfg.Input.Path),
		zap.String("output_dir", d.cfg.Output.Dir),
		zap.Int("analyses", len(d.analyses)),
		zap.Bool("fail_fast", d.cfg.Reliability.FailFast))

	runErr := d.run(ctx, log, report)

	report.FinishedAt = time.Now()
	d.metrics.ObserveStage("run", report.Duration())
	span.SetAttribute("input_rows", report.InputRows)
	span.End(runErr)
	if runErr != nil {
		report.Error = runErr.Error()
	}

	d.finish(ctx, log, report)

	if runErr != nil {
		log.Error("pipeline failed",
			zap.Error(runErr),
			zap.Int("succeeded", report.Count(StatusSucceeded)),
			zap.Int("failed", report.Count(StatusFailed)),
			zap.Int("skipped", report.Count(StatusSkipped)),
			zap.Duration("duration", report.Duration()))
		return report, runErr
	}
	log.Info("pipeline completed",
		zap.Int("succeeded", report.Count(StatusSucceeded)),
		zap.Duration("duration", report.Duration()))
	return report, nil
}

func (d *Driver) run(ctx context.Context, log *zap.Logger, report *Report) error {
	table, err := d.extract(ctx)
	if err != nil {
		report.Stage = StageExtract
		return &StageError{Stage: StageExtract, Err: err}
	}
	report.InputRows = table.Len()
	d.metrics.SetInputRows(table.Len())
	log.Info("extract completed", zap.Int("rows", table.Len()))

	workers := d.cfg.Performance.Workers
	if workers <= 0 {
		workers = len(d.analyses)
	}

	errs := make([]error, len(d.analyses))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, a := range d.analyses {
		slot := &report.Analyses[i]
		g.Go(func() error {
			errs[i] = d.runAnalysis(gctx, report.RunID, a, table, slot)
			if errs[i] != nil && d.cfg.Reliability.FailFast {
				return errs[i]
			}
			return nil
		})
	}
	_ = g.Wait()

	var combined error
	for i, err := range errs {
		if err != nil {
			combined = multierr.Append(combined, &StageError{
				Stage:    report.Analyses[i].Stage,
				Analysis: report.Analyses[i].Name,
				Err:      err,
			})
		}
	}
	if err := ctx.Err(); err != nil {
		combined = multierr.Append(combined, err)
	}
	return combined
}

func (d *Driver) extract(ctx context.Context) (*models.Table, error) {
	ctx, span := observability.StartSpan(ctx, "pipeline.extract")
	span.SetAttribute("path", d.cfg.Input.Path)

	timer := metrics.NewTimer(string(StageExtract))
	table, err := d.source.Load(ctx)
	d.metrics.ObserveStage(timer.Name(), timer.Stop())

	if table != nil {
		span.SetAttribute("rows", table.Len())
	}
	span.End(err)
	return table, err
}

// runAnalysis runs a and persists its result, filling slot. Cancellation is
// checked before the query starts and before the result is written.
func (d *Driver) runAnalysis(ctx context.Context, runID string, a analysis.Analysis, table *models.Table, slot *AnalysisReport) (err error) {
	if ctx.Err() != nil {
		d.metrics.RecordAnalysis(a.Name, metrics.StatusSkipped)
		return nil
	}

	ctx = context.WithValue(ctx, logger.AnalysisKey, a.Name)
	log := logger.FromContext(ctx, d.logger)
	ctx, span := observability.StartSpan(ctx, "analysis."+a.Name)
	span.SetAttribute("output", slot.Output)
	start := time.Now()

	defer func() {
		slot.Duration = time.Since(start)
		span.SetAttribute("status", string(slot.Status))
		span.End(err)
		d.metrics.RecordAnalysis(a.Name, string(slot.Status))
	}()

	fail := func(stage Stage, cause error) error {
		slot.Status = StatusFailed
		slot.Stage = stage
		slot.Error = cause.Error()
		log.Error("analysis failed", zap.String("stage", string(stage)), zap.Error(cause))
		return cause
	}

	timer := metrics.NewTimer(string(StageQuery))
	result, err := a.Run(table)
	d.metrics.ObserveStage(timer.Name(), timer.Stop())
	if err != nil {
		return fail(StageQuery, err)
	}
	slot.Rows = result.Len()
	d.metrics.SetResultRows(a.Name, result.Len())

	if ctx.Err() != nil {
		log.Info("analysis skipped before write", zap.Error(ctx.Err()))
		return nil
	}

	written, err := d.write(ctx, result, slot.Output)
	if err != nil {
		return fail(StageSink, err)
	}

	if d.mirror != nil {
		timer := metrics.NewTimer(string(StageUpload))
		location, err := d.mirror.Upload(ctx, runID, written.Path, written.Rows)
		d.metrics.ObserveStage(timer.Name(), timer.Stop())
		if err != nil {
			return fail(StageUpload, err)
		}
		slot.Location = location
	}

	slot.Status = StatusSucceeded
	log.Info("analysis completed",
		zap.String("output", written.Path),
		zap.Int("rows", written.Rows),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func (d *Driver) write(ctx context.Context, result *models.Table, path string) (csvdest.WriteResult, error) {
	ctx, span := observability.StartSpan(ctx, "sink.write")
	span.SetAttribute("path", path)

	timer := metrics.NewTimer(string(StageSink))
	written, err := d.sink.Write(ctx, result, path)
	d.metrics.ObserveStage(timer.Name(), timer.Stop())

	span.End(err)
	return written, err
}

// finish writes the run report and exports metrics. Failures here are
// logged and never change the outcome of the run.
func (d *Driver) finish(ctx context.Context, log *zap.Logger, report *Report) {
	if path := d.cfg.Output.ReportPath; path != "" {
		if err := report.WriteFile(path); err != nil {
			log.Warn("failed to write run report", zap.String("path", path), zap.Error(err))
		}
	}
	obs := d.cfg.Observability
	if obs.MetricsTextfile != "" {
		if err := d.metrics.WriteTextfile(obs.MetricsTextfile); err != nil {
			log.Warn("failed to write metrics textfile", zap.String("path", obs.MetricsTextfile), zap.Error(err))
		}
	}
	if obs.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := d.metrics.Push(pushCtx, obs.PushgatewayURL); err != nil {
			log.Warn("failed to push metrics", zap.String("url", obs.PushgatewayURL), zap.Error(err))
		}
	}
}
