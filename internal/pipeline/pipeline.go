package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/county-risk-forecast/internal/adapter/csvfile"
	"github.com/couchcryptid/county-risk-forecast/internal/domain"
	"github.com/couchcryptid/county-risk-forecast/internal/observability"
	"github.com/couchcryptid/county-risk-forecast/internal/table"
)

// Publisher sends a run's records to a downstream consumer.
type Publisher interface {
	PublishForecasts(ctx context.Context, runID string, generatedAt time.Time, records []domain.ForecastRecord) error
}

// Sources are the paths of the four input files.
type Sources struct {
	FederalEmployment string
	Unemployment      string
	SNAP              string
	CostOfLiving      string
}

// Options configures a Pipeline.
type Options struct {
	Sources    Sources
	OutputPath string
	Risk       domain.RiskConfig
	Forecast   ForecastOptions
}

// RunSummary describes a completed run.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	Duration   time.Duration
	Sources    []domain.TransformStats
	MergedRows int
	Risk       domain.RiskSummary
	Records    int
	OutputPath string
}

// Pipeline runs load, transform, merge, forecast, and write.
type Pipeline struct {
	opts         Options
	orchestrator *Orchestrator
	publisher    Publisher
	clock        clockwork.Clock
	logger       *slog.Logger
	metrics      *observability.Metrics
	ready        atomic.Bool
}

// New creates a Pipeline. Pass a nil publisher to only write the output file.
func New(opts Options, f domain.Forecaster, r domain.CoordinateResolver, pub Publisher, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		opts:         opts,
		orchestrator: NewOrchestrator(f, r, opts.Forecast, logger, metrics),
		publisher:    pub,
		clock:        clock,
		logger:       logger,
		metrics:      metrics,
	}
}

// CheckReadiness returns nil once a run has written its output, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no pipeline run has completed yet")
	}
	return nil
}

// Run executes one run when interval is 0. Otherwise it runs immediately and
// then on every tick until the context is cancelled; failed periodic runs are
// logged and retried at the next tick.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) error {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	if interval <= 0 {
		_, err := p.RunOnce(ctx)
		return err
	}

	p.logger.Info("pipeline scheduled", "interval", interval)
	ticker := p.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.RunOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.Error("pipeline run failed", "error", err)
		}
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// RunOnce performs a single run. Load errors and ErrNoResults are fatal and
// leave any previous output untouched. Publication failures are logged only.
func (p *Pipeline) RunOnce(ctx context.Context) (RunSummary, error) {
	sum := RunSummary{
		RunID:      uuid.NewString(),
		StartedAt:  p.clock.Now(),
		OutputPath: p.opts.OutputPath,
	}
	logger := p.logger.With("run_id", sum.RunID)
	logger.Info("pipeline run started")

	records, err := p.run(ctx, logger, &sum)
	sum.Duration = p.clock.Since(sum.StartedAt)
	p.metrics.RunDuration.Observe(sum.Duration.Seconds())

	outcome := runOutcome(ctx, err)
	p.metrics.Runs.WithLabelValues(outcome).Inc()
	if err != nil {
		return sum, err
	}

	sum.Records = len(records)
	p.publish(ctx, logger, sum.RunID, records)

	p.metrics.LastSuccessfulRun.Set(float64(p.clock.Now().Unix()))
	p.ready.Store(true)
	logger.Info("pipeline run finished",
		"records", sum.Records,
		"merged_rows", sum.MergedRows,
		"output", sum.OutputPath,
		"duration", sum.Duration,
	)
	return sum, nil
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, sum *RunSummary) ([]domain.ForecastRecord, error) {
	src := p.opts.Sources
	empTable, err := p.load(logger, domain.SourceFederalEmployment, src.FederalEmployment)
	if err != nil {
		return nil, err
	}
	unempTable, err := p.load(logger, domain.SourceUnemployment, src.Unemployment)
	if err != nil {
		return nil, err
	}
	snapTable, err := p.load(logger, domain.SourceSNAP, src.SNAP)
	if err != nil {
		return nil, err
	}
	costTable, err := p.load(logger, domain.SourceCostOfLiving, src.CostOfLiving)
	if err != nil {
		return nil, err
	}

	emp, empStats := domain.TransformEmployment(empTable)
	unemp, unempStats := domain.TransformUnemployment(unempTable)
	snap, snapStats := domain.TransformSNAP(snapTable)
	cost, costStats := domain.TransformCost(costTable)
	sum.Sources = []domain.TransformStats{empStats, unempStats, snapStats, costStats}
	for _, st := range sum.Sources {
		p.metrics.SourceRowsLoaded.WithLabelValues(st.Source).Add(float64(st.Kept))
		p.metrics.SourceRowsDropped.WithLabelValues(st.Source).Add(float64(st.Dropped))
		logger.Info("source transformed", "source", st.Source, "read", st.Read, "kept", st.Kept, "dropped", st.Dropped)
	}

	merged := domain.MergeAndScore(unemp, emp, snap, cost, p.opts.Risk)
	sum.MergedRows = len(merged)
	sum.Risk = domain.SummarizeRisk(merged)
	p.metrics.MergedRows.Set(float64(len(merged)))
	logger.Info("sources merged",
		"rows", sum.Risk.Rows,
		"counties", sum.Risk.Counties,
		"risk_min", sum.Risk.Min,
		"risk_max", sum.Risk.Max,
		"risk_mean", sum.Risk.Mean,
	)

	records, err := p.orchestrator.ForecastAll(ctx, merged)
	if err != nil {
		return nil, err
	}

	if err := csvfile.WriteForecasts(p.opts.OutputPath, records); err != nil {
		return nil, fmt.Errorf("write results: %w", err)
	}
	return records, nil
}

func (p *Pipeline) load(logger *slog.Logger, source, path string) (*table.Table, error) {
	t, enc, err := csvfile.ReadFlexibleWithEncoding(path)
	if err != nil {
		var dle *domain.DataLoadError
		if errors.As(err, &dle) {
			dle.Source = source
			return nil, dle
		}
		return nil, &domain.DataLoadError{Source: source, Path: path, Err: err}
	}
	logger.Debug("source loaded", "source", source, "path", path, "encoding", enc, "rows", t.Len())
	return t, nil
}

func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, runID string, records []domain.ForecastRecord) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishForecasts(ctx, runID, p.clock.Now(), records); err != nil {
		logger.Warn("publish results failed", "error", err)
		p.metrics.PublishErrors.Inc()
		return
	}
	p.metrics.RecordsPublished.Add(float64(len(records)))
}

func runOutcome(ctx context.Context, err error) string {
	var dle *domain.DataLoadError
	switch {
	case err == nil:
		return "success"
	case ctx.Err() != nil:
		return "canceled"
	case errors.Is(err, domain.ErrNoResults):
		return "no_results"
	case errors.As(err, &dle):
		return "load_error"
	default:
		return "write_error"
	}
}
