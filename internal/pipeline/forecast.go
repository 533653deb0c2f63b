package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/county-risk-forecast/internal/domain"
	"github.com/couchcryptid/county-risk-forecast/internal/observability"
)

// ForecastOptions tunes per-county forecasting.
type ForecastOptions struct {
	Augment domain.AugmentConfig
	// Concurrency bounds in-flight forecast calls; values below 1 mean sequential.
	Concurrency int
	// RateLimit caps forecast calls per second; 0 disables limiting.
	RateLimit float64
}

// Orchestrator turns merged rows into one forecast record per county.
type Orchestrator struct {
	forecaster domain.Forecaster
	resolver   domain.CoordinateResolver
	augment    domain.AugmentConfig
	limit      int
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(f domain.Forecaster, r domain.CoordinateResolver, opts ForecastOptions, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	o := &Orchestrator{
		forecaster: f,
		resolver:   r,
		augment:    opts.Augment,
		limit:      max(opts.Concurrency, 1),
		logger:     logger,
		metrics:    metrics,
	}
	if opts.RateLimit > 0 {
		o.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return o
}

// ForecastAll forecasts every county in rows. Counties that cannot be
// forecast are logged and skipped. Records come back ordered by county key.
// ErrNoResults is returned when no county produced a record.
func (o *Orchestrator) ForecastAll(ctx context.Context, rows []domain.MergedRow) ([]domain.ForecastRecord, error) {
	series := domain.SeriesByCounty(rows)
	results := make([]*domain.ForecastRecord, len(series))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.limit)
	for i, s := range series {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rec, reason, err := o.forecastCounty(gctx, s)
			switch {
			case reason != "":
				o.skip(s.Key, reason, err)
				return nil
			case err != nil:
				return err
			}
			results[i] = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("forecast counties: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("forecast counties: %w", err)
	}

	out := make([]domain.ForecastRecord, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	if len(out) == 0 {
		return nil, domain.ErrNoResults
	}
	o.metrics.CountiesForecasted.Add(float64(len(out)))
	return out, nil
}

// forecastCounty runs one county through augment, submit, extract, and
// reconcile. A non-empty reason means the county is skipped; an error with no
// reason means the run was canceled.
func (o *Orchestrator) forecastCounty(ctx context.Context, s domain.CountySeries) (domain.ForecastRecord, domain.SkipReason, error) {
	series, err := domain.AugmentSeries(domain.PrepareSeries(s.Points()), o.augment)
	if err != nil {
		return domain.ForecastRecord{}, domain.SkipInsufficientData, err
	}

	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return domain.ForecastRecord{}, "", err
		}
	}

	frame, err := o.forecaster.Forecast(ctx, domain.NewForecastRequest(s.Key, series))
	if err != nil {
		if ctx.Err() != nil {
			return domain.ForecastRecord{}, "", ctx.Err()
		}
		return domain.ForecastRecord{}, domain.SkipForecastFailed, err
	}
	if frame.Empty() {
		return domain.ForecastRecord{}, domain.SkipEmptyForecast, nil
	}
	forecast, ok := frame.LastValue(domain.TargetColumn)
	if !ok {
		return domain.ForecastRecord{}, domain.SkipUnextractable, nil
	}

	score := forecast
	if latest, ok := s.LatestRisk(); ok {
		score = domain.ReconcileRisk(forecast, latest)
	}
	return domain.NewForecastRecord(s.Key, score, o.resolver.Resolve(s.Key)), "", nil
}

func (o *Orchestrator) skip(key domain.CountyKey, reason domain.SkipReason, err error) {
	attrs := []any{"county", key.County, "state", key.State, "reason", string(reason)}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	o.logger.Warn("county skipped", attrs...)
	o.metrics.CountiesSkipped.WithLabelValues(string(reason)).Inc()
}
