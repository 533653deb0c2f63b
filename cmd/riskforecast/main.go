// Command riskforecast loads the county socioeconomic datasets, scores and
// forecasts risk per county, and writes the regional risk file. With
// RUN_INTERVAL set it keeps running and refreshes the file on that schedule.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/county-risk-forecast/internal/adapter/forecastcache"
	"github.com/couchcryptid/county-risk-forecast/internal/adapter/gazetteer"
	"github.com/couchcryptid/county-risk-forecast/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/county-risk-forecast/internal/adapter/kafka"
	"github.com/couchcryptid/county-risk-forecast/internal/adapter/watsonx"
	"github.com/couchcryptid/county-risk-forecast/internal/config"
	"github.com/couchcryptid/county-risk-forecast/internal/domain"
	"github.com/couchcryptid/county-risk-forecast/internal/observability"
	"github.com/couchcryptid/county-risk-forecast/internal/pipeline"
)

func main() {
	os.Exit(run())
}

// newLogger builds the process logger and installs it as the slog default so
// package-level slog calls share its level and format.
func newLogger(cfg *config.Config) *slog.Logger {
	return sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := newLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	var gaz *gazetteer.Gazetteer
	if cfg.GazetteerFile != "" {
		gaz, err = gazetteer.Load(cfg.GazetteerFile)
		if err != nil {
			// Coordinates degrade to state centroids; not fatal.
			logger.Warn("gazetteer unavailable, using state centroids", "path", cfg.GazetteerFile, "error", err)
		} else {
			logger.Info("gazetteer loaded", "path", cfg.GazetteerFile, "entries", gaz.Len())
		}
	}
	resolver := gazetteer.NewResolver(gaz)

	tokens := watsonx.NewTokenSource(cfg.IAMTokenURL, cfg.APIKey, cfg.WatsonxTimeout, clock, metrics)
	var forecaster domain.Forecaster = watsonx.NewClient(watsonx.Options{
		BaseURL:    cfg.WatsonxURL,
		ProjectID:  cfg.ProjectID,
		ModelID:    cfg.ModelID,
		APIVersion: cfg.APIVersion,
		Timeout:    cfg.WatsonxTimeout,
	}, tokens, clock, metrics, logger)
	if cfg.ForecastCacheSize > 0 {
		forecaster = forecastcache.New(forecaster, cfg.ForecastCacheSize, metrics)
		logger.Info("forecast cache enabled", "size", cfg.ForecastCacheSize)
	}

	var publisher pipeline.Publisher
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaSinkTopic, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = writer
		logger.Info("kafka publication enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	p := pipeline.New(pipeline.Options{
		Sources: pipeline.Sources{
			FederalEmployment: cfg.FederalEmploymentFile,
			Unemployment:      cfg.UnemploymentFile,
			SNAP:              cfg.SNAPFile,
			CostOfLiving:      cfg.CostOfLivingFile,
		},
		OutputPath: cfg.OutputFile,
		Risk:       domain.DefaultRiskConfig(),
		Forecast: pipeline.ForecastOptions{
			Augment:     domain.AugmentConfig{MinPoints: cfg.MinDataPoints, Anchor: cfg.AugmentAnchor},
			Concurrency: cfg.ForecastConcurrency,
			RateLimit:   cfg.ForecastRateLimit,
		},
	}, forecaster, resolver, publisher, clock, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, httpadapter.FileSource(cfg.OutputFile), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	exit := 0
	if err := p.Run(ctx, cfg.RunInterval); err != nil {
		logger.Error("pipeline failed", "error", err)
		exit = 1
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return exit
}
