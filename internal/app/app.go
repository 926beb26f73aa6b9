// Package app wires configuration into the replenishment service and its optional
// collaborators (postgres, redis, object storage).
package app

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demandflow/internal/cache"
	"github.com/andresuchdata/demandflow/internal/config"
	"github.com/andresuchdata/demandflow/internal/pipeline"
	"github.com/andresuchdata/demandflow/internal/pipeline/replenishment"
	"github.com/andresuchdata/demandflow/internal/repository"
	"github.com/andresuchdata/demandflow/internal/repository/postgres"
	"github.com/andresuchdata/demandflow/internal/service"
	"github.com/andresuchdata/demandflow/internal/storage"
)

type App struct {
	Config    *config.Config
	Policy    replenishment.Policy
	Service   *service.ReplenishmentService
	Forecasts repository.ForecastRepository
	Runs      *pipeline.Repository
	Storage   storage.ObjectStorage

	closers []func() error
}

// New validates the engine policy and connects every enabled backend. Redis failures
// degrade to an uncached service; database and storage failures are fatal when enabled.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	policy := replenishment.PolicyFromConfig(cfg.Engine)
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Policy: policy}
	opts := service.Options{}

	var recorder pipeline.RunRecorder
	if cfg.Database.Enabled {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)

		runsDB, err := sql.Open("pgx", cfg.Database.URL())
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open run tracking database: %w", err)
		}
		a.closers = append(a.closers, runsDB.Close)
		if err := runsDB.PingContext(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to ping run tracking database: %w", err)
		}

		a.Forecasts = postgres.NewForecastRepository(db)
		a.Runs = pipeline.NewRepository(runsDB)
		recorder = a.Runs

		opts.Forecasts = a.Forecasts
		opts.Suggestions = postgres.NewSuggestionRepository(db)
		opts.Runs = a.Runs
		log.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("database connected")
	}

	dashboardCache, err := cache.NewDashboardCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, dashboard cache disabled")
		dashboardCache = cache.NewNoopDashboardCache()
	}
	opts.Cache = dashboardCache

	var uploader pipeline.ReportUploader
	if cfg.Storage.Enabled {
		store, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Storage = store
		uploader = store
	}
	opts.Reports = pipeline.NewReportWriter(cfg.App.OutputDir, uploader, cfg.Storage.Prefix)

	runCfg := pipeline.DefaultRunConfig()
	if cfg.App.PipelineWorkers > 0 {
		runCfg.WorkerCount = cfg.App.PipelineWorkers
	}
	opts.PipelineName = runCfg.Name

	a.Service = service.NewReplenishmentService(pipeline.NewOrchestrator(runCfg, recorder), policy, opts)
	return a, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
