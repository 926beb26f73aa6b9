package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/demandflow/internal/api"
	"github.com/andresuchdata/demandflow/internal/app"
	"github.com/andresuchdata/demandflow/internal/config"
	"github.com/andresuchdata/demandflow/internal/service"
	"github.com/andresuchdata/demandflow/internal/source"
	"github.com/andresuchdata/demandflow/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.App.LogLevel)
	logger.SetFormat(cfg.App.LogFormat)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	warmUp(ctx, application.Service, cfg)

	router := api.NewRouter(&api.Services{Replenishment: application.Service}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

// warmUp runs an initial analysis so read endpoints have data on boot. The database
// is preferred; otherwise the data dir is scanned for CSV or XLSX exports.
func warmUp(ctx context.Context, svc *service.ReplenishmentService, cfg *config.Config) {
	if cfg.Database.Enabled {
		if _, err := svc.Refresh(ctx); err != nil {
			logger.Log.Warn().Err(err).Msg("initial refresh from database failed")
		}
		return
	}

	bundle, err := source.LoadDir(cfg.App.DataDir)
	if err != nil {
		logger.Log.Warn().Err(err).Str("dir", cfg.App.DataDir).Msg("no local forecasts loaded")
		return
	}
	if len(bundle.Forecasts) == 0 {
		return
	}

	if _, err := svc.Analyze(ctx, service.AnalyzeInput{
		Forecasts: bundle.Forecasts,
		History:   bundle.History,
		Source:    "csv",
	}); err != nil {
		logger.Log.Warn().Err(err).Msg("initial analysis failed")
	}
}
