// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avicolarenzo/replenish-go/internal/api"
	"github.com/avicolarenzo/replenish-go/internal/cache"
	"github.com/avicolarenzo/replenish-go/internal/config"
	"github.com/avicolarenzo/replenish-go/internal/forecast"
	"github.com/avicolarenzo/replenish-go/internal/repository/postgres"
	"github.com/avicolarenzo/replenish-go/internal/service"
	"github.com/avicolarenzo/replenish-go/internal/storage"
	"github.com/avicolarenzo/replenish-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Initialize report cache (noop unless enabled)
	reportCache, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to redis")
	}

	// Initialize import archive (optional)
	var archive storage.ObjectStorage
	if cfg.Archive.Enabled {
		archive, err = storage.NewMinioClient(cfg.Archive)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to initialize import archive")
		}
	}

	// Initialize repositories and services
	inventoryRepo := postgres.NewInventoryRepository(db)
	forecastRepo := postgres.NewForecastRepository(db)
	forecaster := forecast.NewSubprocessInvoker(
		cfg.Forecast.ScriptPath,
		cfg.Forecast.WorkDir,
		cfg.Forecast.Interpreters,
		time.Duration(cfg.Forecast.TimeoutSeconds)*time.Second,
	)

	services := &api.Services{
		InventoryService: service.NewInventoryService(inventoryRepo, reportCache, archive),
		AnalysisService: service.NewAnalysisService(
			inventoryRepo, forecastRepo, forecaster, reportCache, cfg.Forecast.ModelVersion,
		),
	}

	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
