package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ranktracker/internal/api"
	"ranktracker/internal/config"
	"ranktracker/internal/export"
	"ranktracker/internal/fetch"
	"ranktracker/internal/monitoring"
	"ranktracker/internal/proxy"
	"ranktracker/internal/storage"
	"ranktracker/internal/tracker"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}

	// Initialize Storage Layer
	pgStore, err := storage.NewPostgresStore(cfg.PostgresURL)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	redisStore := storage.NewRedisStore(cfg.RedisAddr)

	// Initialize Monitoring, Proxies, Fetcher
	metrics := monitoring.NewMetrics()
	proxyManager := proxy.NewManager(nil)

	var source tracker.PageSource
	if cfg.UseBrowser {
		source = fetch.NewBrowser(cfg.MarketplaceURL, time.Duration(cfg.FetchTimeout)*time.Second, proxyManager)
	} else {
		source = fetch.NewHTTPFetcher(cfg.MarketplaceURL, time.Duration(cfg.FetchTimeout)*time.Second, cfg.RequestsPerMinute, proxyManager)
	}

	csvWriter := export.NewCSVWriter(cfg.OutputDir)

	// Initialize Core Tracker
	coreTracker := tracker.New(cfg, source, pgStore, redisStore, csvWriter, metrics, logger)
	coreTracker.Start()

	// Submit the configured targets file, if present
	if _, err := os.Stat(cfg.InputFile); err == nil {
		tasks, err := export.LoadTargets(cfg.InputFile)
		if err != nil {
			logger.Fatal("could not load targets", zap.String("file", cfg.InputFile), zap.Error(err))
		}
		logger.Info("loaded targets", zap.String("file", cfg.InputFile), zap.Int("keywords", len(tasks)))
		for _, task := range tasks {
			coreTracker.Submit(task)
		}
	}

	// Initialize API Server
	server := api.NewServer(cfg, coreTracker, pgStore, redisStore, logger)

	// Graceful Shutdown
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	coreTracker.Stop()
	if err := csvWriter.Close(); err != nil {
		logger.Error("failed to close csv output", zap.Error(err))
	}

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
