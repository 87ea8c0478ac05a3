package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"jobscout/internal/api/routes"
	"jobscout/internal/app"
	"jobscout/internal/background"
	"jobscout/internal/batch"
	"jobscout/internal/config"
	"jobscout/internal/logging"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logging.InitializeLogging(cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting jobscout server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", map[string]interface{}{"error": err.Error()})
	}
	defer a.Close()

	for _, line := range a.FallbackSummary() {
		logger.Info(line)
	}
	if err := a.LLM.Start(ctx); err != nil {
		logger.Warn("Continuing with an unhealthy LLM provider", map[string]interface{}{"error": err.Error()})
	}

	taskManager := background.NewTaskManager(cfg, a.Service)
	if err := taskManager.Start(ctx); err != nil {
		logger.Fatal("Failed to start task manager", map[string]interface{}{"error": err.Error()})
	}

	var scheduler *batch.Scheduler
	if cfg.Batch.Schedule != "" {
		scheduler = batch.NewScheduler(cfg.Batch.Schedule, a.BatchRunner(), a.LoadCompanies)
		if err := scheduler.Start(ctx); err != nil {
			logger.Fatal("Failed to start batch scheduler", map[string]interface{}{"error": err.Error()})
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	routes.SetupRoutes(e, cfg, routes.Dependencies{
		Service: a.Service,
		LLM:     a.LLM,
		Tasks:   taskManager,
	})

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", map[string]interface{}{"address": address})
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server failed", map[string]interface{}{"error": err.Error()})
		}
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting requests first so no task is queued after the pool drains
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down HTTP server", map[string]interface{}{"error": err.Error()})
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	if err := taskManager.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping task manager", map[string]interface{}{"error": err.Error()})
	}
	logger.Info("Server shutdown complete")
}
