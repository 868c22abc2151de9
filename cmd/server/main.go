package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/holdline/reservation-engine/internal/acs"
	"github.com/holdline/reservation-engine/internal/api"
	"github.com/holdline/reservation-engine/internal/config"
	"github.com/holdline/reservation-engine/internal/dss"
	"github.com/holdline/reservation-engine/internal/engine"
	myLogger "github.com/holdline/reservation-engine/internal/logger"
	"github.com/holdline/reservation-engine/internal/observability"
	"github.com/holdline/reservation-engine/internal/reaper"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config | failed to load configuration", "error", err)
		os.Exit(1)
	}

	var logLevel slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	logger.Info("config | config initialized", "config", cfg)

	counterStore := acs.NewStore(ctx, acs.Options{
		Address:       cfg.CounterStore.URL,
		EventsEnabled: cfg.Events.Enabled,
		EventsStream:  cfg.Events.StreamName,
	})
	if err := counterStore.HealthCheck(ctx); err != nil {
		logger.Error("acs | failed to connect to counter store", "error", err)
		os.Exit(1)
	}
	defer counterStore.Close()

	durableStore, err := dss.NewStore(ctx, cfg.DurableStore.DSN)
	if err != nil {
		logger.Error("dss | failed to connect to durable store", "error", err)
		os.Exit(1)
	}
	defer durableStore.Close()

	if err := durableStore.CreateSchema(ctx); err != nil {
		logger.Error("dss | failed to create schema", "error", err)
		os.Exit(1)
	}

	eng := engine.New(counterStore, durableStore, engine.Options{
		StrictIDValidation: cfg.Validation.StrictIDValidation,
	})

	metrics := observability.NewMetrics()
	handler := api.NewHandler(eng, counterStore, durableStore, metrics)
	router := api.NewRouter(handler)

	sweeper := reaper.New(counterStore, eng, cfg.Reaper.Interval(), cfg.Reaper.BatchSize)

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		reaperCtx := context.WithValue(ctx, myLogger.SourceKey, "reaper")
		sweeper.Run(reaperCtx)
	}()

	server := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        router,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	idleConnsClosed := make(chan struct{})
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigint
		logger.Info("server | shutting down")

		shutdownComplete := make(chan struct{})
		go func() {
			cancel()
			wg.Wait()
			logger.Info("server | background tasks finished")

			if err := server.Shutdown(context.Background()); err != nil {
				logger.Error("server | could not shutdown cleanly", "error", err)
			}
			logger.Info("server | HTTP server shutdown completed")
			close(shutdownComplete)
		}()

		select {
		case <-shutdownComplete:
			logger.Info("server | graceful shutdown completed")
		case <-time.After(time.Duration(cfg.Server.ShutdownTimeout) * time.Second):
			logger.Warn("server | graceful shutdown timed out")
		}

		close(idleConnsClosed)
	}()

	go func() {
		logger.Info("server | running", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server | could not listen", "port", cfg.Server.Port, "error", err)
			sigint <- syscall.SIGTERM
		}
	}()

	<-idleConnsClosed
	logger.Info("server | stopped")
}
