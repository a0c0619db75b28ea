package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"docConverter/callback"
	"docConverter/config"
	"docConverter/converter"
	"docConverter/handlers"
	"docConverter/middleware"
	"docConverter/queue"
	"docConverter/service"
	"docConverter/store"
	"docConverter/worker"
)

func main() {
	cfg := config.Load()

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	logger.Info("docConverter starting",
		zap.String("port", cfg.Port),
		zap.String("input_dir", cfg.InputDir),
		zap.String("callback_url", cfg.CallbackURL),
	)

	if err := os.MkdirAll(cfg.InputDir, 0o755); err != nil {
		logger.Fatal("Failed to create input directory",
			zap.String("input_dir", cfg.InputDir),
			zap.Error(err),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	taskStore := store.NewStore()
	taskQueue := queue.NewQueue()
	dispatcher := callback.NewDispatcher(cfg.CallbackTimeout, cfg.MaxRetries, cfg.CallbackBackoff, logger)
	conv := converter.NewMarkdownConverter(logger)

	wrk := worker.NewWorker(taskStore, taskQueue, conv, dispatcher, cfg.InputDir, logger)
	go wrk.Run(ctx)

	svc := service.NewTaskService(taskStore, taskQueue, wrk, cfg.InputDir, cfg.CallbackURL)
	handler := handlers.NewTaskHandler(svc, logger)

	r := chi.NewRouter()
	r.Use(middleware.TraceID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recovery(logger))
	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("address", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}
