package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"go-revenue-report/internal/api"
	"go-revenue-report/internal/config"
	"go-revenue-report/internal/observability"
	"go-revenue-report/internal/session"
	"go-revenue-report/internal/store"
	"go-revenue-report/pkg/router"
)

// @title Revenue Report API
// @version 1.0
// @description Runs department revenue report jobs and exposes their stored status, stage progress and logs.
// @host localhost:8080
// @BasePath /api/v1
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	// Init DB
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("path", cfg.Store.Path), zap.Error(err))
	}
	sess := session.New(logger.With(zap.String("app", cfg.App.Name)), st, session.OptionsFromConfig(cfg))
	defer sess.Close()

	r := router.New()
	api.RegisterRoutes(r, sess)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
	if err := r.Start(ctx, cfg.App.Addr()); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("shutting down")
}
