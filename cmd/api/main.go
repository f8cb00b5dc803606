package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Ntuthuko-dev/Web-Solution/config"
	"github.com/Ntuthuko-dev/Web-Solution/internal/bootstrap"
	"github.com/Ntuthuko-dev/Web-Solution/internal/logging"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/repository"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.App.LogLevel, cfg.App.Environment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to wire application", zap.Error(err))
	}
	defer app.Close()

	// A failed first load leaves the gallery in its error state; the server
	// still starts so a refresh can recover it.
	if err := app.Projects.Load(ctx); err != nil {
		logger.Warn("initial load failed", zap.Error(err))
	}

	if cfg.Refresh.Schedule != "" {
		scheduler, err := service.NewRefreshScheduler(app.Projects, cfg.Refresh.Schedule, logger)
		if err != nil {
			logger.Fatal("invalid refresh schedule", zap.Error(err))
		}
		scheduler.Start()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			scheduler.Stop(sctx)
		}()
	}

	if cfg.Cache.Watch && app.FileCache != nil && app.Backend.Mode() == repository.ModeLocal {
		watcher := service.NewCacheWatcher(app.FileCache.Path(), app.Projects, logger)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Error("cache watcher stopped", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           bootstrap.BuildRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("mode", app.Projects.Mode()),
			zap.String("version", cfg.App.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server exiting")
}
