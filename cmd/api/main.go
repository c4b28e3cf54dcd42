package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tztw/projectmap/config"
	"github.com/tztw/projectmap/internal/archive"
	"github.com/tztw/projectmap/internal/backup"
	"github.com/tztw/projectmap/internal/bootstrap"
	"github.com/tztw/projectmap/internal/catalog/repository"
	"github.com/tztw/projectmap/internal/catalog/service"
	"github.com/tztw/projectmap/internal/geocode"
	"github.com/tztw/projectmap/internal/logging"
	"github.com/tztw/projectmap/internal/metrics"
)

const serviceName = "tztw-projectmap"

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.Setup(cfg.App.Environment, cfg.App.LogLevel)
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := bootstrap.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		return err
	}
	defer client.Close()

	store := repository.New(client, cfg.App.SessionTTL)
	if cfg.App.SeedOnStart {
		if _, err := store.Seed(ctx); err != nil {
			return err
		}
	}

	arch, err := archive.Open(ctx, &cfg.Archive)
	if err != nil {
		return err
	}

	db, rec, err := bootstrap.OpenAudit(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	m := metrics.New()
	svc := service.New(service.Deps{
		Store:    store,
		Geocoder: geocode.NewClient(&cfg.Geocoder),
		Archive:  arch,
		Audit:    rec,
		Metrics:  m,
	})

	backups := backup.NewScheduler(store, arch, m, log)
	if err := backups.Start(cfg.App.BackupSchedule); err != nil {
		return err
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		Service:        svc,
		Metrics:        m,
		DB:             db,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	// no WriteTimeout: /api/v1/events holds its response open until the
	// base context is cancelled on shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr, "env", cfg.App.Environment, "archive", arch.Driver(), "audit", db != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	backups.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}
