package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"registros/internal/amqp"
	"registros/internal/backend"
	"registros/internal/cache"
	"registros/internal/cli"
	"registros/internal/feed"
	apphttp "registros/internal/http"
	"registros/internal/identity"
	applog "registros/internal/log"
	"registros/internal/services"
	"registros/internal/session"
)

// lastKnownTTL bounds how long a snapshot can stand in for a failed reload.
const lastKnownTTL = time.Hour

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).Create(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize record store", applog.FieldBackend, bcfg.Type.String(), applog.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Record store cleanup failed", applog.FieldError, err)
			}
		}
	}()

	lastKnown := cache.NewLastKnown(cfg.CacheSize, lastKnownTTL)
	hub := feed.NewHub(res.Store, feed.WithLastKnown(lastKnown), feed.WithLogger(logger))
	defer hub.Close()

	origin := uuid.NewString()
	svcOpts := []services.Option{
		services.WithNotifier(hub),
		services.WithOrigin(origin),
		services.WithLogger(logger),
	}

	var broker *amqp.Client
	if cfg.AMQPURL != "" {
		broker, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer broker.Close()
		svcOpts = append(svcOpts, services.WithPublisher(broker))
		logger.Info("AMQP publishing enabled", "exchange", cfg.AMQPExchange, "origin", origin)
	} else {
		logger.Info("AMQP disabled - record changes stay local")
	}
	svc := services.NewRecordService(res.Store, svcOpts...)

	sessions := session.NewManager(svc, hub, session.WithPinger(res.Store), session.WithLogger(logger))
	issuer, err := identity.NewIssuer(cli.SessionSecret(cfg, logger), cfg.SessionTTL, cfg.SecureCookies, logger)
	if err != nil {
		logger.Error("Failed to initialize session issuer", applog.FieldError, err)
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, sessions, issuer,
		apphttp.WithLogger(logger),
		apphttp.WithPinger(res.Store),
		apphttp.WithRateLimit(cfg.RateLimitPerMinute))
	if err != nil {
		logger.Error("Failed to initialize HTTP server", applog.FieldError, err)
		os.Exit(1)
	}
	srv.MaxHeaderBytes = 1 << 16

	janitor := cache.NewJanitor(logger, lastKnown)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting registros server", "port", cfg.Port, applog.FieldBackend, bcfg.Type.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// Event streams end with their request context; give the rest time to drain.
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldOperation, applog.OpShutdown, applog.FieldError, err)
			return err
		}
		return nil
	})
	if broker != nil {
		// Per-process queue: every instance sees every change.
		q := amqp.Queue{Exclusive: true, AutoDelete: true}
		g.Go(func() error {
			if err := broker.Consume(gctx, q, svc.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Change feed consumption stopped", applog.FieldOperation, applog.OpConsume, applog.FieldError, err)
			}
			return nil
		})
	}
	g.Go(func() error { return janitor.Run(gctx, cfg.CacheCleanInterval) })
	g.Go(func() error { return srv.RunLimiterCleanup(gctx) })

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
