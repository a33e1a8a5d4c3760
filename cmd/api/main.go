package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mailrep/internal/cache"
	"mailrep/internal/config"
	"mailrep/internal/di"
	"mailrep/internal/lookup"
	"mailrep/internal/store"
	"mailrep/internal/validator"
)

func main() {
	if err := serve(); err != nil {
		log.Fatalf("❌ mailrep API failed: %v", err)
	}
}

// serve wires dependencies and runs the API until shutdown.
func serve() error {
	container, err := di.BuildContainer()
	if err != nil {
		return fmt.Errorf("build container: %w", err)
	}

	return container.Invoke(func(
		cfg *config.Config,
		logger *zap.Logger,
		svc *validator.Service,
		history store.History,
		payloads *cache.Store[*lookup.Payload],
		closers *di.Closers,
	) error {
		defer logger.Sync()
		defer closers.Close()
		return run(cfg, logger, svc, history, payloads)
	})
}

func run(cfg *config.Config, logger *zap.Logger, svc *validator.Service, history store.History, payloads *cache.Store[*lookup.Payload]) error {
	readTimeout, err := cfg.GetDuration("server.read_timeout")
	if err != nil {
		return err
	}
	writeTimeout, err := cfg.GetDuration("server.write_timeout")
	if err != nil {
		return err
	}
	shutdownTimeout, err := cfg.GetDuration("server.shutdown_timeout")
	if err != nil {
		return err
	}
	cleanupEvery, err := cfg.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return err
	}

	// 2. Build handlers
	api := &server{
		verifier:     svc,
		history:      history,
		logger:       logger,
		apiKey:       cfg.GetString("server.api_key"),
		defaultLimit: cfg.GetInt("history.default_limit"),
		maxLimit:     cfg.GetInt("history.max_limit"),
	}
	var limiter *ipRateLimiter
	if rps := cfg.GetFloat64("server.rate_limit_rps"); rps > 0 {
		limiter = newIPRateLimiter(rps, cfg.GetInt("server.rate_limit_burst"))
	}

	addr := cfg.GetString("server.listen_address")
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.routes(limiter),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// 3. Run until SIGTERM / SIGINT
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("mailrep API listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cleanupEvery > 0 {
		g.Go(func() error {
			return payloads.StartCleanup(gctx, cleanupEvery)
		})
	}

	if limiter != nil {
		g.Go(func() error {
			return limiter.StartCleanup(gctx, time.Minute, 3*time.Minute)
		})
	}

	// 4. Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, draining in-flight requests")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := svc.Wait(shutdownCtx); err != nil {
			logger.Warn("Pending history writes abandoned", zap.Error(err))
		}
		logger.Info("Server shut down cleanly")
		return nil
	})

	return g.Wait()
}
