package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/triple/internal/auth"
	"github.com/geocoder89/triple/internal/cache"
	"github.com/geocoder89/triple/internal/config"
	"github.com/geocoder89/triple/internal/credentials"
	httpx "github.com/geocoder89/triple/internal/http"
	"github.com/geocoder89/triple/internal/http/handlers"
	"github.com/geocoder89/triple/internal/observability"
	"github.com/geocoder89/triple/internal/repo"
	"github.com/geocoder89/triple/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := run(); err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		Service:     "triple-api",
		Env:         cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	store, err := repo.Open(ctx, cfg, prom, log)
	if err != nil {
		return err
	}
	defer store.Close()

	checks := map[string]handlers.Pinger{"storage": store.Ping}

	var respCache cache.Store

	switch cfg.CacheBackend {
	case config.CacheRedis:
		rc := cache.NewRedis(cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}), cfg.CacheTTL, log)
		defer rc.Close()

		// an unreachable redis degrades to cache misses, so this only warns
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			log.Warn("redis unreachable at startup", "addr", cfg.RedisAddr, "err", err)
		}
		cancel()

		respCache = rc
		checks["redis"] = rc.Ping
	case config.CacheMemory:
		respCache = cache.New(cfg.CacheTTL, cache.WithMaxEntries(cfg.CacheMaxKeys))
	default:
		respCache = cache.Noop{}
	}

	users := credentials.NewStore(store.Users, security.NewHasher(cfg.BcryptCost))

	// set up routers with the log
	router := httpx.NewRouter(httpx.Deps{
		Config:       cfg,
		Log:          log,
		Users:        users,
		Tokens:       auth.NewManager(cfg.JWTSecret, cfg.JWTTTL),
		Destinations: store.Destinations,
		Trips:        store.Trips,
		Cache:        respCache,
		Prom:         prom,
		Gatherer:     reg,
		Checks:       checks,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "storage", cfg.Storage, "cache", cfg.CacheBackend)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("server shutting down")

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}

	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("tracer shutdown failed", "err", err)
	}

	log.Info("shutdown complete")

	return nil
}
