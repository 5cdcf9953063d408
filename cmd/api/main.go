package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/inkpost/internal/auth"
	"github.com/geocoder89/inkpost/internal/chat"
	"github.com/geocoder89/inkpost/internal/config"
	"github.com/geocoder89/inkpost/internal/db"
	httpx "github.com/geocoder89/inkpost/internal/http"
	"github.com/geocoder89/inkpost/internal/http/handlers"
	"github.com/geocoder89/inkpost/internal/observability"
	"github.com/geocoder89/inkpost/internal/ratelimit"
	"github.com/geocoder89/inkpost/internal/redisclient"
	"github.com/geocoder89/inkpost/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: "inkpost-api",
		Environment: cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := config.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	// database
	pool, err := db.NewPool(ctx, cfg.DBURL, poolOptions(cfg))
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			return err
		}
		log.Info("schema applied")
	}

	accounts := postgres.NewAccountsRepo(pool, prom)

	created, err := db.EnsureAdminAccount(ctx, accounts, cfg)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		log.Info("admin account created", "email", cfg.AdminEmail)
	}

	checks := map[string]handlers.PingFunc{
		"postgres": pool.Ping,
	}

	// chat hub runs for the life of the process
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()

	hub := chat.NewHub()
	go hub.Run(hubCtx)

	var (
		history       chat.History = chat.NewMemoryHistory(cfg.ChatHistoryLimit)
		broker        chat.Broker  = chat.NewLocalBroker(hub)
		globalLimiter ratelimit.Limiter
		authLimiter   ratelimit.Limiter
	)

	// redis is optional; without it everything stays in process
	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pctx, cancel := config.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pctx)
		cancel()
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}

		checks["redis"] = rdb.Ping

		globalLimiter = ratelimit.NewRedis(rdb.Raw(), "global", cfg.RateLimitPerMinute, time.Minute)
		authLimiter = ratelimit.NewRedis(rdb.Raw(), "auth", cfg.AuthRateLimitPerMinute, time.Minute)
		history = chat.NewRedisHistory(rdb.Raw(), cfg.ChatHistoryLimit)

		redisBroker := chat.NewRedisBroker(rdb.Raw(), hub, log)
		broker = redisBroker

		go func() {
			if err := redisBroker.Run(hubCtx); err != nil {
				log.Error("chat broker stopped", "err", err)
			}
		}()

		log.Info("redis enabled", "addr", cfg.RedisAddr)
	}

	var shuttingDown atomic.Bool

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	// set up routers with the log
	router := httpx.NewRouter(httpx.Deps{
		Config:        cfg,
		Log:           log,
		Accounts:      accounts,
		Posts:         postgres.NewPostsRepo(pool, prom),
		Tags:          postgres.NewTagsRepo(pool, prom),
		Comments:      postgres.NewCommentsRepo(pool, prom),
		JWT:           jwtManager,
		Prom:          prom,
		Metrics:       reg,
		Relay:         chat.NewRelay(hub, history, broker, prom, log),
		GlobalLimiter: globalLimiter,
		AuthLimiter:   authLimiter,
		Checks:        checks,
		ShuttingDown:  shuttingDown.Load,
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

	serverErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info("server shutting down")
	shuttingDown.Store(true)

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		// hijacked websocket connections are not tracked by Shutdown
		stopHub()

		if err := srv.Shutdown(sctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		<-hub.Done()
		log.Info("shutdown complete")
	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}

	return nil
}

func poolOptions(cfg config.Config) db.PoolOptions {
	opts := db.DefaultPoolOptions()
	if cfg.DBMaxConns > 0 {
		opts.MaxConns = int32(cfg.DBMaxConns)
	}
	return opts
}
