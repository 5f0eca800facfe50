package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookhub/database"
	"bookhub/internal/config"
	"bookhub/internal/microservices/http-api/cache"
	"bookhub/internal/microservices/http-api/middleware"
	"bookhub/internal/microservices/http-api/repository"
	"bookhub/internal/microservices/http-api/server"
	"bookhub/internal/microservices/http-api/service"
	feed "bookhub/internal/microservices/websocket"
	"bookhub/internal/scheduler"
	"bookhub/pkg/logger"
	"bookhub/pkg/metrics"
	"bookhub/pkg/tracing"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logg, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}

	if err := run(cfg, logg); err != nil {
		logg.Error("server_exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.TracingEnabled, cfg.GoEnv, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	store, ping, closeStore, err := openStore(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer closeStore()

	var lbCache service.LeaderboardCache
	if cfg.CacheEnabled() {
		rdb, err := cache.NewRedisClient(cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			return err
		}
		redisCache := cache.NewLeaderboardRedis(rdb)
		defer redisCache.Close()
		lbCache = redisCache
		logg.Info("leaderboard_cache_enabled", "redis_url", cfg.RedisURL)
	}

	m := metrics.New()
	policy := service.RetryPolicy{MaxAttempts: cfg.RetryMaxAttempts, InitialInterval: cfg.RetryInitialInterval}
	ledger := service.NewLedger(store, lbCache, policy, m)
	authService := service.NewAuthService(store.Users(), store.RefreshTokens(), cfg)
	leaderboard := service.NewLeaderboardService(store, lbCache, cfg.LeaderboardMaxLimit, cfg.LeaderboardCacheTTL, m)
	limiter := middleware.NewUserRateLimiter(cfg.RateLimitPerMinute)
	hub := feed.NewHub()
	ledger.SetNotifier(hub)

	router := server.NewRouter(server.RouterConfig{
		Config:      cfg,
		Auth:        authService,
		Progress:    service.NewProgressService(store, ledger, m),
		Quiz:        service.NewQuizService(store),
		Rewards:     ledger,
		Leaderboard: leaderboard,
		Metrics:     m,
		Limiter:     limiter,
		Ping:        ping,
		Feed:        hub,
	})
	httpServer := server.NewHTTPServer(cfg, router)

	intervals := scheduler.Intervals{
		TokenPurge:   cfg.TokenPurgeInterval,
		LimiterSweep: 5 * time.Minute,
	}
	if lbCache != nil {
		intervals.LeaderboardRefresh = cfg.LeaderboardRefreshInterval
	}
	sched := scheduler.New(scheduler.Jobs{Tokens: authService, Leaderboard: leaderboard, Limiter: limiter}, intervals)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logg.Info("http_server_listening", "addr", httpServer.Addr, "storage", cfg.StorageDriver, "env", cfg.GoEnv)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info("received_shutdown_signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logg.Info("server_stopped_gracefully")
	return nil
}

// openStore picks the storage backend named by STORAGE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, logg *slog.Logger) (repository.Store, func(context.Context) error, func(), error) {
	if cfg.StorageDriver == config.DriverMemory {
		store := repository.NewMemoryStore()
		if cfg.CatalogFile != "" {
			catalog, err := repository.LoadCatalog(cfg.CatalogFile)
			if err != nil {
				return nil, nil, nil, err
			}
			n, err := catalog.Seed(ctx, store)
			if err != nil {
				return nil, nil, nil, err
			}
			logg.Info("catalog_seeded", "file", cfg.CatalogFile, "books", n)
		}
		return store, nil, func() {}, nil
	}

	db, err := database.ConnectDB(cfg, logg)
	if err != nil {
		return nil, nil, nil, err
	}
	closeDB := func() {
		if err := database.Close(db); err != nil {
			logg.Warn("database_close_failed", "error", err)
		}
	}
	if cfg.CatalogFile != "" {
		catalog, err := repository.LoadCatalog(cfg.CatalogFile)
		if err != nil {
			closeDB()
			return nil, nil, nil, err
		}
		if _, err := catalog.Seed(ctx, repository.NewGormStore(db)); err != nil {
			closeDB()
			return nil, nil, nil, err
		}
	}
	return repository.NewGormStore(db), database.Ping(db), closeDB, nil
}
