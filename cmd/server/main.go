// Package main - точка входа HTTP-сервера GameSphere Scoring.
//
// Сервер обслуживает операции скоринга:
// - Выдача достижений и начисление очков (CHECK_ACHIEVEMENTS)
// - Чтение лидерборда из кешированного снапшота (GET_LEADERBOARD)
// - Агрегированная статистика пользователя (GET_USER_STATS)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/gamesphere/gamesphere-scoring/config"
	"github.com/gamesphere/gamesphere-scoring/internal/application/command"
	"github.com/gamesphere/gamesphere-scoring/internal/application/eventhandler"
	"github.com/gamesphere/gamesphere-scoring/internal/application/query"
	"github.com/gamesphere/gamesphere-scoring/internal/application/saga"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/achievement"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/leaderboard"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/stats"
	"github.com/gamesphere/gamesphere-scoring/internal/infrastructure/messaging"
	"github.com/gamesphere/gamesphere-scoring/internal/infrastructure/persistence/postgres"
	"github.com/gamesphere/gamesphere-scoring/internal/infrastructure/persistence/redis"
	"github.com/gamesphere/gamesphere-scoring/internal/infrastructure/service"
	httpapi "github.com/gamesphere/gamesphere-scoring/internal/interface/http"
	"github.com/gamesphere/gamesphere-scoring/pkg/circuitbreaker"
	"github.com/gamesphere/gamesphere-scoring/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ
	// ─────────────────────────────────────────────────────────────────────────
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting GameSphere Scoring server",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. POSTGRESQL
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL, postgres.PoolSettings{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		redisCache *redis.Cache
		lbCache    leaderboard.Cache
		statsCache stats.Cache
	)

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			log.Info("Redis connection established")
		}
	}

	if redisCache != nil {
		// Кеш лидерборда обёрнут в circuit breaker: при сбоящем Redis
		// чтения быстро падают на прямой путь через хранилище.
		breaker := circuitbreaker.CacheBreaker(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		})
		inner := redis.NewLeaderboardCacheWithTTL(redisCache, cfg.Scoring.SnapshotTTL, cfg.Scoring.FreshnessTTL)
		lbCache = redis.NewBreakerLeaderboardCache(inner, breaker)

		if cfg.Features.IsEnabled(config.FeatureStatsCache) {
			statsCache = redis.NewStatsCacheWithTTL(redisCache, cfg.Scoring.StatsCacheTTL)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	busConfig.AsyncMode = true
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	awardedHandler := eventhandler.NewOnAchievementAwardedHandler(log)
	if err := awardedHandler.Register(eventBus); err != nil {
		return fmt.Errorf("failed to register event handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. РЕПОЗИТОРИИ И ДОМЕННЫЕ СЕРВИСЫ
	// ─────────────────────────────────────────────────────────────────────────
	profileRepo := postgres.NewProfileRepository(dbConn)
	awardRepo := postgres.NewAwardRepository(dbConn)
	scoreRepo := postgres.NewScoreRepository(dbConn)
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)

	catalog := achievement.SeedCatalog()
	log.Info("achievement catalog loaded", "definitions", catalog.Count())

	flow := saga.NewAwardFlowSaga(profileRepo, awardRepo, scoreRepo, catalog, lbCache, statsCache, eventBus, log)
	rebuilder := service.NewLeaderboardRebuilder(leaderboardRepo, lbCache, eventBus, cfg.Scoring.FreshnessTTL, log)

	// Кеш на пути чтения отключается флагом, не трогая пересборку.
	readCache := lbCache
	if !cfg.Features.IsEnabled(config.FeatureLeaderboardCache) {
		readCache = nil
	}

	getLeaderboard := query.NewGetLeaderboardHandler(leaderboardRepo, readCache, rebuilder, log)
	getUserStats := query.NewGetUserStatsHandler(profileRepo, awardRepo, scoreRepo, statsCache, log)
	checkAchievements := command.NewCheckAchievementsHandler(flow)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP-СЕРВЕР
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpapi.DefaultConfig()
	httpCfg.Host = cfg.Server.Host
	httpCfg.Port = cfg.Server.Port
	httpCfg.ReadTimeout = cfg.Server.ReadTimeout
	httpCfg.WriteTimeout = cfg.Server.WriteTimeout
	httpCfg.IdleTimeout = cfg.Server.IdleTimeout
	httpCfg.EnableMetrics = cfg.Observability.MetricsEnabled
	httpCfg.RateLimitEnabled = cfg.RateLimit.Enabled
	httpCfg.RateLimitRPS = cfg.RateLimit.RequestsPerSecond
	httpCfg.RateLimitBurst = cfg.RateLimit.Burst
	httpCfg.AdminTokenHash = cfg.Admin.TokenHash
	if cfg.Scoring.DefaultTopLimit > 0 {
		httpCfg.DefaultTopLimit = cfg.Scoring.DefaultTopLimit
	}

	httpLog := logger.New(logger.Options{
		Level: logger.ParseLevel(cfg.Observability.LogLevel),
	})

	server := httpapi.NewServer(httpCfg, httpapi.Dependencies{
		GetLeaderboardHandler:    getLeaderboard,
		GetUserStatsHandler:      getUserStats,
		CheckAchievementsHandler: checkAchievements,
		Rebuilder:                rebuilder,
		HealthChecker:            service.NewHealthChecker(dbConn, redisCache),
		Features:                 cfg.Features,
		Logger:                   httpLog,
	})

	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
