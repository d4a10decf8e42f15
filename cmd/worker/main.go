// Package main - точка входа фоновых процессов (Worker) GameSphere Scoring.
//
// Worker отвечает за периодические задачи:
// - Пересборка снапшота лидерборда и наполнение кеша
// - Ночной обход каталога достижений по всем пользователям
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gamesphere/gamesphere-scoring/config"
	"github.com/gamesphere/gamesphere-scoring/internal/application/eventhandler"
	"github.com/gamesphere/gamesphere-scoring/internal/application/saga"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/achievement"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/leaderboard"
	"github.com/gamesphere/gamesphere-scoring/internal/domain/stats"
	"github.com/gamesphere/gamesphere-scoring/internal/infrastructure/messaging"
	"github.com/gamesphere/gamesphere-scoring/internal/infrastructure/persistence/postgres"
	"github.com/gamesphere/gamesphere-scoring/internal/infrastructure/persistence/redis"
	"github.com/gamesphere/gamesphere-scoring/internal/infrastructure/scheduler"
	"github.com/gamesphere/gamesphere-scoring/internal/infrastructure/scheduler/jobs"
	"github.com/gamesphere/gamesphere-scoring/internal/infrastructure/service"
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

	log := setupLogger(cfg)
	log.Info("starting GameSphere Scoring worker",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
	)

	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("scheduler is disabled, nothing to do")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. POSTGRESQL
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

	// Worker тоже должен работать с актуальной схемой.
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		redisCache *redis.Cache
		lbCache    leaderboard.Cache
		statsCache stats.Cache
		locker     jobs.Locker
	)

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			lbCache = redis.NewLeaderboardCacheWithTTL(redisCache, cfg.Scoring.SnapshotTTL, cfg.Scoring.FreshnessTTL)
			if cfg.Features.IsEnabled(config.FeatureStatsCache) {
				statsCache = redis.NewStatsCacheWithTTL(redisCache, cfg.Scoring.StatsCacheTTL)
			}
			locker = redis.NewDistributedLock(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. EVENT BUS И СЕРВИСЫ
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		_ = eventBus.Close()
	}()

	awardedHandler := eventhandler.NewOnAchievementAwardedHandler(log)
	if err := awardedHandler.Register(eventBus); err != nil {
		return fmt.Errorf("failed to register event handler: %w", err)
	}

	profileRepo := postgres.NewProfileRepository(dbConn)
	awardRepo := postgres.NewAwardRepository(dbConn)
	scoreRepo := postgres.NewScoreRepository(dbConn)
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)

	catalog := achievement.SeedCatalog()
	flow := saga.NewAwardFlowSaga(profileRepo, awardRepo, scoreRepo, catalog, lbCache, statsCache, eventBus, log)
	rebuilder := service.NewLeaderboardRebuilder(leaderboardRepo, lbCache, eventBus, cfg.Scoring.FreshnessTTL, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ПЛАНИРОВЩИК
	// ─────────────────────────────────────────────────────────────────────────
	schedConfig := scheduler.DefaultSchedulerConfig()
	schedConfig.Logger = log
	sched := scheduler.NewScheduler(schedConfig)

	rebuildJob := jobs.NewRebuildLeaderboardJob(rebuilder, locker, log, jobs.RebuildLeaderboardConfig{
		Timeout: cfg.Scheduler.JobTimeout,
		LockTTL: cfg.Scheduler.JobTimeout + cfg.Scheduler.JobTimeout/2,
	})
	if err := sched.Register(rebuildJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildLeaderboardInterval)); err != nil {
		return fmt.Errorf("failed to register rebuild job: %w", err)
	}

	if cfg.Features.IsEnabled(config.FeatureAchievementSweep) {
		sweepSchedule, err := scheduler.ParseDailyTime(cfg.Scheduler.SweepTime, time.UTC)
		if err != nil {
			return fmt.Errorf("invalid sweep time %q: %w", cfg.Scheduler.SweepTime, err)
		}

		sweepJob := jobs.NewSweepAchievementsJob(profileRepo, flow, locker, log, jobs.SweepAchievementsConfig{
			Concurrency: cfg.Scheduler.SweepConcurrency,
			Timeout:     cfg.Scheduler.JobTimeout,
			LockTTL:     cfg.Scheduler.JobTimeout + cfg.Scheduler.JobTimeout/2,
		})
		if err := sched.Register(sweepJob, sweepSchedule); err != nil {
			return fmt.Errorf("failed to register sweep job: %w", err)
		}
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	log.Info("worker is running", "jobs", len(sched.ListJobs()))

	// ─────────────────────────────────────────────────────────────────────────
	// 6. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	if err := sched.Stop(); err != nil {
		log.Warn("scheduler stop failed", "error", err)
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
