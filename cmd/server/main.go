// Package main is the entry point of the HabitVerse progression engine.
//
// The engine is a gamified habit-tracking backend: users earn XP for
// completing habits, level up on a triangular threshold curve, keep daily
// streaks, and unlock achievements exactly once. This binary wires the
// layers together:
//   - Domain: progression rules with no external dependencies
//   - Application: command/query handlers and the achievement flow
//   - Infrastructure: Postgres (or in-memory) store, Redis view cache,
//     coach provider client, in-process event bus
//   - Interface: the REST API
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/habitverse/habitverse-engine/config"
	"github.com/habitverse/habitverse-engine/internal/application/command"
	"github.com/habitverse/habitverse-engine/internal/application/query"
	"github.com/habitverse/habitverse-engine/internal/application/saga"
	"github.com/habitverse/habitverse-engine/internal/domain/achievement"
	"github.com/habitverse/habitverse-engine/internal/domain/coaching"
	"github.com/habitverse/habitverse-engine/internal/domain/habit"
	"github.com/habitverse/habitverse-engine/internal/domain/user"
	"github.com/habitverse/habitverse-engine/internal/infrastructure/external/coach"
	"github.com/habitverse/habitverse-engine/internal/infrastructure/messaging"
	"github.com/habitverse/habitverse-engine/internal/infrastructure/persistence/memory"
	"github.com/habitverse/habitverse-engine/internal/infrastructure/persistence/postgres"
	"github.com/habitverse/habitverse-engine/internal/infrastructure/persistence/redis"
	httpserver "github.com/habitverse/habitverse-engine/internal/interface/http"
	"github.com/habitverse/habitverse-engine/pkg/logger"
	"github.com/habitverse/habitverse-engine/pkg/timeutil"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

// repositories groups the store-backed repository set so the rest of the
// wiring does not care whether Postgres or memory is behind it.
type repositories struct {
	users       user.Repository
	habits      habit.Repository
	completions habit.CompletionRepository
	moods       habit.MoodRepository
	unlocks     achievement.UnlockRepository
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. Configuration
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. Logging
	// ─────────────────────────────────────────────────────────────────────────
	logOpts := logger.DefaultOptions()
	logOpts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	log := logger.New(logOpts)

	log.Info("starting habitverse engine",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("timezone", cfg.App.ReferenceTimezone),
	)

	clock := timeutil.NewSystemClock(cfg.App.Location)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. Store (Postgres when configured, in-memory otherwise)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		repos  repositories
		uow    command.UnitOfWork
		health httpserver.HealthChecker
	)

	if cfg.Database.URL != "" {
		log.Info("connecting to database")
		conn, err := postgres.NewConnection(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection")
			conn.Close()
		}()

		if err := conn.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}

		log.Info("running database migrations")
		migrator := postgres.NewMigrator(conn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		repos = repositories{
			users:       postgres.NewUserRepository(conn),
			habits:      postgres.NewHabitRepository(conn),
			completions: postgres.NewCompletionRepository(conn),
			moods:       postgres.NewMoodRepository(conn),
			unlocks:     postgres.NewUnlockRepository(conn),
		}
		uow = conn
		health = conn
	} else {
		log.Warn("DATABASE_URL not set, using in-memory store")
		store := memory.NewStore()
		repos = repositories{
			users:       store.UserRepository(),
			habits:      store.HabitRepository(),
			completions: store.CompletionRepository(),
			moods:       store.MoodRepository(),
			unlocks:     store.UnlockRepository(),
		}
		uow = store
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. Event bus
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultConfig()
	busCfg.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busCfg)
	defer func() {
		log.Info("closing event bus")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 5. Redis view cache (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var viewCache httpserver.ViewCache

	if cfg.Redis.Enabled {
		log.Info("connecting to redis", logger.String("addr", cfg.Redis.Addr))
		cache, err := redis.NewCache(redis.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Warn("failed to connect to redis, view caching disabled",
				logger.String("error", err.Error()))
		} else {
			defer cache.Close()

			vc := redis.NewViewCache(cache, log)
			if err := vc.RegisterInvalidation(eventBus); err != nil {
				return fmt.Errorf("failed to register cache invalidation: %w", err)
			}
			viewCache = vc
			log.Info("redis view cache enabled")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. Coach provider
	// ─────────────────────────────────────────────────────────────────────────
	var provider coaching.Provider

	if cfg.Coach.APIKey != "" {
		clientCfg := coach.DefaultClientConfig(cfg.Coach.BaseURL, cfg.Coach.APIKey)
		clientCfg.Model = cfg.Coach.Model
		clientCfg.Timeout = cfg.Coach.Timeout
		clientCfg.Logger = log
		provider = coach.NewClient(clientCfg)
		log.Info("coach provider enabled", logger.String("model", cfg.Coach.Model))
	} else {
		provider = coach.NewStaticProvider()
		log.Info("COACH_API_KEY not set, serving static coach text")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. Application layer
	// ─────────────────────────────────────────────────────────────────────────
	locks := command.NewUserLocks()
	evaluator := saga.NewAchievementEvaluator(
		repos.habits, repos.completions, repos.moods, repos.unlocks,
		eventBus, clock, log,
	)

	moodPolicy := command.ParseSameDayPolicy(cfg.Progression.MoodSameDayPolicy)

	deps := httpserver.Dependencies{
		CreateUser:  command.NewCreateUserHandler(repos.users, eventBus, log),
		CreateHabit: command.NewCreateHabitHandler(repos.users, repos.habits, uow, evaluator, locks, eventBus, log),
		CompleteHabit: command.NewCompleteHabitHandler(
			repos.users, repos.habits, repos.completions, uow, evaluator, locks, eventBus, clock, log,
		),
		LogMood: command.NewLogMoodHandler(
			repos.users, repos.moods, uow, evaluator, locks, moodPolicy, eventBus, clock, log,
		),
		GetUser: query.NewGetUserHandler(repos.users),
		GetDashboard: query.NewGetDashboardHandler(
			repos.users, repos.habits, repos.completions, repos.moods, repos.unlocks,
			provider, clock, log,
		),
		GetHabits:       query.NewGetHabitsHandler(repos.users, repos.habits, repos.completions, clock),
		GetAchievements: query.NewGetAchievementsHandler(repos.users, repos.unlocks),
		GetAnalytics:    query.NewGetAnalyticsHandler(repos.users, repos.completions, repos.moods, clock),
		GetSuggestions:  query.NewGetSuggestionsHandler(repos.users, repos.habits, provider, log),
		GetStats:        query.NewGetStatsHandler(repos.users, repos.completions, repos.moods, clock),
		Cache:           viewCache,
		Store:           health,
		Logger:          log,
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HTTP server
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.Server.Host
	serverCfg.Port = cfg.Server.Port
	serverCfg.ReadTimeout = cfg.Server.ReadTimeout
	serverCfg.WriteTimeout = cfg.Server.WriteTimeout
	serverCfg.IdleTimeout = cfg.Server.IdleTimeout
	serverCfg.EnableCORS = cfg.Server.EnableCORS
	serverCfg.AllowedOrigins = cfg.Server.AllowedOrigins
	serverCfg.RateLimitPerMinute = cfg.Server.RateLimitPerMinute

	server := httpserver.NewServer(serverCfg, deps)
	errCh := server.StartAsync()

	log.Info("habitverse engine is ready", logger.String("address", server.Address()))

	// ─────────────────────────────────────────────────────────────────────────
	// 9. Wait for shutdown
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("habitverse engine stopped")
	return nil
}
