package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/school-portal/internal/api/http"
	"github.com/spec-kit/school-portal/internal/api/http/handlers"
	"github.com/spec-kit/school-portal/internal/auth"
	"github.com/spec-kit/school-portal/internal/config"
	"github.com/spec-kit/school-portal/internal/identity"
	"github.com/spec-kit/school-portal/internal/observability"
	"github.com/spec-kit/school-portal/internal/persistence"
	"github.com/spec-kit/school-portal/internal/session"
	"github.com/spec-kit/school-portal/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	seed, err := identity.LoadSeed()
	if err != nil {
		logger.Fatal("failed to load identity seed", zap.Error(err))
	}
	var demo []identity.DemoCredential
	if cfg.Auth.ExposeDemoCredentials {
		demo = seed.DemoCredentials()
	}

	directory, err := loadDirectory(ctx, cfg, pg, seed, logger)
	if err != nil {
		logger.Fatal("failed to load identity directory", zap.Error(err))
	}
	if err := directory.Validate(); err != nil {
		logger.Fatal("identity directory inconsistent", zap.Error(err))
	}

	matcher, err := auth.MatcherFor(cfg.Auth.PasswordScheme)
	if err != nil {
		logger.Fatal("invalid password scheme", zap.Error(err))
	}
	validator := auth.NewValidator(directory, matcher, cfg.Auth.SimulatedLatency(), logger.Named("auth"))

	var redis *persistence.Redis
	var storage session.Storage
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		redis = persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()

		redisStorage := session.NewRedisStorage(redis.Client, cfg.Redis.KeyPrefix, cfg.Redis.Channel, logger.Named("session"))
		if err := redisStorage.Start(ctx); err != nil {
			logger.Fatal("failed to subscribe to session changes", zap.Error(err))
		}
		defer redisStorage.Close() //nolint:errcheck
		storage = redisStorage
	default:
		storage = session.NewMemoryStorage()
	}

	registry := session.NewRegistry(storage, validator, logger.Named("session"), metrics)
	defer registry.Close()

	sweeper, err := worker.NewSessionSweeper(registry, cfg.Session.SweepSchedule, cfg.Session.ObserverIdle(), logger.Named("sweeper"))
	if err != nil {
		logger.Fatal("invalid session sweep schedule", zap.Error(err))
	}
	sweeper.Start()

	policy := auth.DefaultPolicy()
	access := auth.NewAccessController(policy)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:     handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:       handlers.NewAuthHandler(policy, demo, logger.Named("http")),
		Dashboard:  handlers.NewDashboardHandler(directory),
		Metrics:    metrics,
		CookieName: cfg.Session.CookieName,
		Sessions:   auth.NewSessionMiddleware(registry),
		Guard:      auth.NewGuard(access, metrics),
		Policy:     policy,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	sweeper.Stop(shutdownCtx)
	_ = app.ShutdownWithContext(shutdownCtx)
}

// loadDirectory serves identities from Postgres when configured, seeding the
// tables first if asked to, and from the embedded seed otherwise.
func loadDirectory(ctx context.Context, cfg *config.Config, pg *persistence.Postgres, seed *identity.Directory, logger *zap.Logger) (*identity.Directory, error) {
	if cfg.Auth.PasswordScheme == config.PasswordSchemeBcrypt {
		hashed, err := auth.HashCredentials(seed.Credentials(), cfg.Auth.BcryptCost)
		if err != nil {
			return nil, err
		}
		if seed, err = identity.NewDirectory(seed.All(), hashed); err != nil {
			return nil, err
		}
	}

	if !pg.Configured() {
		return seed, nil
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			return nil, err
		}
	}
	if cfg.Postgres.SeedIdentities {
		n, err := identity.SeedPostgres(ctx, pg.PoolHandle(), seed)
		if err != nil {
			return nil, err
		}
		logger.Info("identity seed applied", zap.Int("inserted", n))
	}
	return identity.LoadPostgres(ctx, pg.PoolHandle())
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
