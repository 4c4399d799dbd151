package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/userhub/internal/app"
	"github.com/charlesng35/userhub/internal/cache"
	"github.com/charlesng35/userhub/internal/database"
	"github.com/charlesng35/userhub/internal/monitoring"
	"github.com/charlesng35/userhub/internal/monitoring/checks"
	"github.com/charlesng35/userhub/internal/repository"
	"github.com/charlesng35/userhub/internal/services"
	"github.com/charlesng35/userhub/pkg/logger"
)

// Demo users share one pre-hashed password; hashing real credentials is the
// auth edge's job, not the seeder's.
const demoPasswordHash = "$2b$12$4hRjDLesEOTRRWcA2cT9IOUiYJb6dBkBGI5ognoI3vIPDDlBC7HIm"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("userhub-seed", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var (
		configPath string
		count      int
	)
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")
	fs.IntVar(&count, "count", 1000, "Number of demo users to create")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if count < 0 {
		return fmt.Errorf("count must be non-negative, got %d", count)
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("seed")

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	store, closeStore := initialiseCacheStore(cfg, db, log)
	defer closeStore()

	if err := verifyDependencies(ctx, db, store, log); err != nil {
		return err
	}

	svc, err := buildUserService(cfg, db, store)
	if err != nil {
		return err
	}

	created, err := seedUsers(ctx, svc, count, log)
	log.Info("seeding finished", zap.Int("created", created), zap.Int("requested", count))
	return err
}

func loadApplicationConfig(path string) (*app.Config, error) {
	if path == "" {
		return app.LoadConfig()
	}
	return app.LoadConfig(path)
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.Database.DatabaseOpenConfig())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to resolve database handle for shutdown", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}

// initialiseCacheStore prefers Redis and falls back to the database-backed
// store when Redis is disabled or unreachable. The repositories fail open on
// top of whichever store wins, so seeding never blocks on cache health.
func initialiseCacheStore(cfg *app.Config, db *gorm.DB, log *zap.Logger) (cache.Store, func()) {
	if cfg.Cache.Redis.Enabled {
		store, err := cache.NewRedisStore(cfg.Cache.RedisStoreConfig())
		if err == nil {
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
			return store, func() { _ = store.Close() }
		}
		log.Warn("redis unavailable; falling back to database-backed cache", zap.Error(err))
	}
	return cache.NewDatabaseStore(db), func() {}
}

// verifyDependencies runs the readiness probes once before seeding. A dead
// database aborts the run; a degraded cache is logged and tolerated.
func verifyDependencies(ctx context.Context, db *gorm.DB, store cache.Store, log *zap.Logger) error {
	manager := monitoring.NewHealthManager()
	manager.Register(checks.Database(db))
	manager.Register(checks.Cache(store))

	report := manager.Evaluate(ctx)
	for _, result := range report.Checks {
		switch result.Status {
		case monitoring.StatusUp:
			log.Debug("dependency healthy", zap.String("component", result.Component))
		case monitoring.StatusDegraded:
			log.Warn("dependency degraded", zap.String("component", result.Component), zap.String("details", result.Details))
		case monitoring.StatusDown:
			log.Error("dependency down", zap.String("component", result.Component), zap.String("details", result.Details))
		}
	}
	if report.Status == monitoring.StatusDown {
		return errors.New("required dependencies are unavailable")
	}
	return nil
}

func buildUserService(cfg *app.Config, db *gorm.DB, store cache.Store) (*services.UserService, error) {
	users, err := repository.NewGormUserRepository(db)
	if err != nil {
		return nil, err
	}
	profiles, err := repository.NewGormUserProfileRepository(db)
	if err != nil {
		return nil, err
	}

	cachedUsers, err := repository.NewCachedUserRepository(users, store, cfg.Cache.TTL)
	if err != nil {
		return nil, err
	}
	cachedProfiles, err := repository.NewCachedUserProfileRepository(profiles, store, cfg.Cache.TTL)
	if err != nil {
		return nil, err
	}

	return services.NewUserService(cachedUsers, cachedProfiles)
}

// seedUsers creates demo accounts through the cached repository stack so that
// freshly seeded data is immediately servable from the cache.
func seedUsers(ctx context.Context, svc *services.UserService, count int, log *zap.Logger) (int, error) {
	created := 0
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		username := fmt.Sprintf("testuser%d", i)
		input := services.CreateUserInput{
			Username:       username,
			Email:          fmt.Sprintf("testuser%d@example.com", i),
			FullName:       fmt.Sprintf("Test User %d", i),
			HashedPassword: demoPasswordHash,
		}

		_, err := svc.Create(ctx, input)
		switch {
		case err == nil:
			created++
		case errors.Is(err, repository.ErrUserExists):
			log.Debug("user already exists, skipping", zap.String("username", username))
		default:
			return created, fmt.Errorf("create %s: %w", username, err)
		}

		if created > 0 && created%100 == 0 {
			log.Info("progress", zap.Int("created", created))
		}
	}
	return created, nil
}
