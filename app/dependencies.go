package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/notekeeper/auth"
	"github.com/upb/notekeeper/config"
	"github.com/upb/notekeeper/internal/observability"
	"github.com/upb/notekeeper/middleware"
	"github.com/upb/notekeeper/repositories"
	"github.com/upb/notekeeper/repositories/memory"
	"github.com/upb/notekeeper/repositories/postgres"
	"github.com/upb/notekeeper/services"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics

	// Storage. RepoFactory is nil when the memory driver is selected.
	RepoFactory *postgres.RepositoryFactory
	Store       repositories.HealthChecker

	// Repositories
	Users repositories.UserRepository
	Notes repositories.NoteRepository

	// Auth
	Hasher         *auth.PasswordHasher
	Tokens         *auth.TokenService
	AuthMiddleware *middleware.AuthMiddleware

	// Services
	AuthService *services.AuthService
	NoteService *services.NoteService
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Observability.MetricsEnabled {
		deps.Metrics = observability.NewMetrics()
	}

	if err := deps.initStorage(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := deps.initAuth(cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	deps.initServices()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initStorage opens the configured store and builds the repositories
func (d *Dependencies) initStorage(ctx context.Context, cfg *config.Config) error {
	var repos *repositories.Repositories

	switch cfg.Database.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		d.Store = store
		repos = store.NewRepositories()
		d.Logger.Warn("using in-memory storage, data is lost on restart")

	case config.DriverPostgres, config.DriverPGX:
		factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
		if err != nil {
			return fmt.Errorf("failed to create repository factory: %w", err)
		}
		d.RepoFactory = factory
		d.Store = factory.GetDB()

		if err := factory.GetDB().HealthCheck(ctx); err != nil {
			_ = factory.Close()
			return fmt.Errorf("database ping failed: %w", err)
		}
		if err := factory.InitSchema(ctx); err != nil {
			_ = factory.Close()
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
		if err := d.Metrics.RegisterDB(factory.GetDB().DB, "notekeeper"); err != nil {
			d.Logger.Warn("failed to register database metrics", zap.Error(err))
		}

		repos = factory.NewRepositories()
		d.Logger.Info("postgres storage ready",
			zap.String("driver", cfg.Database.Driver))

	default:
		return fmt.Errorf("unsupported storage driver %q", cfg.Database.Driver)
	}

	d.Users = repos.Users
	d.Notes = repos.Notes
	return nil
}

// initAuth builds the credential store, the token service and the guard
func (d *Dependencies) initAuth(cfg *config.Config) error {
	d.Hasher = auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	if d.Hasher.Cost() != cfg.Auth.BcryptCost {
		d.Logger.Warn("bcrypt cost out of range, using default",
			zap.Int("configured", cfg.Auth.BcryptCost),
			zap.Int("effective", d.Hasher.Cost()))
	}

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: cfg.Auth.SecretKey,
		TTL:    cfg.Auth.TokenTTL,
		Issuer: cfg.Auth.Issuer,
	})
	if err != nil {
		return err
	}
	d.Tokens = tokens
	return nil
}

// initServices wires the services and the auth guard on top of storage and auth
func (d *Dependencies) initServices() {
	d.AuthService = services.NewAuthService(d.Users, d.Hasher, d.Tokens, d.Logger)
	d.NoteService = services.NewNoteService(d.Notes, d.Logger)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Tokens, d.AuthService, d.Metrics, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	_ = d.Logger.Sync()

	return errors.Join(errs...)
}
