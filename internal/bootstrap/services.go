package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/bookloop/bookloop-ui-api/config"
	redisadapter "github.com/bookloop/bookloop-ui-api/internal/adapters/redis"
	"github.com/bookloop/bookloop-ui-api/internal/adapters/refresher"
	"github.com/bookloop/bookloop-ui-api/internal/ports"
	"github.com/bookloop/bookloop-ui-api/internal/service"
)

// ServiceContainer holds all constructed domain services.
type ServiceContainer struct {
	Sessions     *service.SessionService
	SessionStore ports.SessionStore
}

// ServiceDeps contains shared dependencies for building services.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices builds the service container from shared infrastructure.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps are required")
	}
	if deps.RedisClient == nil {
		return ServiceContainer{}, errors.New("redis client is required")
	}

	// Single store shared by the session service and the refresher sweep.
	store := redisadapter.NewSessionStoreWithPrefix(deps.RedisClient, "session:")

	sessions, err := BuildSessionService(SessionConfig{
		Config:   deps.Config,
		DB:       deps.DB,
		Logger:   deps.Logger,
		Sessions: store,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build session service: %w", err)
	}

	return ServiceContainer{
		Sessions:     sessions,
		SessionStore: store,
	}, nil
}

// ServiceOrchestrationConfig contains dependencies for running services.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// RunServicesWithShutdown starts all enabled services and manages their
// lifecycle. It blocks until a shutdown signal is received or a service
// fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, gctx := errgroup.WithContext(ctx)

	if enabled[config.ServiceModeHTTP] {
		startHTTPService(gctx, group, cfg, logger)
	}

	if enabled[config.ServiceModeRefresher] {
		runner, runnerErr := refresher.NewRunner(refresher.RunnerOptions{
			Sessions: cfg.Services.SessionStore,
			Service:  cfg.Services.Sessions,
			Config:   cfg.Config.Refresh,
			Logger:   logger,
		})
		if runnerErr != nil {
			return fmt.Errorf("build refresher runner: %w", runnerErr)
		}
		group.Go(func() error {
			if runErr := runner.Run(gctx); runErr != nil {
				return fmt.Errorf("refresher failed: %w", runErr)
			}
			return nil
		})
	}

	return group.Wait()
}
