// Package refresher provides the adapter for running the periodic session
// refresh loop as a standalone service mode.
package refresher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bookloop/bookloop-ui-api/config"
	"github.com/bookloop/bookloop-ui-api/internal/ports"
	"github.com/bookloop/bookloop-ui-api/internal/service"
)

// Runner constructs the session refresher and runs its sweep loop.
type Runner struct {
	refresher *service.SessionRefresher
	logger    *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Sessions ports.SessionStore
	Service  *service.SessionService
	Config   config.RefreshConfig
	Logger   *slog.Logger
}

// NewRunner creates a new refresher runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	refresher, err := service.NewSessionRefresher(service.RefresherOptions{
		Sessions: opts.Sessions,
		Service:  opts.Service,
		Config:   opts.Config,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("wire session refresher: %w", err)
	}

	return &Runner{
		refresher: refresher,
		logger:    opts.Logger,
	}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.Sessions == nil {
		return errors.New("session store is required")
	}
	if opts.Service == nil {
		return errors.New("session service is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return nil
}

// Run starts the refresh loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting refresher runner")
	return r.refresher.Run(ctx)
}
