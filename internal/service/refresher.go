package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bookloop/bookloop-ui-api/config"
	"github.com/bookloop/bookloop-ui-api/internal/ports"
)

// RefresherOptions groups dependencies for SessionRefresher.
type RefresherOptions struct {
	Sessions ports.SessionStore   // Required: session store to walk
	Service  *SessionService      // Required: performs the per-session refresh
	Config   config.RefreshConfig // Required: interval configuration
	Logger   *slog.Logger         // Optional: structured logger
}

// SessionRefresher periodically re-resolves backend role/flags for every
// live session, so server-side role changes (say, a promotion to admin)
// land without requiring re-login. The loop is tied to its context: cancel
// the context and the ticker is gone, leaving no orphaned timers across
// sign-in/sign-out cycles.
type SessionRefresher struct {
	sessions ports.SessionStore
	svc      *SessionService
	interval time.Duration
	logger   *slog.Logger
}

// NewSessionRefresher constructs a new SessionRefresher.
func NewSessionRefresher(opts RefresherOptions) (*SessionRefresher, error) {
	if opts.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if opts.Service == nil {
		return nil, errors.New("session service is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionRefresher{
		sessions: opts.Sessions,
		svc:      opts.Service,
		interval: opts.Config.Interval,
		logger:   logger.With("component", "session_refresher"),
	}, nil
}

// Run starts the refresh loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (r *SessionRefresher) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting session refresher", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "session refresher stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			r.refreshAll(ctx)
		}
	}
}

// RefreshAll walks every live session and re-resolves it once. Exposed for
// manual triggering; Run calls it on each tick.
func (r *SessionRefresher) RefreshAll(ctx context.Context) {
	r.refreshAll(ctx)
}

func (r *SessionRefresher) refreshAll(ctx context.Context) {
	sessions, err := r.sessions.List(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "list sessions for refresh failed", "error", err)
		return
	}

	refreshed := 0
	for _, sess := range sessions {
		if ctx.Err() != nil {
			return
		}
		// A session deleted between List and Refresh is a no-op, not an
		// error: refresh may race with logout and logout wins.
		if _, refreshErr := r.svc.RefreshSession(ctx, sess.ID); refreshErr != nil {
			r.logger.WarnContext(ctx, "session refresh failed",
				"session_id", sess.ID, "error", refreshErr)
			continue
		}
		refreshed++
	}

	if refreshed > 0 {
		r.logger.DebugContext(ctx, "session refresh sweep complete", "count", refreshed)
	}
}
