package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bookloop/bookloop-ui-api/config"
	httpx "github.com/bookloop/bookloop-ui-api/internal/http"
)

// shutdownWaitTimeout is the maximum time to wait for in-flight requests
// during graceful shutdown.
const shutdownWaitTimeout = 15 * time.Second

// NewHTTPServer builds the HTTP server for the given service container.
func NewHTTPServer(cfg *config.AppConfig, services ServiceContainer, logger *slog.Logger) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := httpx.NewRouter(httpx.RouterServices{
		Sessions:     services.Sessions,
		CookieDomain: cfg.HTTP.CookieDomain,
		CallbackURL:  callbackURL(cfg),
		Logger:       logger,
	})

	// Order: Recover -> Logging -> Router
	handler := httpx.Recover(logger)(httpx.Logging(logger)(router))

	addr := cfg.HTTP.Addr
	if addr == "" {
		addr = ":8080"
	}

	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// callbackURL derives the federated sign-in callback from the app base URL.
func callbackURL(cfg *config.AppConfig) string {
	base := strings.TrimRight(cfg.HTTP.BaseURL, "/")
	return base + "/auth/federated/callback"
}

// startHTTPService runs the HTTP server under the orchestration group and
// drains it when the group context is cancelled.
func startHTTPService(ctx context.Context, group *errgroup.Group, cfg *ServiceOrchestrationConfig, logger *slog.Logger) {
	server := NewHTTPServer(cfg.Config, cfg.Services, logger)

	group.Go(func() error {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info("HTTP server stopped")
		return nil
	})
}
