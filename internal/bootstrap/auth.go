package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/bookloop/bookloop-ui-api/config"
	"github.com/bookloop/bookloop-ui-api/internal/adapters/backend"
	"github.com/bookloop/bookloop-ui-api/internal/adapters/devauth"
	"github.com/bookloop/bookloop-ui-api/internal/adapters/idp"
	"github.com/bookloop/bookloop-ui-api/internal/adapters/oidc"
	redisadapter "github.com/bookloop/bookloop-ui-api/internal/adapters/redis"
	"github.com/bookloop/bookloop-ui-api/internal/data"
	"github.com/bookloop/bookloop-ui-api/internal/ports"
	"github.com/bookloop/bookloop-ui-api/internal/service"
)

// SessionConfig contains the dependencies for building the session service.
type SessionConfig struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient
	DB          *sql.DB // optional; enables the auth event audit log
	Logger      *slog.Logger

	// Sessions overrides the Redis-backed store. When nil a store is
	// built from RedisClient.
	Sessions ports.SessionStore
}

// BuildSessionService wires the session service for the configured auth
// mode. The Redis session store and the Postgres audit log are shared by
// both modes; only the identity providers differ.
func BuildSessionService(cfg SessionConfig) (*service.SessionService, error) {
	if cfg.Config == nil {
		return nil, fmt.Errorf("app config is required")
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		if cfg.RedisClient == nil {
			return nil, fmt.Errorf("redis client is required")
		}
		sessionStore = redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, "session:")
	}

	var events ports.AuthEventRecorder
	if cfg.DB != nil {
		events = data.NewAuthEventRepo(cfg.DB)
	} else if cfg.Logger != nil {
		cfg.Logger.Warn("auth event audit log disabled: no database connection")
	}

	profiles, err := backend.NewProfileClient(backend.Config{
		BaseURL: cfg.Config.Backend.BaseURL,
		Timeout: cfg.Config.Backend.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("wire backend profile client: %w", err)
	}

	opts := service.SessionServiceOptions{
		Profiles:   profiles,
		Sessions:   sessionStore,
		Events:     events,
		Logger:     cfg.Logger,
		SessionTTL: cfg.Config.Auth.SessionTTL,
	}

	switch cfg.Config.Auth.Mode {
	case config.AuthModeDev:
		if buildErr := buildDevProviders(cfg, &opts); buildErr != nil {
			return nil, buildErr
		}
	case config.AuthModeIdentity:
		if buildErr := buildIdentityProviders(cfg, &opts); buildErr != nil {
			return nil, buildErr
		}
	default:
		return nil, fmt.Errorf("unsupported auth mode: %q", cfg.Config.Auth.Mode)
	}

	svc, err := service.NewSessionService(opts)
	if err != nil {
		return nil, fmt.Errorf("wire session service: %w", err)
	}
	return svc, nil
}

func buildDevProviders(cfg SessionConfig, opts *service.SessionServiceOptions) error {
	prov, err := devauth.NewProvider(devauth.Config{
		IdentityID:  cfg.Config.Auth.DevAuth.IdentityID,
		Email:       cfg.Config.Auth.DevAuth.Email,
		DisplayName: cfg.Config.Auth.DevAuth.DisplayName,
	})
	if err != nil {
		return fmt.Errorf("wire dev auth provider: %w", err)
	}

	// The dev provider serves both the local and the federated flow.
	opts.Credentials = prov
	opts.Federated = prov
	return nil
}

func buildIdentityProviders(cfg SessionConfig, opts *service.SessionServiceOptions) error {
	creds, err := idp.NewClient(idp.Config{
		BaseURL: cfg.Config.Auth.Identity.BaseURL,
		APIKey:  cfg.Config.Auth.Identity.APIKey,
		Timeout: cfg.Config.Auth.Identity.Timeout,
	})
	if err != nil {
		return fmt.Errorf("wire identity provider: %w", err)
	}
	opts.Credentials = creds

	// Federated sign-in is optional: when OIDC is not configured the local
	// email/password flow keeps working and the federated routes report an
	// error instead.
	oauth := cfg.Config.Auth.OIDC
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		if cfg.Logger != nil {
			cfg.Logger.Warn("federated sign-in disabled: OIDC config incomplete",
				"discovery_url_empty", oauth.DiscoveryURL == "",
				"client_id_empty", oauth.ClientID == "",
				"client_secret_empty", oauth.ClientSecret == "",
			)
		}
		return nil
	}

	federated, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
	})
	if err != nil {
		return fmt.Errorf("wire OIDC provider: %w", err)
	}
	opts.Federated = federated
	return nil
}
