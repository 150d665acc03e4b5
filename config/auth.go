package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeIdentity authenticates against the hosted identity provider
	// (local email/password plus the OIDC federated flow).
	AuthModeIdentity AuthMode = "identity"
	// AuthModeDev uses the in-memory dev provider (for development only).
	AuthModeDev AuthMode = "dev"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "identity", "dev":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: identity, dev)", v)
	}
}

// IdentityConfig configures the REST identity provider used for local
// email/password accounts (register, sign-in, password management).
type IdentityConfig struct {
	BaseURL string        `env:"BASE_URL"`
	APIKey  string        `env:"API_KEY"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// OIDCConfig contains the federated (third-party) sign-in configuration.
type OIDCConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/federated/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
}

// DevAuthConfig controls the dev provider identity.
// Used when AUTH_MODE=dev for development and testing.
type DevAuthConfig struct {
	IdentityID  string `env:"IDENTITY_ID"  envDefault:"dev-user"`
	Email       string `env:"EMAIL"        envDefault:"dev@example.com"`
	DisplayName string `env:"DISPLAY_NAME" envDefault:"Dev User"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity provider wiring to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"identity"`

	// Identity provider configuration (used when Mode=identity).
	Identity IdentityConfig `envPrefix:"IDP_"`

	// OIDC federated sign-in configuration (used when Mode=identity).
	OIDC OIDCConfig `envPrefix:"OIDC_"`

	// DevAuth configuration (used when Mode=dev).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// SessionTTL caps the lifetime of a session when the provider does not
	// report a token expiry.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.SessionTTL < time.Minute {
		a.SessionTTL = time.Minute
	}
	if a.Identity.Timeout <= 0 {
		a.Identity.Timeout = 10 * time.Second
	}
}

// RefreshConfig contains the periodic session refresh configuration.
type RefreshConfig struct {
	// Interval is how often live sessions are re-resolved against the
	// backend to pick up server-side role changes.
	Interval time.Duration `env:"SESSION_REFRESH_INTERVAL" envDefault:"5m"`
}

// Sanitize applies guardrails to refresh configuration values.
func (r *RefreshConfig) Sanitize() {
	// Enforce a floor to avoid hammering the backend
	if r.Interval < 30*time.Second {
		r.Interval = 30 * time.Second
	}
}
