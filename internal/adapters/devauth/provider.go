package devauth

// Package devauth provides a simple, config-driven identity provider for
// local development. One Provider serves both the email/password surface and
// the federated flow, so the rest of the stack runs without external services.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/bookloop/bookloop-ui-api/internal/domain/auth"
	"github.com/bookloop/bookloop-ui-api/internal/ports"
)

// Config controls the dev auth provider behavior.
// All fields are required except SessionDuration, which defaults to 8h.
type Config struct {
	IdentityID      string
	Email           string
	DisplayName     string
	SessionDuration time.Duration // default 8h when zero
}

// Provider implements ports.CredentialProvider and ports.FederatedProvider
// for local development. Any email/password pair authenticates as the
// configured identity; the federated flow short-circuits the OAuth dance by
// redirecting back to our own callback with locally generated state and nonce.
type Provider struct {
	mu              sync.Mutex
	identity        domainauth.Identity
	hasPassword     bool
	sessionDuration time.Duration
}

var (
	_ ports.CredentialProvider = (*Provider)(nil)
	_ ports.FederatedProvider  = (*Provider)(nil)
)

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.IdentityID == "" {
		return nil, errors.New("dev auth: IdentityID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	dur := cfg.SessionDuration
	if dur == 0 {
		dur = 8 * time.Hour
	}
	return &Provider{
		identity: domainauth.Identity{
			IdentityID:  cfg.IdentityID,
			Email:       cfg.Email,
			DisplayName: cfg.DisplayName,
			Token:       "dev-token-" + cfg.IdentityID,
			ExpiresAt:   time.Now().Add(dur),
		},
		hasPassword:     true,
		sessionDuration: dur,
	}, nil
}

// Register returns the configured identity stamped with the requested
// profile fields. The dev provider holds a single account.
func (p *Provider) Register(_ context.Context, in ports.RegisterInput) (domainauth.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.identity.Email = in.Email
	p.identity.DisplayName = in.DisplayName
	p.identity.PhotoURL = in.PhotoURL
	p.hasPassword = true
	return p.freshIdentity(), nil
}

// Authenticate accepts any non-empty credentials and returns the dev identity.
func (p *Provider) Authenticate(_ context.Context, email, password string) (domainauth.Identity, error) {
	if email == "" || password == "" {
		return domainauth.Identity{}, errors.New("dev auth: email and password are required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freshIdentity(), nil
}

func (p *Provider) UpdateProfile(_ context.Context, _ string, in ports.ProfileInput) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.identity.DisplayName = in.DisplayName
	p.identity.PhotoURL = in.PhotoURL
	return nil
}

func (p *Provider) UpdatePassword(_ context.Context, _ string, newPassword string) error {
	if newPassword == "" {
		return errors.New("dev auth: password cannot be empty")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hasPassword = true
	return nil
}

func (p *Provider) SendPasswordReset(_ context.Context, email string) error {
	if email == "" {
		return errors.New("dev auth: email is required")
	}
	return nil
}

func (p *Provider) RefreshToken(_ context.Context, token string) (string, time.Time, error) {
	if token == "" {
		return "", time.Time{}, errors.New("dev auth: token is required")
	}
	return token, time.Now().Add(p.sessionDuration), nil
}

// Begin returns a local callback URL and cryptographically secure state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	// Our standard handler expects GET /auth/federated/callback?code=...&state=...
	authURL := "/auth/federated/callback?code=dev&state=" + state
	return authURL, state, nonce, nil
}

// Exchange ignores the provided code/state/nonce (validation handled by handler) and returns the dev identity.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freshIdentity(), nil
}

// freshIdentity refreshes the expiry when it gets close, for convenience.
// Callers must hold p.mu.
func (p *Provider) freshIdentity() domainauth.Identity {
	if time.Until(p.identity.ExpiresAt) < 5*time.Minute {
		p.identity.ExpiresAt = time.Now().Add(p.sessionDuration)
	}
	return p.identity
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	// Compute number of random bytes needed to produce at least n base64 URL chars
	bLen := (n*3 + 3) / 4
	b := make([]byte, bLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < n {
		// pad
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:n], nil
}
