package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/bookloop/bookloop-ui-api/internal/domain/auth"
)

// RegisterInput carries inputs for creating a new identity-provider account.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	PhotoURL    string
}

// ProfileInput carries the display profile fields shared by the provider and
// the backend user record.
type ProfileInput struct {
	DisplayName string
	PhotoURL    string
}

// CredentialProvider covers the identity provider's local email/password
// surface: account creation, sign-in, profile and credential management.
type CredentialProvider interface {
	// Register creates a new account and sets its display profile.
	Register(ctx context.Context, in RegisterInput) (domainauth.Identity, error)

	// Authenticate signs in an existing account with email and password.
	Authenticate(ctx context.Context, email, password string) (domainauth.Identity, error)

	// UpdateProfile updates the provider-side display profile of an identity.
	UpdateProfile(ctx context.Context, token string, in ProfileInput) error

	// UpdatePassword attaches or replaces the local password of an identity.
	UpdatePassword(ctx context.Context, token, newPassword string) error

	// SendPasswordReset requests a password-reset message for the email.
	// Whether a missing account is revealed is provider-dependent.
	SendPasswordReset(ctx context.Context, email string) error

	// RefreshToken forces a fresh identity token for the principal,
	// defending against stale authorization claims before role resolution.
	RefreshToken(ctx context.Context, token string) (newToken string, expiresAt time.Time, err error)
}

// BeginInput carries inputs for initiating a federated auth flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the federated code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// FederatedProvider initiates and completes a third-party sign-in flow.
type FederatedProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an
	// opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and
	// returns the authenticated identity. Identity.NewFederatedUser is set
	// when the provider reports a first-ever sign-in.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// SessionStore persists and retrieves user sessions. Save always replaces
// the stored snapshot wholesale.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
	// List returns all live sessions; the periodic role refresher walks it.
	List(ctx context.Context) ([]domainauth.Session, error)
}

// ProfileAPI is the marketplace backend's user surface. All calls carry the
// principal's bearer token; the adapter owns base URL, timeout, and
// response-envelope normalization.
type ProfileAPI interface {
	// CurrentUser resolves the backend role/flags for the principal.
	CurrentUser(ctx context.Context, token string) (domainauth.Profile, error)

	// UpdateProfile writes the display profile to the backend user record.
	UpdateProfile(ctx context.Context, token string, in ProfileInput) error

	// EnsureUser best-effort creates the backend user record for a
	// first-time federated sign-in.
	EnsureUser(ctx context.Context, token string, in ProfileInput) error

	// AcknowledgePasswordSet tells the backend a local password was
	// attached to a federated account.
	AcknowledgePasswordSet(ctx context.Context, token string) error
}

// AuthEvent is an audit record of an authentication lifecycle step.
type AuthEvent struct {
	IdentityID string
	Email      string
	Kind       string // e.g. "login", "logout", "federated_sync_failed"
	Detail     string
}

// AuthEventRecorder persists audit events. Recording failures must never
// fail the user-facing operation; callers log and move on.
type AuthEventRecorder interface {
	Record(ctx context.Context, ev AuthEvent) error
}
