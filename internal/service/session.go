package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/bookloop/bookloop-ui-api/internal/domain/auth"
	apperrors "github.com/bookloop/bookloop-ui-api/internal/errors"
	"github.com/bookloop/bookloop-ui-api/internal/ports"
)

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Credentials ports.CredentialProvider
	Federated   ports.FederatedProvider
	Profiles    ports.ProfileAPI
	Sessions    ports.SessionStore
	Events      ports.AuthEventRecorder // optional audit sink
	Logger      *slog.Logger            // optional

	// SessionTTL caps session lifetime when the provider reports no token
	// expiry, or one further out than the cap. Zero means 24h.
	SessionTTL time.Duration
}

const defaultSessionTTL = 24 * time.Hour

// SessionService is the single source of truth for who is signed in, with
// what role, and what must happen before the app is usable. Every
// principal-establishing path (register, password login, federated callback)
// funnels through establish, which runs role resolution before the session
// is persisted or published, so consumers never observe a principal without
// its role.
type SessionService struct {
	creds     ports.CredentialProvider
	federated ports.FederatedProvider
	profiles  ports.ProfileAPI
	sessions  ports.SessionStore
	events    ports.AuthEventRecorder
	logger    *slog.Logger
	ttl       time.Duration

	mu      sync.Mutex
	subs    map[int]chan SessionEvent
	nextSub int
}

var errSessionExpired = errors.New("session expired")

// NewSessionService constructs a new SessionService.
func NewSessionService(opts SessionServiceOptions) (*SessionService, error) {
	if opts.Credentials == nil {
		return nil, errors.New("credential provider is required")
	}
	if opts.Profiles == nil {
		return nil, errors.New("profile API is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionService{
		creds:     opts.Credentials,
		federated: opts.Federated,
		profiles:  opts.Profiles,
		sessions:  opts.Sessions,
		events:    opts.Events,
		logger:    logger.With("component", "session_service"),
		ttl:       ttl,
		subs:      make(map[int]chan SessionEvent),
	}, nil
}

// SessionEventKind tags a session lifecycle event.
type SessionEventKind string

const (
	SessionEstablished SessionEventKind = "established"
	SessionRefreshed   SessionEventKind = "refreshed"
	SessionEnded       SessionEventKind = "ended"
)

// SessionEvent is published on every session transition. The Session field
// is a snapshot; for SessionEnded only ID and IdentityID are populated.
type SessionEvent struct {
	Kind    SessionEventKind
	Session domainauth.Session
}

// Subscribe registers a consumer of session lifecycle events. The returned
// cancel function must be called to release the subscription. Slow consumers
// drop events rather than block auth operations.
func (s *SessionService) Subscribe() (<-chan SessionEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan SessionEvent, 16)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *SessionService) publish(ev SessionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Register creates a new identity-provider account with a display profile
// and establishes a session for it.
func (s *SessionService) Register(ctx context.Context, in ports.RegisterInput) (*domainauth.Session, error) {
	if strings.TrimSpace(in.Email) == "" {
		return nil, apperrors.ValidationField("email", "email is required")
	}
	if in.Password == "" {
		return nil, apperrors.ValidationField("password", "password is required")
	}
	if strings.TrimSpace(in.DisplayName) == "" {
		return nil, apperrors.ValidationField("displayName", "display name is required")
	}

	identity, err := s.creds.Register(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("register account: %w", err)
	}
	return s.establish(ctx, identity, "register")
}

// Login authenticates an existing identity with email and password. The
// returned session is already settled: role resolution has run before it is
// published, so callers need no second step.
func (s *SessionService) Login(ctx context.Context, email, password string) (*domainauth.Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperrors.Unauthenticated("email and password are required")
	}

	identity, err := s.creds.Authenticate(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return s.establish(ctx, identity, "login")
}

// BeginLoginResult contains the result of beginning a federated login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginFederatedLogin initiates a third-party sign-in flow and returns the
// provider auth URL with state and nonce.
func (s *SessionService) BeginFederatedLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if s.federated == nil {
		return nil, apperrors.Internal("federated sign-in is not configured")
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.federated.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin federated flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteFederatedInput groups parameters for completing a federated flow.
type CompleteFederatedInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteFederatedLogin exchanges the authorization code for an identity
// and establishes a session. On a first-ever federated sign-in a matching
// backend user record is created best-effort: the provider account already
// exists and must not be rolled back, so a failed sync is recorded to the
// audit log and otherwise swallowed.
func (s *SessionService) CompleteFederatedLogin(ctx context.Context, in CompleteFederatedInput) (*domainauth.Session, error) {
	if s.federated == nil {
		return nil, apperrors.Internal("federated sign-in is not configured")
	}
	if in.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if in.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if in.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	identity, err := s.federated.Exchange(ctx, ports.ExchangeInput{Code: in.Code, State: in.State, Nonce: in.Nonce})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	if identity.NewFederatedUser {
		syncErr := s.profiles.EnsureUser(ctx, identity.Token, ports.ProfileInput{
			DisplayName: identity.DisplayName,
			PhotoURL:    identity.PhotoURL,
		})
		if syncErr != nil {
			s.logger.WarnContext(ctx, "first-time federated backend sync failed",
				"identity_id", identity.IdentityID, "error", syncErr)
			s.record(ctx, ports.AuthEvent{
				IdentityID: identity.IdentityID,
				Email:      identity.Email,
				Kind:       "federated_sync_failed",
				Detail:     syncErr.Error(),
			})
		}
	}

	return s.establish(ctx, identity, "federated_login")
}

// GetSession retrieves a session snapshot by ID, evicting it when expired.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if time.Now().After(sess.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}

	return &sess, nil
}

// RefreshSession forces a re-resolution of backend role/flags for the
// session's principal and replaces the stored snapshot wholesale. A missing
// session is a no-op (nil, nil): there is no principal to refresh.
// Overlapping refreshes are idempotent full replacements; last write wins.
func (s *SessionService) RefreshSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	current, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil
	}

	identity := domainauth.Identity{
		IdentityID:  current.IdentityID,
		Email:       current.Email,
		DisplayName: current.DisplayName,
		PhotoURL:    current.PhotoURL,
		Token:       current.Token,
		ExpiresAt:   current.ExpiresAt,
	}
	next := s.resolve(ctx, identity)
	next.ID = current.ID

	if saveErr := s.sessions.Save(ctx, next); saveErr != nil {
		return nil, fmt.Errorf("save refreshed session: %w", saveErr)
	}
	s.publish(SessionEvent{Kind: SessionRefreshed, Session: next})
	return &next, nil
}

// Logout removes the session. Signing out an absent session is not an error.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	sess, getErr := s.sessions.Get(ctx, sessionID)
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if getErr == nil {
		s.record(ctx, ports.AuthEvent{IdentityID: sess.IdentityID, Email: sess.Email, Kind: "logout"})
		s.publish(SessionEvent{Kind: SessionEnded, Session: domainauth.Session{ID: sess.ID, IdentityID: sess.IdentityID}})
	}
	return nil
}

// UpdateProfile updates the identity provider's profile and the backend user
// record, then re-resolves and republishes the session. A partial success
// (provider updated, backend failed) surfaces as an error; the provider-side
// change is not rolled back.
func (s *SessionService) UpdateProfile(ctx context.Context, sessionID string, in ports.ProfileInput) (*domainauth.Session, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnauthenticated, "no active session")
	}
	if strings.TrimSpace(in.DisplayName) == "" {
		return nil, apperrors.ValidationField("displayName", "display name is required")
	}

	if provErr := s.creds.UpdateProfile(ctx, sess.Token, in); provErr != nil {
		return nil, fmt.Errorf("update provider profile: %w", provErr)
	}
	if backErr := s.profiles.UpdateProfile(ctx, sess.Token, in); backErr != nil {
		return nil, fmt.Errorf("update backend profile: %w", backErr)
	}

	// Fold the new display fields into the stored principal before the
	// refresh re-reads role/flags.
	updated := *sess
	updated.DisplayName = in.DisplayName
	updated.PhotoURL = in.PhotoURL
	if saveErr := s.sessions.Save(ctx, updated); saveErr != nil {
		return nil, fmt.Errorf("save updated session: %w", saveErr)
	}
	return s.RefreshSession(ctx, sessionID)
}

// SendPasswordReset requests a password-reset message from the identity
// provider. Whether an unknown email is revealed is provider-dependent.
func (s *SessionService) SendPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return apperrors.ValidationField("email", "email is required")
	}
	if err := s.creds.SendPasswordReset(ctx, email); err != nil {
		return fmt.Errorf("send password reset: %w", err)
	}
	return nil
}

// SetPassword attaches a local password to the session's (federated)
// identity, acknowledges it to the backend, and forces a session refresh
// that clears the password-required gate.
func (s *SessionService) SetPassword(ctx context.Context, sessionID, newPassword string) (*domainauth.Session, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnauthenticated, "no active session")
	}
	if newPassword == "" {
		return nil, apperrors.ValidationField("password", "password is required")
	}

	if provErr := s.creds.UpdatePassword(ctx, sess.Token, newPassword); provErr != nil {
		return nil, fmt.Errorf("set provider password: %w", provErr)
	}
	if ackErr := s.profiles.AcknowledgePasswordSet(ctx, sess.Token); ackErr != nil {
		return nil, fmt.Errorf("acknowledge password set: %w", ackErr)
	}

	s.record(ctx, ports.AuthEvent{IdentityID: sess.IdentityID, Email: sess.Email, Kind: "password_set"})
	return s.RefreshSession(ctx, sessionID)
}

// establish runs role resolution for a fresh principal, persists the new
// session, and publishes it. This is the only place sessions are born.
func (s *SessionService) establish(ctx context.Context, identity domainauth.Identity, kind string) (*domainauth.Session, error) {
	sess := s.resolve(ctx, identity)
	sess.ID = uuid.New().String()

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.record(ctx, ports.AuthEvent{IdentityID: sess.IdentityID, Email: sess.Email, Kind: kind})
	s.publish(SessionEvent{Kind: SessionEstablished, Session: sess})
	return &sess, nil
}

// resolve merges the principal with backend role data. A fresh token is
// forced first so role resolution never trusts stale claims. Backend
// failures degrade gracefully: the principal stays signed in with the
// default role and cleared flags, never logged out by an unreachable
// backend.
func (s *SessionService) resolve(ctx context.Context, identity domainauth.Identity) domainauth.Session {
	token := identity.Token
	expiresAt := identity.ExpiresAt
	if newToken, newExpiry, err := s.creds.RefreshToken(ctx, token); err != nil {
		s.logger.WarnContext(ctx, "token refresh failed, continuing with current token",
			"identity_id", identity.IdentityID, "error", err)
	} else {
		token = newToken
		expiresAt = newExpiry
	}
	if maxExpiry := time.Now().Add(s.ttl); expiresAt.IsZero() || expiresAt.After(maxExpiry) {
		expiresAt = maxExpiry
	}

	sess := domainauth.Session{
		IdentityID:  identity.IdentityID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		PhotoURL:    identity.PhotoURL,
		Role:        domainauth.RoleUser,
		Token:       token,
		ExpiresAt:   expiresAt,
	}

	profile, err := s.profiles.CurrentUser(ctx, token)
	if err != nil {
		s.logger.WarnContext(ctx, "role resolution failed, using default role",
			"identity_id", identity.IdentityID, "error", err)
		return sess
	}

	sess.Role = mergeRole(profile.Role)
	sess.BackendID = profile.BackendID
	sess.PasswordRequired = profile.PasswordRequired
	sess.HasPassword = profile.HasPassword
	return sess
}

// mergeRole applies the role defaulting policy: absent role data falls back
// to user; a non-empty unrecognized value is preserved (normalized) so the
// route guards deny it instead of silently promoting or demoting.
func mergeRole(raw string) domainauth.Role {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return domainauth.RoleUser
	}
	if parsed := domainauth.ParseRole(trimmed); parsed != domainauth.RoleUnknown {
		return parsed
	}
	return domainauth.Role(trimmed)
}

func (s *SessionService) record(ctx context.Context, ev ports.AuthEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Record(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "audit record failed", "kind", ev.Kind, "error", err)
	}
}
