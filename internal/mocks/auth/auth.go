package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	domainauth "github.com/bookloop/bookloop-ui-api/internal/domain/auth"
	"github.com/bookloop/bookloop-ui-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.CredentialProvider = (*MockCredentialProvider)(nil)
	_ ports.FederatedProvider  = (*MockFederatedProvider)(nil)
	_ ports.SessionStore       = (*MemorySessionStore)(nil)
	_ ports.ProfileAPI         = (*MockProfileAPI)(nil)
	_ ports.AuthEventRecorder  = (*RecordingEventSink)(nil)
)

// ErrNotFound is returned by mocks when an entity is not present.
type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var ErrNotFound error = notFoundError{}

// MockCredentialProvider simulates the identity provider's email/password
// surface. Unset Func fields fall back to deterministic defaults.
type MockCredentialProvider struct {
	RegisterFunc          func(ctx context.Context, in ports.RegisterInput) (domainauth.Identity, error)
	AuthenticateFunc      func(ctx context.Context, email, password string) (domainauth.Identity, error)
	UpdateProfileFunc     func(ctx context.Context, token string, in ports.ProfileInput) error
	UpdatePasswordFunc    func(ctx context.Context, token, newPassword string) error
	SendPasswordResetFunc func(ctx context.Context, email string) error
	RefreshTokenFunc      func(ctx context.Context, token string) (string, time.Time, error)

	// DefaultIdentity is returned (with a fresh expiry) when RegisterFunc or
	// AuthenticateFunc are unset.
	DefaultIdentity domainauth.Identity

	// Recorded calls for assertions.
	ResetEmails     []string
	PasswordUpdates []string
}

// NewMockCredentialProvider creates a MockCredentialProvider with a sensible
// default identity.
func NewMockCredentialProvider() *MockCredentialProvider {
	return &MockCredentialProvider{
		DefaultIdentity: domainauth.Identity{
			IdentityID:  "mock-identity-1",
			Email:       "mock.user@example.com",
			DisplayName: "Mock User",
			Token:       "mock-token",
		},
	}
}

func (m *MockCredentialProvider) defaultIdentity() domainauth.Identity {
	id := m.DefaultIdentity
	if id.IdentityID == "" {
		id.IdentityID = "mock-identity-1"
	}
	if id.Token == "" {
		id.Token = "mock-token"
	}
	id.ExpiresAt = time.Now().Add(time.Hour)
	return id
}

func (m *MockCredentialProvider) Register(ctx context.Context, in ports.RegisterInput) (domainauth.Identity, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, in)
	}
	id := m.defaultIdentity()
	id.Email = in.Email
	id.DisplayName = in.DisplayName
	id.PhotoURL = in.PhotoURL
	return id, nil
}

func (m *MockCredentialProvider) Authenticate(ctx context.Context, email, password string) (domainauth.Identity, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, email, password)
	}
	id := m.defaultIdentity()
	id.Email = email
	return id, nil
}

func (m *MockCredentialProvider) UpdateProfile(ctx context.Context, token string, in ports.ProfileInput) error {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, token, in)
	}
	return nil
}

func (m *MockCredentialProvider) UpdatePassword(ctx context.Context, token, newPassword string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, token, newPassword)
	}
	m.PasswordUpdates = append(m.PasswordUpdates, token)
	return nil
}

func (m *MockCredentialProvider) SendPasswordReset(ctx context.Context, email string) error {
	if m.SendPasswordResetFunc != nil {
		return m.SendPasswordResetFunc(ctx, email)
	}
	m.ResetEmails = append(m.ResetEmails, email)
	return nil
}

func (m *MockCredentialProvider) RefreshToken(ctx context.Context, token string) (string, time.Time, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, token)
	}
	return token, time.Now().Add(time.Hour), nil
}

// MockFederatedProvider simulates a federated sign-in flow with deterministic
// state/nonce handling.
type MockFederatedProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	AuthURL         string
	DefaultIdentity domainauth.Identity

	callCount int
}

// NewMockFederatedProvider creates a MockFederatedProvider with sensible defaults.
func NewMockFederatedProvider() *MockFederatedProvider {
	return &MockFederatedProvider{
		AuthURL: "https://mock-idp/auth",
		DefaultIdentity: domainauth.Identity{
			IdentityID:  "mock-federated-1",
			Email:       "federated.user@example.com",
			DisplayName: "Federated User",
			Token:       "mock-federated-token",
		},
	}
}

func (m *MockFederatedProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.callCount++
	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	state := fmt.Sprintf("state-%d", m.callCount)
	nonce := fmt.Sprintf("nonce-%d", m.callCount)
	return authURL, state, nonce, nil
}

func (m *MockFederatedProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	id := m.DefaultIdentity
	if id.IdentityID == "" {
		id.IdentityID = "mock-federated-1"
	}
	id.ExpiresAt = time.Now().Add(time.Hour)
	return id, nil
}

// MemorySessionStore is an in-memory session store for unit tests. It is safe
// for concurrent use so refresher tests can race it against logouts.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domainauth.Session),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if id == "" || !ok {
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	if id == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemorySessionStore) List(_ context.Context) ([]domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domainauth.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Len reports the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// MockProfileAPI simulates the marketplace backend's user surface.
type MockProfileAPI struct {
	CurrentUserFunc            func(ctx context.Context, token string) (domainauth.Profile, error)
	UpdateProfileFunc          func(ctx context.Context, token string, in ports.ProfileInput) error
	EnsureUserFunc             func(ctx context.Context, token string, in ports.ProfileInput) error
	AcknowledgePasswordSetFunc func(ctx context.Context, token string) error

	// Profile is the default CurrentUser response.
	Profile domainauth.Profile

	// Recorded calls for assertions.
	EnsureCalls int
	AckCalls    int
}

// NewMockProfileAPI creates a MockProfileAPI with a plain user profile.
func NewMockProfileAPI() *MockProfileAPI {
	return &MockProfileAPI{
		Profile: domainauth.Profile{
			BackendID: "backend-user-1",
			Role:      "user",
		},
	}
}

func (m *MockProfileAPI) CurrentUser(ctx context.Context, token string) (domainauth.Profile, error) {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx, token)
	}
	return m.Profile, nil
}

func (m *MockProfileAPI) UpdateProfile(ctx context.Context, token string, in ports.ProfileInput) error {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, token, in)
	}
	return nil
}

func (m *MockProfileAPI) EnsureUser(ctx context.Context, token string, in ports.ProfileInput) error {
	m.EnsureCalls++
	if m.EnsureUserFunc != nil {
		return m.EnsureUserFunc(ctx, token, in)
	}
	return nil
}

func (m *MockProfileAPI) AcknowledgePasswordSet(ctx context.Context, token string) error {
	m.AckCalls++
	if m.AcknowledgePasswordSetFunc != nil {
		return m.AcknowledgePasswordSetFunc(ctx, token)
	}
	return nil
}

// RecordingEventSink collects audit events in memory.
type RecordingEventSink struct {
	mu     sync.Mutex
	events []ports.AuthEvent

	// RecordFunc overrides default capture when set.
	RecordFunc func(ctx context.Context, ev ports.AuthEvent) error
}

func (r *RecordingEventSink) Record(ctx context.Context, ev ports.AuthEvent) error {
	if r.RecordFunc != nil {
		return r.RecordFunc(ctx, ev)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a snapshot of recorded events.
func (r *RecordingEventSink) Events() []ports.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.AuthEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the kinds of recorded events in order.
func (r *RecordingEventSink) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}
