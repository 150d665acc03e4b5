package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/bookloop/bookloop-ui-api/internal/domain/auth"
	apperrors "github.com/bookloop/bookloop-ui-api/internal/errors"
	mockauth "github.com/bookloop/bookloop-ui-api/internal/mocks/auth"
	"github.com/bookloop/bookloop-ui-api/internal/ports"
)

// sessionFixture bundles a SessionService with its test doubles.
type sessionFixture struct {
	svc       *SessionService
	creds     *mockauth.MockCredentialProvider
	federated *mockauth.MockFederatedProvider
	profiles  *mockauth.MockProfileAPI
	store     *mockauth.MemorySessionStore
	events    *mockauth.RecordingEventSink
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		creds:     mockauth.NewMockCredentialProvider(),
		federated: mockauth.NewMockFederatedProvider(),
		profiles:  mockauth.NewMockProfileAPI(),
		store:     mockauth.NewMemorySessionStore(),
		events:    &mockauth.RecordingEventSink{},
	}
	svc, err := NewSessionService(SessionServiceOptions{
		Credentials: f.creds,
		Federated:   f.federated,
		Profiles:    f.profiles,
		Sessions:    f.store,
		Events:      f.events,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestNewSessionService_RequiredDependencies(t *testing.T) {
	tests := []struct {
		name    string
		opts    SessionServiceOptions
		wantErr string
	}{
		{
			name: "missing credential provider",
			opts: SessionServiceOptions{
				Profiles: mockauth.NewMockProfileAPI(),
				Sessions: mockauth.NewMemorySessionStore(),
			},
			wantErr: "credential provider is required",
		},
		{
			name: "missing profile API",
			opts: SessionServiceOptions{
				Credentials: mockauth.NewMockCredentialProvider(),
				Sessions:    mockauth.NewMemorySessionStore(),
			},
			wantErr: "profile API is required",
		},
		{
			name: "missing session store",
			opts: SessionServiceOptions{
				Credentials: mockauth.NewMockCredentialProvider(),
				Profiles:    mockauth.NewMockProfileAPI(),
			},
			wantErr: "session store is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewSessionService(tt.opts)
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSessionService_Login_ResolvesRoleBeforePublishing(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.profiles.Profile = domainauth.Profile{
		BackendID:   "backend-42",
		Role:        "librarian",
		HasPassword: true,
	}

	events, cancel := f.svc.Subscribe()
	defer cancel()

	sess, err := f.svc.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)
	require.NotNil(t, sess)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "alice@example.com", sess.Email)
	assert.Equal(t, domainauth.RoleLibrarian, sess.Role)
	assert.Equal(t, "backend-42", sess.BackendID)
	assert.True(t, sess.HasPassword)

	// The published snapshot already carries the resolved role.
	select {
	case ev := <-events:
		assert.Equal(t, SessionEstablished, ev.Kind)
		assert.Equal(t, domainauth.RoleLibrarian, ev.Session.Role)
	default:
		t.Fatal("expected a session event to be published")
	}

	assert.Equal(t, []string{"login"}, f.events.Kinds())
}

func TestSessionService_Login_ValidatesInput(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "", "secret")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthenticated(err))

	_, err = f.svc.Login(ctx, "alice@example.com", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthenticated(err))
}

func TestSessionService_Login_BackendDownStillSignsIn(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.profiles.CurrentUserFunc = func(_ context.Context, _ string) (domainauth.Profile, error) {
		return domainauth.Profile{}, errors.New("connection refused")
	}

	sess, err := f.svc.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)
	require.NotNil(t, sess)

	// Graceful degradation: signed in with the default role, gates cleared.
	assert.Equal(t, domainauth.RoleUser, sess.Role)
	assert.False(t, sess.PasswordRequired)
	assert.False(t, sess.HasPassword)
	assert.Empty(t, sess.BackendID)
	assert.Equal(t, 1, f.store.Len())
}

func TestSessionService_Login_RoleDefaultingPolicy(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected domainauth.Role
		valid    bool
	}{
		{name: "empty defaults to user", raw: "", expected: domainauth.RoleUser, valid: true},
		{name: "recognized role kept", raw: "admin", expected: domainauth.RoleAdmin, valid: true},
		{name: "case insensitive", raw: " Librarian ", expected: domainauth.RoleLibrarian, valid: true},
		{name: "unrecognized preserved not promoted", raw: "superuser", expected: domainauth.Role("superuser"), valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture(t)
			f.profiles.Profile = domainauth.Profile{Role: tt.raw}

			sess, err := f.svc.Login(context.Background(), "alice@example.com", "secret")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sess.Role)
			assert.Equal(t, tt.valid, sess.Role.Valid())
		})
	}
}

func TestSessionService_Login_RefreshesTokenBeforeRoleResolution(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.creds.RefreshTokenFunc = func(_ context.Context, token string) (string, time.Time, error) {
		return token + "-fresh", time.Now().Add(2 * time.Hour), nil
	}
	var tokenSeen string
	f.profiles.CurrentUserFunc = func(_ context.Context, token string) (domainauth.Profile, error) {
		tokenSeen = token
		return domainauth.Profile{Role: "user"}, nil
	}

	sess, err := f.svc.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, "mock-token-fresh", tokenSeen)
	assert.Equal(t, "mock-token-fresh", sess.Token)
}

func TestSessionService_Login_TokenRefreshFailureKeepsCurrentToken(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.creds.RefreshTokenFunc = func(_ context.Context, _ string) (string, time.Time, error) {
		return "", time.Time{}, errors.New("provider unavailable")
	}

	sess, err := f.svc.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "mock-token", sess.Token)
}

func TestSessionService_Login_SessionTTLCapsExpiry(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	svc, err := NewSessionService(SessionServiceOptions{
		Credentials: f.creds,
		Profiles:    f.profiles,
		Sessions:    f.store,
		SessionTTL:  30 * time.Minute,
	})
	require.NoError(t, err)

	t.Run("missing provider expiry falls back to ttl", func(t *testing.T) {
		f.creds.RefreshTokenFunc = func(_ context.Context, token string) (string, time.Time, error) {
			return token, time.Time{}, nil
		}
		sess, loginErr := svc.Login(ctx, "alice@example.com", "secret")
		require.NoError(t, loginErr)
		assert.WithinDuration(t, time.Now().Add(30*time.Minute), sess.ExpiresAt, 5*time.Second)
	})

	t.Run("excessive provider expiry is capped", func(t *testing.T) {
		f.creds.RefreshTokenFunc = func(_ context.Context, token string) (string, time.Time, error) {
			return token, time.Now().Add(72 * time.Hour), nil
		}
		sess, loginErr := svc.Login(ctx, "alice@example.com", "secret")
		require.NoError(t, loginErr)
		assert.WithinDuration(t, time.Now().Add(30*time.Minute), sess.ExpiresAt, 5*time.Second)
	})

	t.Run("shorter provider expiry is kept", func(t *testing.T) {
		f.creds.RefreshTokenFunc = func(_ context.Context, token string) (string, time.Time, error) {
			return token, time.Now().Add(10 * time.Minute), nil
		}
		sess, loginErr := svc.Login(ctx, "alice@example.com", "secret")
		require.NoError(t, loginErr)
		assert.WithinDuration(t, time.Now().Add(10*time.Minute), sess.ExpiresAt, 5*time.Second)
	})
}

func TestSessionService_Register_ValidatesInput(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    ports.RegisterInput
		field string
	}{
		{name: "missing email", in: ports.RegisterInput{Password: "pw", DisplayName: "A"}, field: "email"},
		{name: "missing password", in: ports.RegisterInput{Email: "a@b.c", DisplayName: "A"}, field: "password"},
		{name: "missing display name", in: ports.RegisterInput{Email: "a@b.c", Password: "pw"}, field: "displayName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, tt.in)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}

func TestSessionService_Register_EstablishesSession(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Register(ctx, ports.RegisterInput{
		Email:       "new@example.com",
		Password:    "secret",
		DisplayName: "New Reader",
	})
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", sess.Email)
	assert.Equal(t, "New Reader", sess.DisplayName)
	assert.Equal(t, []string{"register"}, f.events.Kinds())
	assert.Equal(t, 1, f.store.Len())
}

func TestSessionService_CompleteFederatedLogin_SyncsNewUser(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.federated.DefaultIdentity.NewFederatedUser = true

	sess, err := f.svc.CompleteFederatedLogin(ctx, CompleteFederatedInput{
		Code: "code", State: "state-1", Nonce: "nonce-1",
	})
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, 1, f.profiles.EnsureCalls)
}

func TestSessionService_CompleteFederatedLogin_SyncFailureSwallowed(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.federated.DefaultIdentity.NewFederatedUser = true
	f.profiles.EnsureUserFunc = func(_ context.Context, _ string, _ ports.ProfileInput) error {
		return errors.New("backend write failed")
	}

	sess, err := f.svc.CompleteFederatedLogin(ctx, CompleteFederatedInput{
		Code: "code", State: "state-1", Nonce: "nonce-1",
	})
	require.NoError(t, err)
	require.NotNil(t, sess)

	// The failed sync is audited but the sign-in proceeds.
	assert.Equal(t, []string{"federated_sync_failed", "federated_login"}, f.events.Kinds())
}

func TestSessionService_CompleteFederatedLogin_ExistingUserSkipsSync(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	sess, err := f.svc.CompleteFederatedLogin(ctx, CompleteFederatedInput{
		Code: "code", State: "state-1", Nonce: "nonce-1",
	})
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, 0, f.profiles.EnsureCalls)
}

func TestSessionService_CompleteFederatedLogin_ValidatesInput(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	_, err := f.svc.CompleteFederatedLogin(ctx, CompleteFederatedInput{State: "s", Nonce: "n"})
	assert.Error(t, err)

	_, err = f.svc.CompleteFederatedLogin(ctx, CompleteFederatedInput{Code: "c", Nonce: "n"})
	assert.Error(t, err)

	_, err = f.svc.CompleteFederatedLogin(ctx, CompleteFederatedInput{Code: "c", State: "s"})
	assert.Error(t, err)
}

func TestSessionService_NoStaleRoleAcrossAccountSwitch(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.profiles.Profile = domainauth.Profile{BackendID: "admin-1", Role: "admin"}
	first, err := f.svc.Login(ctx, "admin@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, domainauth.RoleAdmin, first.Role)

	require.NoError(t, f.svc.Logout(ctx, first.ID))

	f.profiles.Profile = domainauth.Profile{BackendID: "reader-1", Role: "user"}
	second, err := f.svc.Login(ctx, "reader@example.com", "secret")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, domainauth.RoleUser, second.Role)
	assert.Equal(t, "reader-1", second.BackendID)
}

func TestSessionService_GetSession_EvictsExpired(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Save(ctx, domainauth.Session{
		ID:        "expired-1",
		Email:     "old@example.com",
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	_, err := f.svc.GetSession(ctx, "expired-1")
	require.Error(t, err)
	assert.Equal(t, 0, f.store.Len())
}

func TestSessionService_RefreshSession_PicksUpRoleChange(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, domainauth.RoleUser, sess.Role)

	// Server-side promotion lands on the next refresh without re-login.
	f.profiles.Profile = domainauth.Profile{BackendID: "backend-user-1", Role: "librarian"}

	refreshed, err := f.svc.RefreshSession(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, refreshed)

	assert.Equal(t, sess.ID, refreshed.ID)
	assert.Equal(t, domainauth.RoleLibrarian, refreshed.Role)

	stored, err := f.store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleLibrarian, stored.Role)
}

func TestSessionService_RefreshSession_MissingSessionIsNoOp(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	refreshed, err := f.svc.RefreshSession(ctx, "gone")
	assert.NoError(t, err)
	assert.Nil(t, refreshed)

	refreshed, err = f.svc.RefreshSession(ctx, "")
	assert.NoError(t, err)
	assert.Nil(t, refreshed)
}

func TestSessionService_RefreshSession_PublishesSnapshot(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)

	events, cancel := f.svc.Subscribe()
	defer cancel()

	_, err = f.svc.RefreshSession(ctx, sess.ID)
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, SessionRefreshed, ev.Kind)
		assert.Equal(t, sess.ID, ev.Session.ID)
	default:
		t.Fatal("expected a refreshed event")
	}
}

func TestSessionService_Logout_RemovesSessionAndAudits(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, sess.ID))
	assert.Equal(t, 0, f.store.Len())
	assert.Equal(t, []string{"login", "logout"}, f.events.Kinds())
}

func TestSessionService_Logout_AbsentSessionNotAnError(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	assert.NoError(t, f.svc.Logout(ctx, "never-existed"))
	assert.NoError(t, f.svc.Logout(ctx, ""))
	assert.Empty(t, f.events.Kinds())
}

func TestSessionService_UpdateProfile_UpdatesBothSides(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	var providerCalled, backendCalled bool
	f.creds.UpdateProfileFunc = func(_ context.Context, _ string, in ports.ProfileInput) error {
		providerCalled = true
		assert.Equal(t, "Alice Updated", in.DisplayName)
		return nil
	}
	f.profiles.UpdateProfileFunc = func(_ context.Context, _ string, in ports.ProfileInput) error {
		backendCalled = true
		assert.Equal(t, "Alice Updated", in.DisplayName)
		return nil
	}

	sess, err := f.svc.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)

	updated, err := f.svc.UpdateProfile(ctx, sess.ID, ports.ProfileInput{
		DisplayName: "Alice Updated",
		PhotoURL:    "https://example.com/alice.png",
	})
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.True(t, providerCalled)
	assert.True(t, backendCalled)
	assert.Equal(t, "Alice Updated", updated.DisplayName)
	assert.Equal(t, "https://example.com/alice.png", updated.PhotoURL)
}

func TestSessionService_UpdateProfile_BackendFailureSurfaces(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.profiles.UpdateProfileFunc = func(_ context.Context, _ string, _ ports.ProfileInput) error {
		return errors.New("backend rejected update")
	}

	sess, err := f.svc.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)

	_, err = f.svc.UpdateProfile(ctx, sess.ID, ports.ProfileInput{DisplayName: "Alice"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update backend profile")
}

func TestSessionService_UpdateProfile_NoSession(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateProfile(ctx, "gone", ports.ProfileInput{DisplayName: "A"})
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthenticated(err))
}

func TestSessionService_SetPassword_ClearsGate(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	// Federated principal whose backend record demands a local password.
	f.profiles.Profile = domainauth.Profile{
		BackendID:        "backend-1",
		Role:             "user",
		PasswordRequired: true,
		HasPassword:      false,
	}

	sess, err := f.svc.Login(ctx, "federated@example.com", "initial")
	require.NoError(t, err)
	require.True(t, sess.PasswordRequired)

	// Once the password is set, the backend reports the gate cleared.
	f.profiles.Profile = domainauth.Profile{
		BackendID:        "backend-1",
		Role:             "user",
		PasswordRequired: false,
		HasPassword:      true,
	}

	updated, err := f.svc.SetPassword(ctx, sess.ID, "new-password")
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.False(t, updated.PasswordRequired)
	assert.True(t, updated.HasPassword)
	assert.Equal(t, 1, f.profiles.AckCalls)
	assert.Equal(t, []string{"login", "password_set"}, f.events.Kinds())
}

func TestSessionService_SetPassword_ProviderFailureSkipsAck(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.creds.UpdatePasswordFunc = func(_ context.Context, _, _ string) error {
		return apperrors.Provider("WEAK_PASSWORD", "password too weak")
	}

	sess, err := f.svc.Login(ctx, "federated@example.com", "initial")
	require.NoError(t, err)

	_, err = f.svc.SetPassword(ctx, sess.ID, "123")
	require.Error(t, err)
	assert.True(t, apperrors.IsProvider(err))
	assert.Equal(t, 0, f.profiles.AckCalls)
}

func TestSessionService_SetPassword_ValidatesInput(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)

	_, err = f.svc.SetPassword(ctx, sess.ID, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestSessionService_SendPasswordReset(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendPasswordReset(ctx, "alice@example.com"))
	assert.Equal(t, []string{"alice@example.com"}, f.creds.ResetEmails)

	err := f.svc.SendPasswordReset(ctx, "  ")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestSessionService_BeginFederatedLogin(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	result, err := f.svc.BeginFederatedLogin(ctx, "http://localhost:8080/auth/federated/callback")
	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", result.AuthURL)
	assert.NotEmpty(t, result.State)
	assert.NotEmpty(t, result.Nonce)

	_, err = f.svc.BeginFederatedLogin(ctx, "")
	assert.Error(t, err)
}

func TestSessionService_FederatedNotConfigured(t *testing.T) {
	svc, err := NewSessionService(SessionServiceOptions{
		Credentials: mockauth.NewMockCredentialProvider(),
		Profiles:    mockauth.NewMockProfileAPI(),
		Sessions:    mockauth.NewMemorySessionStore(),
	})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = svc.BeginFederatedLogin(ctx, "http://localhost/cb")
	assert.Error(t, err)

	_, err = svc.CompleteFederatedLogin(ctx, CompleteFederatedInput{Code: "c", State: "s", Nonce: "n"})
	assert.Error(t, err)
}

func TestSessionService_Subscribe_CancelStopsDelivery(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	events, cancel := f.svc.Subscribe()
	cancel()

	_, err := f.svc.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)

	// Channel is closed after cancel; no event should arrive.
	ev, ok := <-events
	assert.False(t, ok, "expected closed channel, got event %v", ev)
}
