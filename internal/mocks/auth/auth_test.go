package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/bookloop/bookloop-ui-api/internal/domain/auth"
	"github.com/bookloop/bookloop-ui-api/internal/ports"
)

func TestMockFederatedProvider_Begin_Defaults(t *testing.T) {
	provider := NewMockFederatedProvider()
	ctx := context.Background()

	input := ports.BeginInput{RedirectURL: "http://localhost:8080/auth/federated/callback"}
	authURL, state, nonce, err := provider.Begin(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", authURL)
	assert.Equal(t, "state-1", state)
	assert.Equal(t, "nonce-1", nonce)

	// Second call should increment counters
	authURL2, state2, nonce2, err2 := provider.Begin(ctx, input)
	require.NoError(t, err2)
	assert.Equal(t, "https://mock-idp/auth", authURL2)
	assert.Equal(t, "state-2", state2)
	assert.Equal(t, "nonce-2", nonce2)
}

func TestMockFederatedProvider_Begin_CustomFunc(t *testing.T) {
	provider := &MockFederatedProvider{
		BeginFunc: func(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
			return "custom-url", "custom-state", "custom-nonce", nil
		},
	}
	ctx := context.Background()

	input := ports.BeginInput{RedirectURL: "http://localhost:8080/auth/federated/callback"}
	authURL, state, nonce, err := provider.Begin(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "custom-url", authURL)
	assert.Equal(t, "custom-state", state)
	assert.Equal(t, "custom-nonce", nonce)
}

func TestMockFederatedProvider_Exchange_Defaults(t *testing.T) {
	provider := NewMockFederatedProvider()
	ctx := context.Background()

	input := ports.ExchangeInput{
		Code:  "auth-code",
		State: "state-1",
		Nonce: "nonce-1",
	}
	identity, err := provider.Exchange(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "mock-federated-1", identity.IdentityID)
	assert.Equal(t, "federated.user@example.com", identity.Email)
	assert.Equal(t, "Federated User", identity.DisplayName)
	assert.True(t, identity.ExpiresAt.After(time.Now()))
}

func TestMockFederatedProvider_Exchange_CustomIdentity(t *testing.T) {
	provider := &MockFederatedProvider{
		DefaultIdentity: domainauth.Identity{
			IdentityID:       "custom-identity",
			Email:            "custom@example.com",
			DisplayName:      "Custom Person",
			NewFederatedUser: true,
		},
	}
	ctx := context.Background()

	identity, err := provider.Exchange(ctx, ports.ExchangeInput{Code: "c", State: "s", Nonce: "n"})

	require.NoError(t, err)
	assert.Equal(t, "custom-identity", identity.IdentityID)
	assert.Equal(t, "custom@example.com", identity.Email)
	assert.True(t, identity.NewFederatedUser)
	assert.True(t, identity.ExpiresAt.After(time.Now()))
}

func TestMockCredentialProvider_Authenticate_Defaults(t *testing.T) {
	provider := NewMockCredentialProvider()
	ctx := context.Background()

	identity, err := provider.Authenticate(ctx, "alice@example.com", "secret")

	require.NoError(t, err)
	assert.Equal(t, "mock-identity-1", identity.IdentityID)
	assert.Equal(t, "alice@example.com", identity.Email)
	assert.True(t, identity.ExpiresAt.After(time.Now()))
}

func TestMockCredentialProvider_Register_CopiesInput(t *testing.T) {
	provider := NewMockCredentialProvider()
	ctx := context.Background()

	identity, err := provider.Register(ctx, ports.RegisterInput{
		Email:       "bob@example.com",
		Password:    "secret",
		DisplayName: "Bob",
		PhotoURL:    "https://example.com/bob.png",
	})

	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", identity.Email)
	assert.Equal(t, "Bob", identity.DisplayName)
	assert.Equal(t, "https://example.com/bob.png", identity.PhotoURL)
}

func TestMockCredentialProvider_RecordsCalls(t *testing.T) {
	provider := NewMockCredentialProvider()
	ctx := context.Background()

	require.NoError(t, provider.SendPasswordReset(ctx, "alice@example.com"))
	require.NoError(t, provider.UpdatePassword(ctx, "tok-1", "new-password"))

	assert.Equal(t, []string{"alice@example.com"}, provider.ResetEmails)
	assert.Equal(t, []string{"tok-1"}, provider.PasswordUpdates)
}

func TestMemorySessionStore_SaveAndGet(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	session := domainauth.Session{
		ID:         "test-session-1",
		IdentityID: "identity-123",
		Email:      "user@example.com",
		Role:       domainauth.RoleUser,
		ExpiresAt:  time.Now().Add(30 * time.Minute),
	}

	err := store.Save(ctx, session)
	require.NoError(t, err)

	retrieved, err := store.Get(ctx, "test-session-1")
	require.NoError(t, err)
	assert.Equal(t, session.ID, retrieved.ID)
	assert.Equal(t, session.IdentityID, retrieved.IdentityID)
	assert.Equal(t, session.Email, retrieved.Email)
	assert.Equal(t, session.Role, retrieved.Role)
	assert.WithinDuration(t, session.ExpiresAt, retrieved.ExpiresAt, time.Second)
}

func TestMemorySessionStore_GetNonExistent(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "non-existent")
	assert.Equal(t, ErrNotFound, err)
}

func TestMemorySessionStore_GetEmptyID(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "")
	assert.Equal(t, ErrNotFound, err)
}

func TestMemorySessionStore_SaveEmptyID(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	session := domainauth.Session{
		ID:         "", // Empty ID should cause error
		IdentityID: "identity-123",
		Email:      "user@example.com",
		Role:       domainauth.RoleUser,
		ExpiresAt:  time.Now().Add(30 * time.Minute),
	}

	err := store.Save(ctx, session)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session ID cannot be empty")
}

func TestMemorySessionStore_Delete(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	session := domainauth.Session{
		ID:         "test-session-1",
		IdentityID: "identity-123",
		Email:      "user@example.com",
		Role:       domainauth.RoleUser,
		ExpiresAt:  time.Now().Add(30 * time.Minute),
	}

	err := store.Save(ctx, session)
	require.NoError(t, err)

	err = store.Delete(ctx, "test-session-1")
	require.NoError(t, err)

	_, err = store.Get(ctx, "test-session-1")
	assert.Equal(t, ErrNotFound, err)
}

func TestMemorySessionStore_DeleteEmptyID(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	// Delete with empty ID should not error
	err := store.Delete(ctx, "")
	assert.NoError(t, err)
}

func TestMemorySessionStore_List(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domainauth.Session{ID: "b", IdentityID: "id-2"}))
	require.NoError(t, store.Save(ctx, domainauth.Session{ID: "a", IdentityID: "id-1"}))

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "a", sessions[0].ID)
	assert.Equal(t, "b", sessions[1].ID)
}

func TestRecordingEventSink(t *testing.T) {
	sink := &RecordingEventSink{}
	ctx := context.Background()

	require.NoError(t, sink.Record(ctx, ports.AuthEvent{IdentityID: "id-1", Kind: "login"}))
	require.NoError(t, sink.Record(ctx, ports.AuthEvent{IdentityID: "id-1", Kind: "logout"}))

	assert.Equal(t, []string{"login", "logout"}, sink.Kinds())
	events := sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "id-1", events[0].IdentityID)
}
