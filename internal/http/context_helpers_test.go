package httpx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/bookloop/bookloop-ui-api/internal/domain/auth"
)

func TestGetUserSessionFromContext(t *testing.T) {
	// No session
	if s, ok := GetUserSessionFromContext(context.Background()); assert.False(t, ok) {
		assert.Nil(t, s)
	}

	// With session
	sess := &domainauth.Session{ID: "abc", Role: domainauth.RoleUser}
	ctx := SetSessionInContext(context.Background(), sess)
	s, ok := GetUserSessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, sess, s)
}

func TestSetSessionInContext_NilSession(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, SetSessionInContext(ctx, nil))
}

func TestGetSessionFromContext(t *testing.T) {
	assert.Nil(t, GetSessionFromContext(context.Background()))

	sess := &domainauth.Session{ID: "abc", Role: domainauth.RoleAdmin}
	ctx := SetSessionInContext(context.Background(), sess)
	assert.Equal(t, sess, GetSessionFromContext(ctx))
}
