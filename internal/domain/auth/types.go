package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleUser      Role = "user"
	RoleLibrarian Role = "librarian"
	RoleAdmin     Role = "admin"

	// RoleUnknown is assigned to unrecognized role strings. It never matches
	// an allowed-role set, so an unexpected backend value denies rather than
	// bypasses authorization.
	RoleUnknown Role = ""
)

// ParseRole normalizes a raw role string into a Role. The comparison set is
// closed; anything outside it maps to RoleUnknown.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleUser:
		return RoleUser
	case RoleLibrarian:
		return RoleLibrarian
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUnknown
	}
}

// Valid reports whether the role is a member of the closed role set.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleLibrarian || r == RoleAdmin
}

// In reports whether the role is a member of the allowed set.
// An invalid role is never in any set.
func (r Role) In(allowed ...Role) bool {
	if !r.Valid() {
		return false
	}
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

// Identity represents the authenticated principal returned by the identity
// provider, before the backend role lookup. Adapters map provider-specific
// payloads into this shape.
type Identity struct {
	IdentityID  string // opaque stable identifier from the provider
	Email       string
	DisplayName string
	PhotoURL    string
	Token       string // bearer token for backend calls
	// NewFederatedUser marks a federated identity observed for the first
	// time (provider creation and last-sign-in timestamps coincide). The
	// heuristic is provider-specific and evaluated by the adapter.
	NewFederatedUser bool
	ExpiresAt        time.Time // absolute expiry from the provider token
}

// Profile is the backend's view of the signed-in user, as returned by the
// current-user endpoint. Absent fields default safely during merging.
type Profile struct {
	BackendID        string `json:"_id"`
	Role             string `json:"role"`
	PasswordRequired bool   `json:"passwordRequired"`
	HasPassword      bool   `json:"hasPassword"`
}

// Session is the merged view of principal + backend-resolved role/flags that
// we persist for an authenticated user. ID is an opaque session identifier.
// Sessions are immutable snapshots: every refresh replaces the record
// wholesale, never mutates it field by field.
type Session struct {
	ID          string `json:"id"`
	IdentityID  string `json:"identity_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
	Role        Role   `json:"role"`
	// BackendID correlates the session with the marketplace's own user
	// record. Empty when the backend was unreachable during resolution.
	BackendID string `json:"backend_id"`
	// PasswordRequired gates the whole application until a local password
	// is attached to a federated account.
	PasswordRequired bool      `json:"password_required"`
	HasPassword      bool      `json:"has_password"`
	Token            string    `json:"token"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// IsAdmin reports whether the session carries the admin role.
func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

// IsLibrarian reports whether the session carries the librarian role.
func (s Session) IsLibrarian() bool { return s.Role == RoleLibrarian }
