package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	domainauth "github.com/bookloop/bookloop-ui-api/internal/domain/auth"
	"github.com/bookloop/bookloop-ui-api/internal/ports"
	"github.com/bookloop/bookloop-ui-api/internal/service"
)

// SessionServiceAPI defines the session service operations the handlers use.
type SessionServiceAPI interface {
	Register(ctx context.Context, in ports.RegisterInput) (*domainauth.Session, error)
	Login(ctx context.Context, email, password string) (*domainauth.Session, error)
	BeginFederatedLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteFederatedLogin(ctx context.Context, in service.CompleteFederatedInput) (*domainauth.Session, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	RefreshSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
	UpdateProfile(ctx context.Context, sessionID string, in ports.ProfileInput) (*domainauth.Session, error)
	SendPasswordReset(ctx context.Context, email string) error
	SetPassword(ctx context.Context, sessionID, newPassword string) (*domainauth.Session, error)
}

// AuthHandlers provides HTTP handlers for session lifecycle operations.
type AuthHandlers struct {
	Svc          SessionServiceAPI
	CookieDomain string
	CallbackURL  string // absolute URL the federated provider redirects back to
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// sessionPayload is the session snapshot returned to clients. The bearer
// token never leaves the server.
type sessionPayload struct {
	ID               string          `json:"id"`
	Email            string          `json:"email"`
	DisplayName      string          `json:"display_name"`
	PhotoURL         string          `json:"photo_url,omitempty"`
	Role             domainauth.Role `json:"role"`
	PasswordRequired bool            `json:"password_required"`
	HasPassword      bool            `json:"has_password"`
	ExpiresAt        time.Time       `json:"expires_at"`
}

func toSessionPayload(s *domainauth.Session) sessionPayload {
	return sessionPayload{
		ID:               s.ID,
		Email:            s.Email,
		DisplayName:      s.DisplayName,
		PhotoURL:         s.PhotoURL,
		Role:             s.Role,
		PasswordRequired: s.PasswordRequired,
		HasPassword:      s.HasPassword,
		ExpiresAt:        s.ExpiresAt,
	}
}

// Register handles account creation with email and password.
// POST /auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
		PhotoURL    string `json:"photo_url"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	sess, err := h.Svc.Register(r.Context(), ports.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}

	h.setSessionCookie(w, r, *sess)
	WriteJSON(w, http.StatusCreated, toSessionPayload(sess))
}

// Login handles email/password sign-in.
// POST /auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	sess, err := h.Svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	h.setSessionCookie(w, r, *sess)
	WriteJSON(w, http.StatusOK, toSessionPayload(sess))
}

// FederatedLogin initiates the third-party sign-in flow.
// GET /auth/federated/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) FederatedLogin(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	result, err := h.Svc.BeginFederatedLogin(r.Context(), h.CallbackURL)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     err,
		})
		return
	}

	// Store state, nonce, and the original redirect URI in secure cookies
	h.setOAuthCookies(w, r, oauthCookieParams{State: result.State, Nonce: result.Nonce, RedirectURI: redirectURI})

	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// FederatedCallback completes the third-party sign-in flow.
// GET /auth/federated/callback?code=<code>&state=<state>.
func (h *AuthHandlers) FederatedCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	// Verify state and read nonce
	stateCookie, err := r.Cookie(oauthStateCookieName)
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie(oauthNonceCookieName)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	sess, err := h.Svc.CompleteFederatedLogin(r.Context(), service.CompleteFederatedInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     err,
		})
		return
	}

	// Set session cookie and clear temporary OAuth cookies
	h.setSessionCookie(w, r, *sess)
	h.clearCookie(w, r, oauthStateCookieName)
	h.clearCookie(w, r, oauthNonceCookieName)

	// Federated accounts without a local password land on the set-password
	// gate regardless of where they were headed.
	redirectURI := h.getPostLoginRedirect(w, r)
	if sess.PasswordRequired {
		redirectURI = "/auth/set-password?redirect_uri=" + url.QueryEscape(redirectURI)
	}
	http.Redirect(w, r, redirectURI, http.StatusFound)
}

// Logout ends the current session.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionCookie, err := r.Cookie(sessionCookieName); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), sessionCookie.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}

	h.clearCookie(w, r, sessionCookieName)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// Status returns the current authentication status. The route runs behind
// OptionalAuth, so a valid session arrives on the request context.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	if sess := GetSessionFromContext(r.Context()); sess != nil {
		WriteJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"session":       toSessionPayload(sess),
		})
		return
	}

	if _, err := r.Cookie(sessionCookieName); err == nil {
		// Cookie without a live session: clear it
		h.clearCookie(w, r, sessionCookieName)
	}
	WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
}

// Refresh forces an immediate role re-resolution for the current session.
// POST /auth/refresh.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	sessionCookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	sess, err := h.Svc.RefreshSession(r.Context(), sessionCookie.Value)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if sess == nil {
		// The session vanished between cookie issuance and refresh.
		h.clearCookie(w, r, sessionCookieName)
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "session_expired",
			Err:     errors.New("session no longer exists"),
		})
		return
	}

	WriteJSON(w, http.StatusOK, toSessionPayload(sess))
}

// UpdateProfile changes the display name and photo of the signed-in user.
// PUT /auth/profile.
func (h *AuthHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sessionID := h.requireSessionID(w, r)
	if sessionID == "" {
		return
	}

	var req struct {
		DisplayName string `json:"display_name"`
		PhotoURL    string `json:"photo_url"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	sess, err := h.Svc.UpdateProfile(r.Context(), sessionID, ports.ProfileInput{
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, toSessionPayload(sess))
}

// PasswordReset requests a password-reset email.
// POST /auth/password-reset.
func (h *AuthHandlers) PasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := h.Svc.SendPasswordReset(r.Context(), req.Email); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "reset_sent"})
}

// SetPassword attaches a local password to the signed-in (federated) account
// and clears the password-required gate.
// POST /auth/password.
func (h *AuthHandlers) SetPassword(w http.ResponseWriter, r *http.Request) {
	sessionID := h.requireSessionID(w, r)
	if sessionID == "" {
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	sess, err := h.Svc.SetPassword(r.Context(), sessionID, req.Password)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, toSessionPayload(sess))
}

// requireSessionID extracts the session cookie or writes a 401 and returns "".
func (h *AuthHandlers) requireSessionID(w http.ResponseWriter, r *http.Request) string {
	sessionCookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return ""
	}
	return sessionCookie.Value
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting cookies
// to maximize compatibility across browsers during deletion.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// oauthCookieParams groups values needed to set OAuth cookies.
type oauthCookieParams struct {
	State       string
	Nonce       string
	RedirectURI string
}

// setOAuthCookies stores OAuth state, nonce, and the post-login redirect in secure cookies.
func (h *AuthHandlers) setOAuthCookies(w http.ResponseWriter, r *http.Request, p oauthCookieParams) {
	isSecure := isSecureRequest(r)
	cd := h.CookieDomain

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    p.State,
		Path:     "/",
		Domain:   cd,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	http.SetCookie(w, &http.Cookie{
		Name:     oauthNonceCookieName,
		Value:    p.Nonce,
		Path:     "/",
		Domain:   cd,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	http.SetCookie(w, &http.Cookie{
		Name:     postLoginCookieName,
		Value:    p.RedirectURI,
		Path:     "/",
		Domain:   cd,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})
}

// setSessionCookie writes the session cookie based on the session's expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    s.ID,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
}

// getPostLoginRedirect returns the post-login redirect URL and clears the cookie.
func (h *AuthHandlers) getPostLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	redirectURI := "/"
	if redirectCookie, err := r.Cookie(postLoginCookieName); err == nil {
		redirectURI = safeRedirectPath(redirectCookie.Value)
		h.clearCookie(w, r, postLoginCookieName)
	}
	return redirectURI
}
