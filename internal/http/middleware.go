package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/bookloop/bookloop-ui-api/internal/domain/auth"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionResolver is the slice of the session service the guards need.
type SessionResolver interface {
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
}

// RequireAuth returns a middleware that requires an authenticated session.
// Unauthenticated browser requests are redirected to the login page carrying
// the originally requested location; API requests get a 401 JSON response.
func RequireAuth(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := getSessionFromRequest(r, resolver)
			switch domainauth.DecideAuthentication(session, true) {
			case domainauth.DecisionRedirectToLogin:
				denyUnauthenticated(w, r)
				return
			case domainauth.DecisionAllow:
				ctx := SetSessionInContext(r.Context(), session)
				next.ServeHTTP(w, r.WithContext(ctx))
			case domainauth.DecisionPending, domainauth.DecisionRedirectToDashboard:
				// A settled check never yields these outcomes.
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		})
	}
}

// RequireRole returns a middleware that requires one of the allowed roles.
// Unauthenticated requests behave as in RequireAuth. An authenticated session
// with a role outside the allowed set is sent back to the dashboard with a
// single denial notification (browser) or a 403 JSON response (API).
func RequireRole(resolver SessionResolver, allowed ...domainauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := getSessionFromRequest(r, resolver)
			switch domainauth.DecideRole(session, true, allowed...) {
			case domainauth.DecisionRedirectToLogin:
				denyUnauthenticated(w, r)
				return
			case domainauth.DecisionRedirectToDashboard:
				denyRole(w, r)
				return
			case domainauth.DecisionAllow:
				ctx := SetSessionInContext(r.Context(), session)
				next.ServeHTTP(w, r.WithContext(ctx))
			case domainauth.DecisionPending:
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		})
	}
}

// OptionalAuth returns a middleware that adds the session to the request
// context when present and lets the request through either way.
func OptionalAuth(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session := getSessionFromRequest(r, resolver); session != nil {
				r = r.WithContext(SetSessionInContext(r.Context(), session))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// getSessionFromRequest retrieves and validates a session from the request.
func getSessionFromRequest(r *http.Request, resolver SessionResolver) *domainauth.Session {
	sessionCookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}

	session, err := resolver.GetSession(r.Context(), sessionCookie.Value)
	if err != nil {
		return nil
	}

	return session
}

func denyUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if IsBrowserRequest(r) {
		redirectToLogin(w, r)
		return
	}
	WriteError(w, ErrorParams{
		Code:    http.StatusUnauthorized,
		ErrCode: "authentication_required",
		Err:     errors.New("authentication required"),
	})
}

// denyRole handles the role-denial outcome: a dashboard redirect with one
// flash notification for browsers, a 403 payload for API clients.
func denyRole(w http.ResponseWriter, r *http.Request) {
	if IsBrowserRequest(r) {
		setDenialFlash(w, r)
		http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
		return
	}
	WriteError(w, ErrorParams{
		Code:    http.StatusForbidden,
		ErrCode: "access_denied",
		Err:     errors.New("insufficient permissions"),
	})
}

// setDenialFlash sets the one-shot denial notification cookie read and
// cleared by the dashboard. Setting it again before it was consumed still
// yields a single notification.
func setDenialFlash(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     denialFlashCookieName,
		Value:    "access_denied",
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60,
	})
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection returns a middleware that detects browser requests vs API requests.
// It sets a context value that can be used by downstream handlers to determine
// whether to redirect or return JSON responses.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			isBrowser := isBrowserRequest(r)
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowser)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest returns true if the current request is from a browser.
func IsBrowserRequest(r *http.Request) bool {
	if val := r.Context().Value(browserRequestKey{}); val != nil {
		if isBrowser, ok := val.(bool); ok {
			return isBrowser
		}
	}
	// Fallback to direct detection if middleware wasn't used
	return isBrowserRequest(r)
}

// isBrowserRequest determines if a request is from a browser based on:
// 1. Path prefix - API routes start with /api/
// 2. Accept header - browsers typically accept text/html.
func isBrowserRequest(r *http.Request) bool {
	// API routes are explicitly not browser requests
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}

	// Check Accept header for HTML preference
	accept := r.Header.Get("Accept")
	if accept == "" {
		// No Accept header, assume browser for non-API routes
		return true
	}

	return strings.Contains(accept, "text/html")
}

// redirectToLogin redirects browser requests to the login page with the current URL as redirect_uri.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	redirectPath := safeRedirectPath(r.URL.RequestURI())
	loginURL := loginPath + "?redirect_uri=" + url.QueryEscape(redirectPath)
	http.Redirect(w, r, loginURL, http.StatusSeeOther)
}
