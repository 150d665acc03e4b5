package httpx

import (
	"errors"
	"net/http"
)

// DashboardHandlers serves the role-gated landing endpoints. They are thin:
// the interesting behavior is the guard composition in routes.go and the
// one-shot denial notification consumed here.
type DashboardHandlers struct{}

// Dashboard is the default landing page for any authenticated user.
// GET /dashboard.
func (h *DashboardHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	if sess == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	resp := map[string]any{
		"session": toSessionPayload(sess),
	}
	if notice := consumeDenialFlash(w, r); notice != "" {
		resp["notice"] = notice
	}
	WriteJSON(w, http.StatusOK, resp)
}

// LibrarianConsole is reachable by librarians and admins.
// GET /librarian/console.
func (h *DashboardHandlers) LibrarianConsole(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	WriteJSON(w, http.StatusOK, map[string]any{
		"area":    "librarian",
		"session": toSessionPayload(sess),
	})
}

// AdminConsole is reachable by admins only.
// GET /admin/console.
func (h *DashboardHandlers) AdminConsole(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	WriteJSON(w, http.StatusOK, map[string]any{
		"area":    "admin",
		"session": toSessionPayload(sess),
	})
}

// consumeDenialFlash reads and clears the one-shot role-denial notification.
// Returns "" when no notification is pending.
func consumeDenialFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(denialFlashCookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     denialFlashCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	return c.Value
}
