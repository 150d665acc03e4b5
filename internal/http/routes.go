package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/bookloop/bookloop-ui-api/internal/domain/auth"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Sessions     SessionServiceAPI
	CookieDomain string
	CallbackURL  string
	Logger       *slog.Logger // Logger for HTTP errors (optional)
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:          services.Sessions,
		CookieDomain: services.CookieDomain,
		CallbackURL:  services.CallbackURL,
		Logger:       services.Logger,
	}
	registerAuthRoutes(mux, authHandlers)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	registerDashboardRoutes(mux, services.Sessions)

	return BrowserDetection()(mux)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("POST /auth/register", h.Register)
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("GET /auth/federated/login", h.FederatedLogin)
	mux.HandleFunc("GET /auth/federated/callback", h.FederatedCallback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.Handle("GET /auth/status", OptionalAuth(h.Svc)(http.HandlerFunc(h.Status)))
	mux.HandleFunc("POST /auth/refresh", h.Refresh)
	mux.HandleFunc("PUT /auth/profile", h.UpdateProfile)
	mux.HandleFunc("POST /auth/password-reset", h.PasswordReset)
	mux.HandleFunc("POST /auth/password", h.SetPassword)
}

// registerDashboardRoutes wires the role-gated landing endpoints: dashboard
// for any signed-in user, librarian console for librarians and admins, admin
// console for admins only.
func registerDashboardRoutes(mux *http.ServeMux, sessions SessionResolver) {
	h := &DashboardHandlers{}
	authed := RequireAuth(sessions)
	librarian := RequireRole(sessions, domainauth.RoleLibrarian, domainauth.RoleAdmin)
	admin := RequireRole(sessions, domainauth.RoleAdmin)

	mux.Handle("GET /dashboard", authed(http.HandlerFunc(h.Dashboard)))
	mux.Handle("GET /librarian/console", librarian(http.HandlerFunc(h.LibrarianConsole)))
	mux.Handle("GET /admin/console", admin(http.HandlerFunc(h.AdminConsole)))
}
