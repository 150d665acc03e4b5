package httpx

// Cookie names used by the auth handlers and route guards.
const (
	sessionCookieName     = "session_id"
	oauthStateCookieName  = "oauth_state"
	oauthNonceCookieName  = "oauth_nonce"
	postLoginCookieName   = "post_login_redirect"
	denialFlashCookieName = "access_denied_flash"
)

// Well-known navigation targets for the route guards.
const (
	loginPath     = "/auth/login"
	dashboardPath = "/dashboard"
)
