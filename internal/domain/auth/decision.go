package auth

// Decision is the outcome of a route-authorization check. Denial is a
// routine navigation result, not an error, so it is modeled as a tagged
// value rather than a sentinel error.
type Decision int

const (
	// DecisionPending means session resolution has not settled yet. A
	// pending check must render a waiting state, never a redirect: deciding
	// during the resolution window bounces users to login on every refresh.
	DecisionPending Decision = iota
	// DecisionAllow renders the protected content.
	DecisionAllow
	// DecisionRedirectToLogin sends the user to sign-in, carrying the
	// originally requested location so login can return them afterward.
	DecisionRedirectToLogin
	// DecisionRedirectToDashboard is the role-denial outcome: a safe default
	// landing page plus a user-visible denial notification, instead of a
	// hard error page.
	DecisionRedirectToDashboard
)

func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionAllow:
		return "allow"
	case DecisionRedirectToLogin:
		return "redirect-to-login"
	case DecisionRedirectToDashboard:
		return "redirect-to-dashboard"
	default:
		return "unknown"
	}
}

// DecideAuthentication is the authentication guard. While resolution is not
// settled it returns Pending. Once settled: nil session redirects to login,
// anything else is allowed.
func DecideAuthentication(sess *Session, settled bool) Decision {
	if !settled {
		return DecisionPending
	}
	if sess == nil {
		return DecisionRedirectToLogin
	}
	return DecisionAllow
}

// DecideRole composes the role guard on top of the authentication guard.
// The role set is only consulted once authentication allows. Membership is
// checked against the closed role set; an unrecognized role denies.
func DecideRole(sess *Session, settled bool, allowed ...Role) Decision {
	if d := DecideAuthentication(sess, settled); d != DecisionAllow {
		return d
	}
	if sess.Role.In(allowed...) {
		return DecisionAllow
	}
	return DecisionRedirectToDashboard
}
