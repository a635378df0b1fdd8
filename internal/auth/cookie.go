package auth

import "net/http"

// SessionCookieName is the cookie holding the signed session token.
const SessionCookieName = "sidequesthq_session"

// SetSessionCookie writes the session token into the outgoing response.
//
// COOKIE ATTRIBUTES:
//   - HttpOnly: JavaScript cannot read it — XSS protection
//   - SameSite=Lax: sent on top-level navigations but not cross-site POSTs
//   - Secure: HTTPS-only, enabled in production (secure=true)
//   - MaxAge: 30 days, matching the token's own expiry
//
// The cookie is the ONLY place the token lives; the server keeps nothing.
func SetSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionDuration.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	})
}

// ClearSessionCookie tells the browser to delete the session cookie
// immediately. MaxAge: -1 is the standard "delete now" signal.
//
// Since sessions are stateless, this IS logout — the token itself stays
// technically valid until its expiry, but without the cookie the browser
// can't send it.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionFromRequest reads the session cookie and verifies it.
// Returns nil for a missing cookie, exactly as for an invalid one — the
// caller can't (and shouldn't) distinguish the two.
func (s *SessionService) SessionFromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		// http.ErrNoCookie — not an error, just an anonymous request
		return nil
	}
	return s.Verify(cookie.Value)
}
