package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"
	"github.com/sidequesthq/sidequesthq/internal/auth"
	"github.com/sidequesthq/sidequesthq/internal/service"
)

// AuthHandler manages the GitHub OAuth login flow and the session cookie.
//
// HANDLER RESPONSIBILITIES:
//   - HandleGitHubLogin    → redirect the browser to GitHub's authorization page
//   - HandleGitHubCallback → receive the code, exchange it, set the session cookie
//   - HandleLogout         → clear the session cookie
//   - HandleSession        → return the current session's claims (or 401)
//   - HandleRefresh        → re-mint the session token with a fresh 30-day expiry
type AuthHandler struct {
	github        *auth.GitHubProvider
	sessions      *auth.SessionService
	authService   *service.AuthService
	logger        *slog.Logger
	secureCookies bool
}

// NewAuthHandler creates an AuthHandler. secureCookies should be true
// whenever the app is served over HTTPS.
func NewAuthHandler(
	github *auth.GitHubProvider,
	sessions *auth.SessionService,
	authService *service.AuthService,
	logger *slog.Logger,
	secureCookies bool,
) *AuthHandler {
	return &AuthHandler{
		github:        github,
		sessions:      sessions,
		authService:   authService,
		logger:        logger,
		secureCookies: secureCookies,
	}
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// We generate a random state string and store it in a short-lived cookie.
// When GitHub calls back, HandleGitHubCallback verifies the state matches,
// proving the flow started here and not on an attacker's page.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes — long enough to approve, short enough to limit risk
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub profile + access token
//  3. Upsert the user and mint a session token (AuthService)
//  4. Set the session cookie
//  5. Redirect into the app
//
// Failures redirect to /login?error=auth_failed rather than rendering an
// error body — the browser is mid-navigation, not making an API call.
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		http.Redirect(w, r, "/login?error=auth_failed", http.StatusSeeOther)
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Redirect(w, r, "/login?error=auth_failed", http.StatusSeeOther)
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	// GitHub reports "user clicked cancel" as an error query parameter.
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, "/login?error=auth_failed", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, "/login?error=auth_failed", http.StatusSeeOther)
		return
	}

	exchange, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		http.Redirect(w, r, "/login?error=auth_failed", http.StatusSeeOther)
		return
	}

	result, err := h.authService.LoginWithGitHub(r.Context(), exchange)
	if err != nil {
		h.logger.Error("auth callback: login failed", slog.String("error", err.Error()))
		http.Redirect(w, r, "/login?error=auth_failed", http.StatusSeeOther)
		return
	}

	auth.SetSessionCookie(w, result.Token, h.secureCookies)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /auth/logout
//
// WHY POST AND NOT GET?
// Logout is a state-changing operation; GET would be vulnerable to CSRF and
// browser pre-fetching. Since sessions are stateless JWTs, "logout" is just
// deleting the cookie — the token stays technically valid until it expires,
// but the browser can no longer send it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleSession reports the current session's claims.
//
// HTTP: GET /api/session
// Auth: OptionalSession parses the cookie when present; an anonymous caller
// gets a 401. The frontend treats that as "logged out" and redirects.
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "no active session",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]*auth.Session{"session": session})
}

// HandleRefresh re-mints the session token with a fresh 30-day expiry.
//
// HTTP: POST /api/session/refresh
// Auth: Required
//
// A user who visits at least once a month never gets logged out.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		// Unreachable on a RequireSession-protected route, but be safe.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "authentication required",
		})
		return
	}

	token, err := h.sessions.Refresh(session)
	if err != nil {
		h.logger.Error("session refresh failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	auth.SetSessionCookie(w, token, h.secureCookies)

	// Re-verify the token we just minted so the response carries the NEW
	// expiry, not the one from the request's cookie.
	writeJSON(w, http.StatusOK, map[string]*auth.Session{"session": h.sessions.Verify(token)})
}
