package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "session", s), ANY package that knows the string
// "session" can read or shadow your value. A package-private type prevents
// collisions: only THIS package can create a key of type contextKey.
type contextKey string

const sessionKey contextKey = "session"

// RequireSession is a middleware that enforces authentication on protected
// routes.
//
// It reads the session cookie, verifies the token, and stores the full
// session record in the request context. If the cookie is missing or the
// token fails verification, it returns 401 Unauthorized and stops the chain.
// Missing, malformed, tampered, and expired all look identical to the client.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware is a function that takes an http.Handler and returns a new
// http.Handler wrapping it. Chi applies middlewares in a chain:
// req → M1 → M2 → Handler → M2 → M1 → resp
//
// Note the session travels through the context as an explicit value — no
// package-level "current user" state anywhere. Handlers that need the
// identity ask the context for it.
func RequireSession(sessions *SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := sessions.SessionFromRequest(r)
			if session == nil {
				http.Error(w, `{"error":"unauthorized","message":"valid session required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalSession extracts the session if a valid cookie is present, but
// never blocks the request.
//
// Use this on public routes like GET /api/stats where anonymous visitors are
// welcome but a logged-in owner might see extra data. Handlers check via
// SessionFromContext — (nil, false) means anonymous.
func OptionalSession(sessions *SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session := sessions.SessionFromRequest(r); session != nil {
				ctx := context.WithValue(r.Context(), sessionKey, session)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext retrieves the verified session from the request context.
//
// Returns (nil, false) if the request is anonymous.
// On a RequireSession-protected route it always returns (session, true).
//
// Usage in handlers:
//
//	session, ok := auth.SessionFromContext(r.Context())
//	if !ok {
//	    // anonymous request
//	}
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok && s != nil
}
