// Package auth provides the stateless session mechanism and the GitHub OAuth
// flow that feeds it.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. User visits /auth/github/login → redirected to GitHub
// 2. GitHub calls back /auth/github/callback with a code
// 3. Server exchanges the code for GitHub user info, upserts the profile in the DB
// 4. Server mints a session token and stores it in an HttpOnly cookie
// 5. On subsequent API calls, middleware reads the cookie, verifies the token,
//    and puts the full session record in the request context
//
// WHY A SELF-CONTAINED TOKEN?
// The session token is a signed JWT — the server keeps no session store at
// all. Everything a request needs (user ID, GitHub identity, display fields,
// expiry) is inside the signed token. The HMAC signature ensures nobody can
// tamper with it without the secret key, and verification needs no DB lookup.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims (data) → {"sub":"userID","exp":1234567890,...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionDuration is how long a freshly minted session stays valid.
// Thirty days matches the cookie's max-age — the token and the cookie
// carrying it expire together.
const SessionDuration = 30 * 24 * time.Hour

const issuer = "sidequesthq"

// Session is the identity a verified token reconstructs per request.
// It is owned by the browser (cookie); the server never stores it.
type Session struct {
	UserID    string `json:"userId"`
	GitHubID  int64  `json:"githubId"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
	Email     string `json:"email"`
	ExpiresAt int64  `json:"expiresAt"` // unix seconds
}

// SessionService mints and verifies session tokens.
//
// It holds the HMAC secret key used to sign and verify. The same secret must
// be used for both operations — keep it safe, rotate it periodically in
// production.
type SessionService struct {
	secret []byte
}

// NewSessionService creates a SessionService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: SESSION_SECRET=$(openssl rand -hex 32)
func NewSessionService(secret string) (*SessionService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	return &SessionService{secret: []byte(secret)}, nil
}

// sessionClaims is the JWT payload. It embeds jwt.RegisteredClaims (which
// carries Subject, ExpiresAt, IssuedAt, Issuer) and adds the profile fields
// the frontend needs without a DB round-trip.
//
// The Subject claim holds the internal user ID — the standard JWT claim for
// identifying who the token belongs to.
type sessionClaims struct {
	GitHubID  int64  `json:"githubId"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Create signs a new session token for the given identity fields.
// The expiry is always now + SessionDuration; whatever ExpiresAt the input
// carries is ignored and rewritten.
//
// Signing algorithm: HS256 (HMAC-SHA256)
// - Symmetric: same key for signing and verifying
// - Fast and simple — right for a single-server deployment
func (s *SessionService) Create(session Session) (string, error) {
	now := time.Now()
	expiresAt := now.Add(SessionDuration)

	c := sessionClaims{
		GitHubID:  session.GitHubID,
		Username:  session.Username,
		AvatarURL: session.AvatarURL,
		Email:     session.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing session token: %w", err)
	}

	return signed, nil
}

// Verify parses and verifies a session token string.
//
// CONTRACT: callers always receive either a valid session or nil — never an
// error. A tampered signature, a malformed token, and an expired token all
// collapse into the same "no session" outcome. Every protected route relies
// on this to produce uniform 401 / redirect-to-login behaviour, so no
// cryptographic or parse failure may leak past this boundary.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (ExpiresAt is in the future)
//   - Issuer matches (prevents tokens minted by other apps sharing a secret)
//   - Algorithm is HS256 (prevents algorithm confusion attacks, where an
//     attacker submits a token signed with "none" or an asymmetric scheme)
func (s *SessionService) Verify(tokenStr string) *Session {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&sessionClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil
	}

	c, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || c.Subject == "" {
		return nil
	}

	return &Session{
		UserID:    c.Subject,
		GitHubID:  c.GitHubID,
		Username:  c.Username,
		AvatarURL: c.AvatarURL,
		Email:     c.Email,
		ExpiresAt: c.ExpiresAt.Unix(),
	}
}

// Refresh re-signs a fresh token from an already-verified session, extending
// the expiry by a full SessionDuration.
//
// It does NOT re-validate the input — the caller has already confirmed the
// session via Verify (middleware does this on every request), so re-checking
// here would be redundant work on a hot path.
func (s *SessionService) Refresh(session *Session) (string, error) {
	if session == nil {
		return "", errors.New("auth: cannot refresh a nil session")
	}
	return s.Create(*session)
}
