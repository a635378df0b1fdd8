package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// newTestSessionService creates a SessionService for testing.
// It uses a fixed, known secret so tests are deterministic.
func newTestSessionService(t *testing.T) *SessionService {
	t.Helper()
	s, err := NewSessionService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewSessionService: %v", err)
	}
	return s
}

func testSession() Session {
	return Session{
		UserID:    "user-123",
		GitHubID:  9876543,
		Username:  "octocat",
		AvatarURL: "https://avatars.githubusercontent.com/u/9876543",
		Email:     "octo@example.com",
	}
}

// =========================================================================
// CONSTRUCTION TESTS
// =========================================================================

func TestNewSessionService_ShortSecret(t *testing.T) {
	_, err := NewSessionService("short")
	if err == nil {
		t.Fatal("NewSessionService() should reject secrets shorter than 16 chars")
	}
}

func TestNewSessionService_ValidSecret(t *testing.T) {
	_, err := NewSessionService("this-is-16-chars")
	if err != nil {
		t.Fatalf("NewSessionService() unexpected error for valid secret: %v", err)
	}
}

// =========================================================================
// ROUND-TRIP TESTS
// =========================================================================

func TestCreateVerify_RoundTrip(t *testing.T) {
	s := newTestSessionService(t)

	token, err := s.Create(testSession())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if token == "" {
		t.Fatal("Create() returned empty token")
	}

	// JWT tokens have 3 dot-separated parts: header.payload.signature
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Errorf("token has %d parts, want 3", len(parts))
	}

	got := s.Verify(token)
	if got == nil {
		t.Fatal("Verify() returned nil for a freshly created token")
	}

	want := testSession()
	if got.UserID != want.UserID {
		t.Errorf("UserID = %q, want %q", got.UserID, want.UserID)
	}
	if got.GitHubID != want.GitHubID {
		t.Errorf("GitHubID = %d, want %d", got.GitHubID, want.GitHubID)
	}
	if got.Username != want.Username {
		t.Errorf("Username = %q, want %q", got.Username, want.Username)
	}
	if got.AvatarURL != want.AvatarURL {
		t.Errorf("AvatarURL = %q, want %q", got.AvatarURL, want.AvatarURL)
	}
	if got.Email != want.Email {
		t.Errorf("Email = %q, want %q", got.Email, want.Email)
	}

	// Expiry should be ~30 days out. Allow a minute of slack for slow CI.
	wantExpiry := time.Now().Add(SessionDuration).Unix()
	if diff := got.ExpiresAt - wantExpiry; diff < -60 || diff > 60 {
		t.Errorf("ExpiresAt = %d, want within a minute of %d", got.ExpiresAt, wantExpiry)
	}
}

func TestCreate_IgnoresCallerExpiry(t *testing.T) {
	s := newTestSessionService(t)

	// Even if the caller smuggles in a past expiry, Create rewrites it.
	session := testSession()
	session.ExpiresAt = time.Now().Add(-time.Hour).Unix()

	token, err := s.Create(session)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if s.Verify(token) == nil {
		t.Error("Verify() = nil; Create should have issued a fresh 30-day expiry")
	}
}

// =========================================================================
// FAILURE-PATH TESTS
// =========================================================================

// Tampering with any single byte of the token must fail verification.
// We flip one character in each of the three segments.
func TestVerify_TamperedToken(t *testing.T) {
	s := newTestSessionService(t)

	token, err := s.Create(testSession())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d parts, want 3", len(parts))
	}

	for i, name := range []string{"header", "payload", "signature"} {
		t.Run("tampered "+name, func(t *testing.T) {
			tampered := make([]string, 3)
			copy(tampered, parts)
			tampered[i] = flipChar(tampered[i])

			if s.Verify(strings.Join(tampered, ".")) != nil {
				t.Errorf("Verify() accepted a token with a tampered %s", name)
			}
		})
	}
}

// flipChar swaps the first character of seg for a different base64url char.
func flipChar(seg string) string {
	c := byte('A')
	if seg[0] == 'A' {
		c = 'B'
	}
	return string(c) + seg[1:]
}

func TestVerify_ExpiredToken(t *testing.T) {
	s := newTestSessionService(t)

	// Sign a token with a past expiry using the service's own secret — a
	// valid signature is exactly what makes this case interesting.
	c := sessionClaims{
		Username: "octocat",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-48 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			Issuer:    issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		t.Fatalf("signing expired token: %v", err)
	}

	if s.Verify(signed) != nil {
		t.Error("Verify() accepted an expired token with a valid signature")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	s := newTestSessionService(t)
	other, err := NewSessionService("a-completely-different-secret-key")
	if err != nil {
		t.Fatalf("NewSessionService: %v", err)
	}

	token, err := other.Create(testSession())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if s.Verify(token) != nil {
		t.Error("Verify() accepted a token signed with a different secret")
	}
}

func TestVerify_Garbage(t *testing.T) {
	s := newTestSessionService(t)

	for _, input := range []string{"", "not-a-token", "a.b.c", "....."} {
		if s.Verify(input) != nil {
			t.Errorf("Verify(%q) returned a session", input)
		}
	}
}

func TestVerify_MissingSubject(t *testing.T) {
	s := newTestSessionService(t)

	// Valid signature, valid expiry, but no user ID — still not a session.
	c := sessionClaims{
		Username: "octocat",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	if s.Verify(signed) != nil {
		t.Error("Verify() accepted a token without a subject")
	}
}

// =========================================================================
// REFRESH TESTS
// =========================================================================

func TestRefresh_ExtendsExpiry(t *testing.T) {
	s := newTestSessionService(t)

	token, err := s.Create(testSession())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	session := s.Verify(token)
	if session == nil {
		t.Fatal("Verify() returned nil")
	}

	// Backdate the expiry to simulate a session partway through its life.
	session.ExpiresAt = time.Now().Add(24 * time.Hour).Unix()

	refreshed, err := s.Refresh(session)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	got := s.Verify(refreshed)
	if got == nil {
		t.Fatal("Verify() returned nil for refreshed token")
	}
	if got.UserID != session.UserID || got.Username != session.Username {
		t.Error("Refresh() changed the session's identity fields")
	}
	if got.ExpiresAt <= session.ExpiresAt {
		t.Errorf("Refresh() expiry %d not extended beyond %d", got.ExpiresAt, session.ExpiresAt)
	}
}

func TestRefresh_NilSession(t *testing.T) {
	s := newTestSessionService(t)
	if _, err := s.Refresh(nil); err == nil {
		t.Fatal("Refresh(nil) should error")
	}
}
