package handler_test

// Shared harness for the handler tests: a real service stack over an
// in-memory SQLite database, with real session tokens flowing through the
// auth middleware. Only the network edges (GitHub) are absent.

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/sidequesthq/sidequesthq/internal/auth"
	"github.com/sidequesthq/sidequesthq/internal/model"
	"github.com/sidequesthq/sidequesthq/internal/repository/sqlite"
	"github.com/sidequesthq/sidequesthq/internal/service"
)

const testSecret = "test-secret-at-least-16-chars"

type testEnv struct {
	db       *sqlite.DB
	sessions *auth.SessionService
	auth     *service.AuthService
	projects *service.ProjectService
	importer *service.ImportService

	nextGitHubID int64 // unique github_id per seeded user
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sessions, err := auth.NewSessionService(testSecret)
	if err != nil {
		t.Fatalf("session service: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	users := db.Users()
	projects := db.Projects()

	return &testEnv{
		db:       db,
		sessions: sessions,
		auth:     service.NewAuthService(users, sessions, logger),
		projects: service.NewProjectService(projects, users, logger),
		importer: service.NewImportService(projects, users, logger),
	}
}

// seedUser inserts a user and returns it with ID filled in.
func (e *testEnv) seedUser(t *testing.T, username string) *model.UserProfile {
	t.Helper()
	e.nextGitHubID++
	user := &model.UserProfile{
		GitHubID:  1000 + e.nextGitHubID,
		Username:  username,
		Email:     username + "@example.com",
		AvatarURL: "https://avatars.example/" + username,
	}
	if err := e.db.Users().Upsert(context.Background(), user); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return user
}

// sessionCookie mints a valid session token for the user and wraps it in
// the cookie the middleware looks for.
func (e *testEnv) sessionCookie(t *testing.T, user *model.UserProfile) *http.Cookie {
	t.Helper()
	token, err := e.sessions.Create(auth.Session{
		UserID:    user.ID,
		GitHubID:  user.GitHubID,
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
		Email:     user.Email,
	})
	if err != nil {
		t.Fatalf("minting session: %v", err)
	}
	return &http.Cookie{Name: auth.SessionCookieName, Value: token}
}

// protected wraps a handler func in the same RequireSession middleware the
// router uses, so tests exercise the real cookie → context path.
func (e *testEnv) protected(h http.HandlerFunc) http.Handler {
	return auth.RequireSession(e.sessions)(h)
}

// do runs a request through a handler and returns the recorder.
func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
