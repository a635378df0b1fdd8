package handler_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/sidequesthq/sidequesthq/internal/handler"
	"github.com/sidequesthq/sidequesthq/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestProjectHandler_CRUD(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	t.Run("create and fetch", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.seedUser(t, "ada")
		cookie := env.sessionCookie(t, user)
		h := handler.NewProjectHandler(env.projects, logger)

		body := `{"name":"My Cool App!","description":"a thing","techStack":["Go","SQLite"],"progressPercentage":30}`
		req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewBufferString(body))
		req.AddCookie(cookie)
		rr := do(env.protected(h.HandleCreate), req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var created model.Project
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "my-cool-app", created.Slug)
		assert.Equal(t, model.StatusActive, created.Status)
		assert.Equal(t, user.ID, created.UserID)

		req = httptest.NewRequest(http.MethodGet, "/api/projects/"+created.ID, nil)
		req.SetPathValue("id", created.ID)
		req.AddCookie(cookie)
		rr = do(env.protected(h.HandleGet), req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("create rejects invalid JSON", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.seedUser(t, "ada")
		h := handler.NewProjectHandler(env.projects, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewBufferString(`{"name":`))
		req.AddCookie(env.sessionCookie(t, user))
		rr := do(env.protected(h.HandleCreate), req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("create rejects empty name with field detail", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.seedUser(t, "ada")
		h := handler.NewProjectHandler(env.projects, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewBufferString(`{"name":"  "}`))
		req.AddCookie(env.sessionCookie(t, user))
		rr := do(env.protected(h.HandleCreate), req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var errRes handler.ErrorResponse
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&errRes))
		assert.Equal(t, "validation_error", errRes.Error)
		assert.Equal(t, "name", errRes.Field)
	})

	t.Run("requires a session", func(t *testing.T) {
		env := newTestEnv(t)
		h := handler.NewProjectHandler(env.projects, logger)

		req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
		rr := do(env.protected(h.HandleList), req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("list filters by status", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.seedUser(t, "ada")
		cookie := env.sessionCookie(t, user)
		h := handler.NewProjectHandler(env.projects, logger)

		for _, body := range []string{
			`{"name":"one"}`,
			`{"name":"two","status":"paused"}`,
		} {
			req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewBufferString(body))
			req.AddCookie(cookie)
			rr := do(env.protected(h.HandleCreate), req)
			assert.Equal(t, http.StatusCreated, rr.Code)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/projects?status=paused", nil)
		req.AddCookie(cookie)
		rr := do(env.protected(h.HandleList), req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var listed []model.Project
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&listed))
		assert.Len(t, listed, 1)
		assert.Equal(t, "two", listed[0].Name)
	})

	t.Run("list rejects unknown status", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.seedUser(t, "ada")
		h := handler.NewProjectHandler(env.projects, logger)

		req := httptest.NewRequest(http.MethodGet, "/api/projects?status=zombie", nil)
		req.AddCookie(env.sessionCookie(t, user))
		rr := do(env.protected(h.HandleList), req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("update stamps shipped date", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.seedUser(t, "ada")
		cookie := env.sessionCookie(t, user)
		h := handler.NewProjectHandler(env.projects, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewBufferString(`{"name":"ship it"}`))
		req.AddCookie(cookie)
		rr := do(env.protected(h.HandleCreate), req)
		var created model.Project
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&created))

		req = httptest.NewRequest(http.MethodPut, "/api/projects/"+created.ID, bytes.NewBufferString(`{"status":"shipped"}`))
		req.SetPathValue("id", created.ID)
		req.AddCookie(cookie)
		rr = do(env.protected(h.HandleUpdate), req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var updated model.Project
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&updated))
		assert.Equal(t, model.StatusShipped, updated.Status)
		assert.NotNil(t, updated.ShippedDate)
	})

	t.Run("stranger's update reads as not found", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.seedUser(t, "ada")
		stranger := env.seedUser(t, "mallory")
		h := handler.NewProjectHandler(env.projects, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewBufferString(`{"name":"mine"}`))
		req.AddCookie(env.sessionCookie(t, owner))
		rr := do(env.protected(h.HandleCreate), req)
		var created model.Project
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&created))

		req = httptest.NewRequest(http.MethodPut, "/api/projects/"+created.ID, bytes.NewBufferString(`{"name":"stolen"}`))
		req.SetPathValue("id", created.ID)
		req.AddCookie(env.sessionCookie(t, stranger))
		rr = do(env.protected(h.HandleUpdate), req)

		// 404, not 403 — a non-owner learns nothing about existence.
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("stranger's read of a private project is forbidden", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.seedUser(t, "ada")
		stranger := env.seedUser(t, "mallory")
		h := handler.NewProjectHandler(env.projects, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewBufferString(`{"name":"secret"}`))
		req.AddCookie(env.sessionCookie(t, owner))
		rr := do(env.protected(h.HandleCreate), req)
		var created model.Project
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&created))

		req = httptest.NewRequest(http.MethodGet, "/api/projects/"+created.ID, nil)
		req.SetPathValue("id", created.ID)
		req.AddCookie(env.sessionCookie(t, stranger))
		rr = do(env.protected(h.HandleGet), req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("delete", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.seedUser(t, "ada")
		cookie := env.sessionCookie(t, user)
		h := handler.NewProjectHandler(env.projects, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewBufferString(`{"name":"doomed"}`))
		req.AddCookie(cookie)
		rr := do(env.protected(h.HandleCreate), req)
		var created model.Project
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&created))

		req = httptest.NewRequest(http.MethodDelete, "/api/projects/"+created.ID, nil)
		req.SetPathValue("id", created.ID)
		req.AddCookie(cookie)
		rr = do(env.protected(h.HandleDelete), req)
		assert.Equal(t, http.StatusNoContent, rr.Code)

		req = httptest.NewRequest(http.MethodGet, "/api/projects/"+created.ID, nil)
		req.SetPathValue("id", created.ID)
		req.AddCookie(cookie)
		rr = do(env.protected(h.HandleGet), req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
