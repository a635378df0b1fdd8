package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sidequesthq/sidequesthq/internal/auth"
	"github.com/sidequesthq/sidequesthq/internal/service"
)

// ProfileHandler serves the caller's own profile, profile settings, and the
// public stats page.
type ProfileHandler struct {
	authService *service.AuthService
	projects    *service.ProjectService
	logger      *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(authService *service.AuthService, projects *service.ProjectService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		authService: authService,
		projects:    projects,
		logger:      logger,
	}
}

// HandleMe returns the authenticated user's full profile.
//
// HTTP: GET /api/me
// Auth: Required
//
// The session cookie already carries username and avatar; this endpoint is
// for the rest (bio, links, visibility) — the settings page needs them.
func (h *ProfileHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	user, err := h.authService.GetUserByID(r.Context(), session.UserID)
	if err != nil {
		h.logger.Error("profile lookup failed",
			slog.String("userID", session.UserID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// settingsRequest is the JSON body for a profile-settings update. Pointer
// fields: absent means "leave unchanged".
type settingsRequest struct {
	Username        *string `json:"username"`
	Bio             *string `json:"bio"`
	WebsiteURL      *string `json:"websiteUrl"`
	TwitterHandle   *string `json:"twitterHandle"`
	IsProfilePublic *bool   `json:"isProfilePublic"`
}

// HandleUpdateProfile applies a partial update to the caller's settings.
//
// HTTP: PUT /api/profile
// Auth: Required
func (h *ProfileHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid settings JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	user, err := h.authService.UpdateSettings(r.Context(), session.UserID, service.SettingsInput{
		Username:        req.Username,
		Bio:             req.Bio,
		WebsiteURL:      req.WebsiteURL,
		TwitterHandle:   req.TwitterHandle,
		IsProfilePublic: req.IsProfilePublic,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleStats serves a public profile page's data: profile, public
// projects, status counts, top technologies.
//
// HTTP: GET /api/stats?username=octocat
// Auth: none — this is the shareable graveyard page.
//
// Private profiles and unknown usernames are both 404s; the endpoint never
// confirms that an opted-out username exists.
func (h *ProfileHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")

	result, err := h.projects.Stats(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
