package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sidequesthq/sidequesthq/internal/auth"
	"github.com/sidequesthq/sidequesthq/internal/model"
	"github.com/sidequesthq/sidequesthq/internal/service"
)

// ProjectHandler manages CRUD operations for projects.
//
// Every route here sits behind RequireSession, so the session is always in
// the request context. The handler's job is narrow: decode the request,
// call the service with the session's user ID, encode the result. All the
// rules — validation, ownership, date stamping — live in the service.
type ProjectHandler struct {
	projects *service.ProjectService
	logger   *slog.Logger
}

// NewProjectHandler creates a ProjectHandler.
func NewProjectHandler(projects *service.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

// projectRequest is the JSON body for creating a project.
//
// WHY A SEPARATE REQUEST STRUCT?
// Decoding straight into model.Project would let clients set fields they
// must never control: ID, UserID, IsFromGitHub, timestamps. The request
// struct lists exactly the writable fields and nothing else.
type projectRequest struct {
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	Status             model.ProjectStatus `json:"status"`
	TechStack          []string            `json:"techStack"`
	StartedDate        *time.Time          `json:"startedDate"`
	LastWorkedDate     *time.Time          `json:"lastWorkedDate"`
	WhyStopped         string              `json:"whyStopped"`
	WhatLearned        string              `json:"whatLearned"`
	GitHubURL          string              `json:"githubUrl"`
	LiveURL            string              `json:"liveUrl"`
	ProgressPercentage int                 `json:"progressPercentage"`
	IsPublic           bool                `json:"isPublic"`
}

// projectPatch is the JSON body for updating a project. Pointer fields
// distinguish "set to zero" from "not provided" — `{"progressPercentage":0}`
// and `{}` are different requests.
type projectPatch struct {
	Name               *string              `json:"name"`
	Description        *string              `json:"description"`
	Status             *model.ProjectStatus `json:"status"`
	TechStack          *[]string            `json:"techStack"`
	StartedDate        *time.Time           `json:"startedDate"`
	LastWorkedDate     *time.Time           `json:"lastWorkedDate"`
	WhyStopped         *string              `json:"whyStopped"`
	WhatLearned        *string              `json:"whatLearned"`
	GitHubURL          *string              `json:"githubUrl"`
	LiveURL            *string              `json:"liveUrl"`
	ProgressPercentage *int                 `json:"progressPercentage"`
	IsPublic           *bool                `json:"isPublic"`
}

// HandleCreate saves a new project.
//
// HTTP: POST /api/projects
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid project JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	project, err := h.projects.Create(r.Context(), session.UserID, service.ProjectInput{
		Name:               req.Name,
		Description:        req.Description,
		Status:             req.Status,
		TechStack:          req.TechStack,
		StartedDate:        req.StartedDate,
		LastWorkedDate:     req.LastWorkedDate,
		WhyStopped:         req.WhyStopped,
		WhatLearned:        req.WhatLearned,
		GitHubURL:          req.GitHubURL,
		LiveURL:            req.LiveURL,
		ProgressPercentage: req.ProgressPercentage,
		IsPublic:           req.IsPublic,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

// HandleList returns the caller's projects, optionally filtered by status.
//
// HTTP: GET /api/projects?status=active
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	status := model.ProjectStatus(r.URL.Query().Get("status"))
	projects, err := h.projects.List(r.Context(), session.UserID, status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, projects)
}

// HandleGet returns one project.
//
// HTTP: GET /api/projects/{id}
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	id := r.PathValue("id")
	project, err := h.projects.Get(r.Context(), id, session.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

// HandleUpdate applies a partial update to an owned project.
//
// HTTP: PUT /api/projects/{id}
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	var patch projectPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.logger.Warn("invalid project JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	project, err := h.projects.Update(r.Context(), r.PathValue("id"), session.UserID, service.ProjectUpdate{
		Name:               patch.Name,
		Description:        patch.Description,
		Status:             patch.Status,
		TechStack:          patch.TechStack,
		StartedDate:        patch.StartedDate,
		LastWorkedDate:     patch.LastWorkedDate,
		WhyStopped:         patch.WhyStopped,
		WhatLearned:        patch.WhatLearned,
		GitHubURL:          patch.GitHubURL,
		LiveURL:            patch.LiveURL,
		ProgressPercentage: patch.ProgressPercentage,
		IsPublic:           patch.IsPublic,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

// HandleDelete removes an owned project.
//
// HTTP: DELETE /api/projects/{id}
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	if err := h.projects.Delete(r.Context(), r.PathValue("id"), session.UserID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
