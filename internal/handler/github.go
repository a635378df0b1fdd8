package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sidequesthq/sidequesthq/internal/auth"
	"github.com/sidequesthq/sidequesthq/internal/model"
	"github.com/sidequesthq/sidequesthq/internal/service"
)

// GitHubHandler exposes the repository import pipeline.
type GitHubHandler struct {
	importer *service.ImportService
	logger   *slog.Logger
}

// NewGitHubHandler creates a GitHubHandler.
func NewGitHubHandler(importer *service.ImportService, logger *slog.Logger) *GitHubHandler {
	return &GitHubHandler{importer: importer, logger: logger}
}

// HandleListRepos returns the caller's GitHub repositories for the import
// picker UI.
//
// HTTP: GET /api/github/repos
func (h *GitHubHandler) HandleListRepos(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	repos, err := h.importer.ListRepos(r.Context(), session.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, repos)
}

// importRequest is the JSON body for an import run.
type importRequest struct {
	RepoIDs       []int64             `json:"repoIds"`
	DefaultStatus model.ProjectStatus `json:"defaultStatus"`
	MakePublic    bool                `json:"makePublic"`
}

// importResponse is what the frontend shows after an import: how many made
// it and the resulting projects. Per-repo failures are logged server-side;
// the imported count against the selection size tells the user enough.
type importResponse struct {
	Success  bool            `json:"success"`
	Imported int             `json:"imported"`
	Projects []model.Project `json:"projects"`
}

// HandleImport imports the selected repositories as projects.
//
// HTTP: POST /api/github/import
//
// PARTIAL SUCCESS IS STILL A 200:
// The service skips repos that fail and imports the rest. The response says
// how many landed; only a request-level failure (bad input, GitHub listing
// down) produces an error status.
func (h *GitHubHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid import JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	result, err := h.importer.Import(r.Context(), session.UserID, service.ImportRequest{
		RepoIDs:       req.RepoIDs,
		DefaultStatus: req.DefaultStatus,
		MakePublic:    req.MakePublic,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, importResponse{
		Success:  true,
		Imported: result.Imported,
		Projects: result.Projects,
	})
}
