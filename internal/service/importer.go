package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sidequesthq/sidequesthq/internal/apperror"
	"github.com/sidequesthq/sidequesthq/internal/github"
	"github.com/sidequesthq/sidequesthq/internal/model"
	"github.com/sidequesthq/sidequesthq/internal/repository"
)

// staleAfterMonths is how long a repo can go without a push before an imported
// "active" project is downgraded to paused.
const staleAfterMonths = 6

// RepoBrowser is the slice of the GitHub client the importer needs.
// Declared here, where it is consumed — the github package returns the
// concrete *github.Client and doesn't know this interface exists.
type RepoBrowser interface {
	ListUserRepos(ctx context.Context) ([]github.Repo, error)
	FetchManifests(ctx context.Context, owner, repo string) github.Manifests
}

// ImportService turns a user's GitHub repositories into project records.
type ImportService struct {
	projects repository.ProjectRepository
	users    repository.UserRepository
	logger   *slog.Logger

	// newClient builds a RepoBrowser for a user's token. Production wires
	// the real GitHub client; tests inject a fake.
	newClient func(token string) RepoBrowser
	now       func() time.Time
}

// NewImportService creates an ImportService backed by the real GitHub API.
func NewImportService(projects repository.ProjectRepository, users repository.UserRepository, logger *slog.Logger) *ImportService {
	return &ImportService{
		projects: projects,
		users:    users,
		logger:   logger,
		newClient: func(token string) RepoBrowser {
			return github.NewClient(token)
		},
		now: time.Now,
	}
}

// ListRepos returns the user's GitHub repositories for the import picker.
func (s *ImportService) ListRepos(ctx context.Context, userID string) ([]github.Repo, error) {
	browser, err := s.browserFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	repos, err := browser.ListUserRepos(ctx)
	if err != nil {
		s.logger.Error("failed to list github repos",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upstream("listing GitHub repositories")
	}
	return repos, nil
}

// ImportRequest selects which repositories to import and how.
type ImportRequest struct {
	RepoIDs       []int64
	DefaultStatus model.ProjectStatus // applied unless the heuristic overrides
	MakePublic    bool
}

// RepoImportResult records the outcome for one selected repository.
// Err is nil on success.
type RepoImportResult struct {
	RepoID int64
	Name   string
	Err    error
}

// ImportResult is the outcome of an import run. Imported counts successes;
// Results has one entry per selected repo, failures included.
type ImportResult struct {
	Imported int
	Projects []model.Project
	Results  []RepoImportResult
}

// Import creates a project for each selected repository.
//
// PARTIAL SUCCESS:
// One repo failing (manifest fetch, insert) doesn't abort the run. The
// failure is recorded in Results and the loop moves on, so importing five
// repos where one breaks still yields four projects.
func (s *ImportService) Import(ctx context.Context, userID string, req ImportRequest) (*ImportResult, error) {
	if len(req.RepoIDs) == 0 {
		return nil, apperror.ValidationFailed("repoIds", "select at least one repository")
	}

	status := req.DefaultStatus
	if status == "" {
		status = model.StatusActive
	}
	if !status.Valid() {
		return nil, apperror.ValidationFailed("defaultStatus",
			fmt.Sprintf("unknown status %q", req.DefaultStatus))
	}

	browser, err := s.browserFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	repos, err := browser.ListUserRepos(ctx)
	if err != nil {
		s.logger.Error("failed to list github repos for import",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upstream("listing GitHub repositories")
	}

	byID := make(map[int64]github.Repo, len(repos))
	for _, r := range repos {
		byID[r.ID] = r
	}

	result := &ImportResult{Projects: []model.Project{}}
	seen := make(map[int64]bool, len(req.RepoIDs))
	for _, repoID := range req.RepoIDs {
		// A repeated ID in the selection must not create a second copy.
		if seen[repoID] {
			continue
		}
		seen[repoID] = true

		repo, ok := byID[repoID]
		if !ok {
			result.Results = append(result.Results, RepoImportResult{
				RepoID: repoID,
				Err:    fmt.Errorf("repository %d not found in your GitHub account", repoID),
			})
			continue
		}

		project, err := s.importOne(ctx, browser, userID, repo, status, req.MakePublic)
		result.Results = append(result.Results, RepoImportResult{
			RepoID: repoID,
			Name:   repo.Name,
			Err:    err,
		})
		if err != nil {
			s.logger.Warn("repo import failed",
				slog.String("userID", userID),
				slog.String("repo", repo.FullName),
				slog.String("error", err.Error()),
			)
			continue
		}

		result.Imported++
		result.Projects = append(result.Projects, *project)
	}

	s.logger.Info("github import finished",
		slog.String("userID", userID),
		slog.Int("selected", len(req.RepoIDs)),
		slog.Int("imported", result.Imported),
	)

	return result, nil
}

// importOne maps a single GitHub repo onto a project record and saves it.
func (s *ImportService) importOne(ctx context.Context, browser RepoBrowser, userID string, repo github.Repo, defaultStatus model.ProjectStatus, makePublic bool) (*model.Project, error) {
	owner, name, ok := splitFullName(repo.FullName)
	if !ok {
		return nil, fmt.Errorf("malformed repo full name %q", repo.FullName)
	}

	// Manifest probing is tolerant: a repo with no recognizable manifests
	// simply yields a stack built from its language and topics.
	manifests := browser.FetchManifests(ctx, owner, name)
	detected := github.DetectTechStack(manifests)
	techStack := github.BuildTechStack(detected, repo.Language, repo.Topics)

	project := &model.Project{
		UserID:       userID,
		Name:         repo.Name,
		Slug:         Slugify(repo.Name),
		Description:  repo.Description,
		TechStack:    techStack,
		GitHubURL:    repo.HTMLURL,
		GitHubRepoID: &repo.ID,
		IsFromGitHub: true,
		IsPublic:     makePublic,
	}
	if project.Description == "" {
		project.Description = "Imported from GitHub: " + repo.Name
	}

	// THE STATUS HEURISTIC:
	//   archived                          → abandoned (the repo itself says so)
	//   no push in 6 months, default=active → paused (probably dormant)
	//   otherwise                          → the caller's default
	status := defaultStatus
	switch {
	case repo.Archived:
		status = model.StatusAbandoned
	case repo.PushedAt.Before(s.now().AddDate(0, -staleAfterMonths, 0)) && defaultStatus == model.StatusActive:
		status = model.StatusPaused
	}
	project.Status = status

	started := repo.CreatedAt
	project.StartedDate = &started
	lastWorked := repo.PushedAt
	project.LastWorkedDate = &lastWorked
	if status == model.StatusAbandoned {
		abandoned := repo.PushedAt
		project.AbandonedDate = &abandoned
	}

	// Archived repos are over; everything else gets a neutral midpoint the
	// owner can correct later.
	if repo.Archived {
		project.ProgressPercentage = 0
	} else {
		project.ProgressPercentage = 50
	}

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("saving imported project: %w", err)
	}
	return project, nil
}

// browserFor loads the user's stored GitHub token and wraps it in a client.
func (s *ImportService) browserFor(ctx context.Context, userID string) (RepoBrowser, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.GitHubAccessToken == "" {
		return nil, apperror.ValidationFailed("githubToken",
			"no GitHub access token on file; sign in with GitHub again")
	}
	return s.newClient(user.GitHubAccessToken), nil
}

func splitFullName(fullName string) (owner, name string, ok bool) {
	owner, name, ok = strings.Cut(fullName, "/")
	if owner == "" || name == "" {
		return "", "", false
	}
	return owner, name, ok
}
