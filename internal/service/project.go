// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Handlers never touch SQL; services never touch HTTP. The services take
// repository INTERFACES, not the concrete sqlite types, so tests inject
// in-memory mocks and the storage backend can change without touching this
// package.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/sidequesthq/sidequesthq/internal/apperror"
	"github.com/sidequesthq/sidequesthq/internal/model"
	"github.com/sidequesthq/sidequesthq/internal/repository"
)

// Validation limits, mirrored by the frontend's form validation.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
	MaxWhyStoppedLength  = 300
	MaxWhatLearnedLength = 500
	MaxTechStackSize     = 10
	MaxTopTech           = 10
)

// ProjectService handles the business rules for side-project records.
type ProjectService struct {
	projects repository.ProjectRepository
	users    repository.UserRepository
	logger   *slog.Logger

	// now is time.Now in production; tests pin it to make date stamping
	// assertable.
	now func() time.Time
}

// NewProjectService creates a ProjectService.
func NewProjectService(projects repository.ProjectRepository, users repository.UserRepository, logger *slog.Logger) *ProjectService {
	return &ProjectService{
		projects: projects,
		users:    users,
		logger:   logger,
		now:      time.Now,
	}
}

// ProjectInput carries the user-settable fields for creating a project.
type ProjectInput struct {
	Name               string
	Description        string
	Status             model.ProjectStatus
	TechStack          []string
	StartedDate        *time.Time
	LastWorkedDate     *time.Time
	WhyStopped         string
	WhatLearned        string
	GitHubURL          string
	LiveURL            string
	ProgressPercentage int
	IsPublic           bool
}

// ProjectUpdate carries a partial update: nil means "leave unchanged".
//
// WHY POINTERS INSTEAD OF ZERO VALUES?
// "Set progress to 0" and "don't touch progress" are different requests, and
// with plain ints they'd look identical. A nil pointer is an unambiguous
// "not provided".
type ProjectUpdate struct {
	Name               *string
	Description        *string
	Status             *model.ProjectStatus
	TechStack          *[]string
	StartedDate        *time.Time
	LastWorkedDate     *time.Time
	WhyStopped         *string
	WhatLearned        *string
	GitHubURL          *string
	LiveURL            *string
	ProgressPercentage *int
	IsPublic           *bool
}

// Create validates and saves a new project for userID.
//
// Derivations performed here, not by the caller:
//   - slug from the name (pure transform, see Slugify)
//   - abandoned_date / shipped_date stamped "now" when the initial status
//     is abandoned / shipped
//   - tech stack deduped in insertion order and capped at 10
//   - progress clamped into [0,100]
func (s *ProjectService) Create(ctx context.Context, userID string, in ProjectInput) (*model.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "project name is required")
	}
	if len(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("project name must be %d characters or less", MaxNameLength))
	}
	if len(in.Description) > MaxDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	if len(in.WhyStopped) > MaxWhyStoppedLength {
		return nil, apperror.ValidationFailed("whyStopped",
			fmt.Sprintf("must be %d characters or less", MaxWhyStoppedLength))
	}
	if len(in.WhatLearned) > MaxWhatLearnedLength {
		return nil, apperror.ValidationFailed("whatLearned",
			fmt.Sprintf("must be %d characters or less", MaxWhatLearnedLength))
	}

	status := in.Status
	if status == "" {
		status = model.StatusActive
	}
	if !status.Valid() {
		return nil, apperror.ValidationFailed("status",
			fmt.Sprintf("status must be one of active, paused, abandoned, shipped (got %q)", in.Status))
	}

	project := &model.Project{
		UserID:             userID,
		Name:               name,
		Slug:               Slugify(name),
		Description:        strings.TrimSpace(in.Description),
		Status:             status,
		TechStack:          normalizeTechStack(in.TechStack),
		StartedDate:        in.StartedDate,
		LastWorkedDate:     in.LastWorkedDate,
		WhyStopped:         strings.TrimSpace(in.WhyStopped),
		WhatLearned:        strings.TrimSpace(in.WhatLearned),
		GitHubURL:          strings.TrimSpace(in.GitHubURL),
		LiveURL:            strings.TrimSpace(in.LiveURL),
		ProgressPercentage: clampProgress(in.ProgressPercentage),
		IsPublic:           in.IsPublic,
	}
	s.stampStatusDates(project, status)

	if err := s.projects.Create(ctx, project); err != nil {
		s.logger.Error("failed to create project",
			slog.String("userID", userID),
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project created",
		slog.String("id", project.ID),
		slog.String("userID", userID),
		slog.String("slug", project.Slug),
	)

	return project, nil
}

// Get returns a project if the viewer may see it: the owner always may,
// anyone may when the project is public.
//
// A private project looks FORBIDDEN to an authenticated stranger but the
// record's existence is never denied to its owner. (Anonymous requests don't
// reach here — the route requires a session.)
func (s *ProjectService) Get(ctx context.Context, id, viewerID string) (*model.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if project.UserID != viewerID && !project.IsPublic {
		return nil, apperror.Forbidden("this project is private")
	}

	return project, nil
}

// List returns the owner's projects, optionally filtered by status.
func (s *ProjectService) List(ctx context.Context, userID string, status model.ProjectStatus) ([]model.Project, error) {
	if status != "" && !status.Valid() {
		return nil, apperror.ValidationFailed("status",
			fmt.Sprintf("unknown status %q", status))
	}

	projects, err := s.projects.List(ctx, repository.ProjectFilter{
		UserID: userID,
		Status: status,
	})
	if err != nil {
		s.logger.Error("failed to list projects",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	return projects, nil
}

// Update applies a partial update to an owned project.
//
// STATUS / DATE STAMPING:
// Whenever the update carries status "abandoned" or "shipped", the matching
// date is stamped "now" — even if the project was already in that status.
// The opposite date field is never cleared; repeated flips can leave a stale
// pair behind, and that is accepted behaviour.
func (s *ProjectService) Update(ctx context.Context, id, userID string, in ProjectUpdate) (*model.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.UserID != userID {
		// Not-found rather than forbidden: a would-be editor learns nothing
		// about whether the record exists.
		return nil, apperror.NotFound("project", id)
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", "project name is required")
		}
		if len(name) > MaxNameLength {
			return nil, apperror.ValidationFailed("name",
				fmt.Sprintf("project name must be %d characters or less", MaxNameLength))
		}
		project.Name = name
		project.Slug = Slugify(name)
	}
	if in.Description != nil {
		if len(*in.Description) > MaxDescriptionLength {
			return nil, apperror.ValidationFailed("description",
				fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
		}
		project.Description = strings.TrimSpace(*in.Description)
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperror.ValidationFailed("status",
				fmt.Sprintf("unknown status %q", *in.Status))
		}
		project.Status = *in.Status
		s.stampStatusDates(project, *in.Status)
	}
	if in.TechStack != nil {
		project.TechStack = normalizeTechStack(*in.TechStack)
	}
	if in.StartedDate != nil {
		project.StartedDate = in.StartedDate
	}
	if in.LastWorkedDate != nil {
		project.LastWorkedDate = in.LastWorkedDate
	}
	if in.WhyStopped != nil {
		if len(*in.WhyStopped) > MaxWhyStoppedLength {
			return nil, apperror.ValidationFailed("whyStopped",
				fmt.Sprintf("must be %d characters or less", MaxWhyStoppedLength))
		}
		project.WhyStopped = strings.TrimSpace(*in.WhyStopped)
	}
	if in.WhatLearned != nil {
		if len(*in.WhatLearned) > MaxWhatLearnedLength {
			return nil, apperror.ValidationFailed("whatLearned",
				fmt.Sprintf("must be %d characters or less", MaxWhatLearnedLength))
		}
		project.WhatLearned = strings.TrimSpace(*in.WhatLearned)
	}
	if in.GitHubURL != nil {
		project.GitHubURL = strings.TrimSpace(*in.GitHubURL)
	}
	if in.LiveURL != nil {
		project.LiveURL = strings.TrimSpace(*in.LiveURL)
	}
	if in.ProgressPercentage != nil {
		project.ProgressPercentage = clampProgress(*in.ProgressPercentage)
	}
	if in.IsPublic != nil {
		project.IsPublic = *in.IsPublic
	}

	if err := s.projects.Update(ctx, project); err != nil {
		s.logger.Error("failed to update project",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating project: %w", err)
	}

	s.logger.Info("project updated",
		slog.String("id", project.ID),
		slog.String("status", string(project.Status)),
	)

	return project, nil
}

// Delete removes an owned project.
func (s *ProjectService) Delete(ctx context.Context, id, userID string) error {
	if err := s.projects.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info("project deleted",
		slog.String("id", id),
		slog.String("userID", userID),
	)
	return nil
}

// stampStatusDates records when a project entered a terminal-ish status.
// Only the date matching the NEW status is written; the opposite field is
// left alone (see Update's doc comment).
func (s *ProjectService) stampStatusDates(project *model.Project, status model.ProjectStatus) {
	now := s.now()
	switch status {
	case model.StatusAbandoned:
		project.AbandonedDate = &now
	case model.StatusShipped:
		project.ShippedDate = &now
	}
}

// normalizeTechStack dedupes by exact string match, preserves insertion
// order, drops empties, and caps the list at MaxTechStackSize.
func normalizeTechStack(stack []string) []string {
	out := make([]string, 0, MaxTechStackSize)
	seen := make(map[string]bool, MaxTechStackSize)
	for _, tech := range stack {
		tech = strings.TrimSpace(tech)
		if tech == "" || seen[tech] {
			continue
		}
		if len(out) >= MaxTechStackSize {
			break
		}
		seen[tech] = true
		out = append(out, tech)
	}
	return out
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// =========================================================================
// PUBLIC PROFILE STATS
// =========================================================================

// StatsResult is everything the public profile page needs in one response.
type StatsResult struct {
	Profile  *model.UserProfile `json:"profile"`
	Projects []model.Project    `json:"projects"`
	Stats    model.ProjectStats `json:"stats"`
	TopTech  []model.TechCount  `json:"topTech"`
}

// Stats assembles the public view of a username: their profile, public
// projects, status counts, and most-used technologies.
//
// A private profile is a NOT FOUND, not a forbidden — the endpoint must not
// confirm that a username exists when its owner opted out.
func (s *ProjectService) Stats(ctx context.Context, username string) (*StatsResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}

	profile, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !profile.IsProfilePublic {
		return nil, apperror.NotFound("profile", username)
	}
	// The email stays private even on a public profile.
	profile.Email = ""

	projects, err := s.projects.List(ctx, repository.ProjectFilter{
		UserID:     profile.ID,
		PublicOnly: true,
	})
	if err != nil {
		s.logger.Error("failed to list public projects",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing public projects: %w", err)
	}

	stats := model.ProjectStats{Total: len(projects)}
	techCount := map[string]int{}
	var techOrder []string

	for _, p := range projects {
		switch p.Status {
		case model.StatusActive:
			stats.Active++
		case model.StatusPaused:
			stats.Paused++
		case model.StatusAbandoned:
			stats.Abandoned++
		case model.StatusShipped:
			stats.Shipped++
		}
		for _, tech := range p.TechStack {
			if techCount[tech] == 0 {
				techOrder = append(techOrder, tech)
			}
			techCount[tech]++
		}
	}

	// Sort by usage, most-used first. The stable sort keeps first-seen
	// order among ties so the output is deterministic.
	sort.SliceStable(techOrder, func(i, j int) bool {
		return techCount[techOrder[i]] > techCount[techOrder[j]]
	})
	if len(techOrder) > MaxTopTech {
		techOrder = techOrder[:MaxTopTech]
	}

	topTech := make([]model.TechCount, 0, len(techOrder))
	for _, tech := range techOrder {
		topTech = append(topTech, model.TechCount{Name: tech, Count: techCount[tech]})
	}

	return &StatsResult{
		Profile:  profile,
		Projects: projects,
		Stats:    stats,
		TopTech:  topTech,
	}, nil
}
