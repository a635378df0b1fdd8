// Package repository declares the persistence interfaces the service layer
// programs against. The sqlite subpackage is the concrete implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sidequesthq/sidequesthq/internal/model"
)

// ProjectFilter narrows a project listing. UserID is mandatory (every list
// is owner-scoped or public-profile-scoped); Status and PublicOnly are
// optional refinements.
type ProjectFilter struct {
	UserID     string
	Status     model.ProjectStatus // "" means all statuses
	PublicOnly bool
}

// ProjectRepository persists side-project records.
//
// OWNER-SCOPED MUTATION:
// Update and Delete take the owner's user ID and match it in the WHERE
// clause alongside the record ID. A non-owner's write affects zero rows and
// surfaces as "not found" — authorization enforced at the data layer, the
// way the original delegated it to row-level security.
type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	GetByID(ctx context.Context, id string) (*model.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]model.Project, error)
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id, userID string) error
}

// UserRepository persists user profiles.
type UserRepository interface {
	// Upsert inserts on first login (keyed by GitHub ID) and refreshes the
	// GitHub-derived fields on every later login. Fills ID and timestamps.
	Upsert(ctx context.Context, user *model.UserProfile) error
	GetByID(ctx context.Context, id string) (*model.UserProfile, error)
	GetByUsername(ctx context.Context, username string) (*model.UserProfile, error)
	// UpdateSettings writes the user-editable fields only (username, bio,
	// links, visibility) — never the GitHub identity or token.
	UpdateSettings(ctx context.Context, user *model.UserProfile) error
}
