package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sidequesthq/sidequesthq/internal/apperror"
	"github.com/sidequesthq/sidequesthq/internal/model"
	"github.com/sidequesthq/sidequesthq/internal/repository"
)

// ProjectStore implements repository.ProjectRepository over the shared pool.
type ProjectStore struct {
	conn *sql.DB
}

// compile-time check that *ProjectStore implements repository.ProjectRepository
var _ repository.ProjectRepository = (*ProjectStore)(nil)

const projectColumns = `id, user_id, name, slug, description, status, tech_stack,
	started_date, last_worked_date, abandoned_date, shipped_date,
	why_stopped, what_learned, github_url, live_url, progress_percentage,
	github_repo_id, is_from_github, is_public, created_at, updated_at`

// Create inserts a new project. The ID (xid) and timestamps are generated
// here and written back onto the caller's struct via the pointer receiver.
func (s *ProjectStore) Create(ctx context.Context, project *model.Project) error {
	project.ID = xid.New().String()

	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	techStack, err := marshalTechStack(project.TechStack)
	if err != nil {
		return fmt.Errorf("sqlite: encoding tech stack: %w", err)
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID,
		project.UserID,
		project.Name,
		project.Slug,
		project.Description,
		string(project.Status),
		techStack,
		nullableTime(project.StartedDate),
		nullableTime(project.LastWorkedDate),
		nullableTime(project.AbandonedDate),
		nullableTime(project.ShippedDate),
		project.WhyStopped,
		project.WhatLearned,
		project.GitHubURL,
		project.LiveURL,
		project.ProgressPercentage,
		nullableInt64(project.GitHubRepoID),
		project.IsFromGitHub,
		project.IsPublic,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating project: %w", err)
	}

	return nil
}

// GetByID retrieves a single project by its ID. There is no owner filter
// here on purpose — the service decides between "yours", "public", and
// "forbidden" after seeing the record.
func (s *ProjectStore) GetByID(ctx context.Context, id string) (*model.Project, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)

	project, err := scanProject(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("project", id)
		}
		return nil, fmt.Errorf("sqlite: getting project %s: %w", id, err)
	}
	return project, nil
}

// List returns a user's projects, newest first, optionally narrowed by
// status and/or public visibility.
func (s *ProjectStore) List(ctx context.Context, filter repository.ProjectFilter) ([]model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE user_id = ?`
	args := []any{filter.UserID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.PublicOnly {
		query += ` AND is_public = 1`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing projects: %w", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning project row: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating projects: %w", err)
	}

	return projects, nil
}

// Update writes every mutable field. The WHERE clause matches BOTH id and
// user_id — a non-owner's update touches zero rows and reads as not-found,
// which also avoids confirming the record exists.
func (s *ProjectStore) Update(ctx context.Context, project *model.Project) error {
	project.UpdatedAt = time.Now()

	techStack, err := marshalTechStack(project.TechStack)
	if err != nil {
		return fmt.Errorf("sqlite: encoding tech stack: %w", err)
	}

	result, err := s.conn.ExecContext(ctx,
		`UPDATE projects
		 SET name = ?, slug = ?, description = ?, status = ?, tech_stack = ?,
		     started_date = ?, last_worked_date = ?, abandoned_date = ?, shipped_date = ?,
		     why_stopped = ?, what_learned = ?, github_url = ?, live_url = ?,
		     progress_percentage = ?, is_public = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		project.Name,
		project.Slug,
		project.Description,
		string(project.Status),
		techStack,
		nullableTime(project.StartedDate),
		nullableTime(project.LastWorkedDate),
		nullableTime(project.AbandonedDate),
		nullableTime(project.ShippedDate),
		project.WhyStopped,
		project.WhatLearned,
		project.GitHubURL,
		project.LiveURL,
		project.ProgressPercentage,
		project.IsPublic,
		project.UpdatedAt,
		project.ID,
		project.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating project %s: %w", project.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("project", project.ID)
	}

	return nil
}

// Delete removes a project, owner-scoped like Update.
func (s *ProjectStore) Delete(ctx context.Context, id, userID string) error {
	result, err := s.conn.ExecContext(ctx,
		`DELETE FROM projects WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting project %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("project", id)
	}

	return nil
}

func scanProject(row scanner) (*model.Project, error) {
	var (
		p             model.Project
		techStackJSON string
		started       sql.NullTime
		lastWorked    sql.NullTime
		abandoned     sql.NullTime
		shipped       sql.NullTime
		githubRepoID  sql.NullInt64
	)

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Status,
		&techStackJSON,
		&started,
		&lastWorked,
		&abandoned,
		&shipped,
		&p.WhyStopped,
		&p.WhatLearned,
		&p.GitHubURL,
		&p.LiveURL,
		&p.ProgressPercentage,
		&githubRepoID,
		&p.IsFromGitHub,
		&p.IsPublic,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(techStackJSON), &p.TechStack); err != nil {
		return nil, fmt.Errorf("decoding tech stack: %w", err)
	}
	if p.TechStack == nil {
		p.TechStack = []string{}
	}

	p.StartedDate = timePtr(started)
	p.LastWorkedDate = timePtr(lastWorked)
	p.AbandonedDate = timePtr(abandoned)
	p.ShippedDate = timePtr(shipped)
	if githubRepoID.Valid {
		p.GitHubRepoID = &githubRepoID.Int64
	}

	return &p, nil
}

func marshalTechStack(stack []string) (string, error) {
	if stack == nil {
		stack = []string{}
	}
	b, err := json.Marshal(stack)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// nullableTime converts *time.Time to the driver-friendly any: a nil pointer
// becomes SQL NULL.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
