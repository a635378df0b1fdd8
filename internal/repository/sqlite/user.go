package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sidequesthq/sidequesthq/internal/apperror"
	"github.com/sidequesthq/sidequesthq/internal/model"
	"github.com/sidequesthq/sidequesthq/internal/repository"
)

// UserStore implements repository.UserRepository over the shared pool.
type UserStore struct {
	conn *sql.DB
}

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

const userColumns = `id, github_id, username, email, avatar_url, bio,
	website_url, twitter_handle, github_access_token, is_profile_public,
	created_at, updated_at`

// Upsert inserts a profile on first login or refreshes the GitHub-derived
// fields (username, email, avatar, access token) on a returning login.
//
// We look up by github_id first rather than using INSERT OR REPLACE: if the
// user already exists we must KEEP their internal ID — it's referenced by
// every one of their projects. The refresh deliberately leaves bio, links,
// and visibility alone; those belong to the settings page, not to GitHub.
func (s *UserStore) Upsert(ctx context.Context, user *model.UserProfile) error {
	var existingID string
	err := s.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)

	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existingID != "" {
		user.ID = existingID
		user.UpdatedAt = time.Now()
		_, err = s.conn.ExecContext(ctx,
			`UPDATE users
			 SET username = ?, email = ?, avatar_url = ?, github_access_token = ?, updated_at = ?
			 WHERE id = ?`,
			user.Username,
			user.Email,
			user.AvatarURL,
			user.GitHubAccessToken,
			user.UpdatedAt,
			user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO users (id, github_id, username, email, avatar_url, bio,
			website_url, twitter_handle, github_access_token, is_profile_public,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.GitHubID,
		user.Username,
		user.Email,
		user.AvatarURL,
		user.Bio,
		user.WebsiteURL,
		user.TwitterHandle,
		user.GitHubAccessToken,
		user.IsProfilePublic,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", user.GitHubID, err)
	}

	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.UserProfile, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetByUsername retrieves a user by their GitHub login. Used by the public
// stats endpoint; the visibility check lives in the service layer.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.UserProfile, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user by username %s: %w", username, err)
	}
	return user, nil
}

// UpdateSettings writes the user-editable fields. Identity fields and the
// access token are intentionally not in the SET list.
func (s *UserStore) UpdateSettings(ctx context.Context, user *model.UserProfile) error {
	user.UpdatedAt = time.Now()

	result, err := s.conn.ExecContext(ctx,
		`UPDATE users
		 SET username = ?, bio = ?, website_url = ?, twitter_handle = ?,
		     is_profile_public = ?, updated_at = ?
		 WHERE id = ?`,
		user.Username,
		user.Bio,
		user.WebsiteURL,
		user.TwitterHandle,
		user.IsProfilePublic,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating settings for user %s: %w", user.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

// scanner is the common surface of sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*model.UserProfile, error) {
	var u model.UserProfile
	err := row.Scan(
		&u.ID,
		&u.GitHubID,
		&u.Username,
		&u.Email,
		&u.AvatarURL,
		&u.Bio,
		&u.WebsiteURL,
		&u.TwitterHandle,
		&u.GitHubAccessToken,
		&u.IsProfilePublic,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
