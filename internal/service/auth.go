package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sidequesthq/sidequesthq/internal/apperror"
	"github.com/sidequesthq/sidequesthq/internal/auth"
	"github.com/sidequesthq/sidequesthq/internal/model"
	"github.com/sidequesthq/sidequesthq/internal/repository"
)

const (
	MaxUsernameLength = 39 // GitHub's own limit; our usernames start as GitHub logins
	MaxBioLength      = 500
)

// AuthService connects the OAuth exchange to user records and sessions.
type AuthService struct {
	users    repository.UserRepository
	sessions *auth.SessionService
	logger   *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(users repository.UserRepository, sessions *auth.SessionService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// AuthResult is a completed login: the stored profile and a signed session
// token ready to set as a cookie.
type AuthResult struct {
	User  *model.UserProfile
	Token string
}

// LoginWithGitHub upserts the user from a completed OAuth exchange and mints
// a session token.
//
// FIRST LOGIN vs RETURNING LOGIN:
// The repository keys on the GitHub numeric ID. A first login inserts a full
// profile seeded from GitHub (bio, website, twitter included); a returning
// login refreshes only the GitHub-derived identity fields and the access
// token, leaving anything the user edited in settings alone.
func (s *AuthService) LoginWithGitHub(ctx context.Context, exchange *auth.ExchangeResult) (*AuthResult, error) {
	gh := exchange.User

	user := &model.UserProfile{
		GitHubID:          gh.ID,
		Username:          gh.Login,
		Email:             gh.Email,
		AvatarURL:         gh.AvatarURL,
		Bio:               gh.Bio,
		WebsiteURL:        gh.Blog,
		TwitterHandle:     gh.TwitterName,
		GitHubAccessToken: exchange.AccessToken,
		// New profiles start public; a returning login never touches the
		// flag, so opting out in settings sticks.
		IsProfilePublic: true,
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		s.logger.Error("failed to upsert user on login",
			slog.Int64("githubID", gh.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("saving user: %w", err)
	}

	token, err := s.sessions.Create(auth.Session{
		UserID:    user.ID,
		GitHubID:  user.GitHubID,
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
		Email:     user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("minting session: %w", err)
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns a stored profile.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.UserProfile, error) {
	return s.users.GetByID(ctx, id)
}

// SettingsInput carries a partial profile-settings update; nil fields are
// left unchanged.
type SettingsInput struct {
	Username        *string
	Bio             *string
	WebsiteURL      *string
	TwitterHandle   *string
	IsProfilePublic *bool
}

// UpdateSettings applies a partial update to the user-editable profile
// fields. GitHub identity and the access token are not reachable from here.
func (s *AuthService) UpdateSettings(ctx context.Context, userID string, in SettingsInput) (*model.UserProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		// Renaming onto someone else's username is a conflict, not an
		// overwrite. Our own current name is of course allowed.
		if username != user.Username {
			if existing, err := s.users.GetByUsername(ctx, username); err == nil && existing.ID != userID {
				return nil, apperror.Conflict("username", username)
			}
		}
		user.Username = username
	}
	if in.Bio != nil {
		if len(*in.Bio) > MaxBioLength {
			return nil, apperror.ValidationFailed("bio",
				fmt.Sprintf("bio must be %d characters or less", MaxBioLength))
		}
		user.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.WebsiteURL != nil {
		user.WebsiteURL = strings.TrimSpace(*in.WebsiteURL)
	}
	if in.TwitterHandle != nil {
		user.TwitterHandle = strings.TrimPrefix(strings.TrimSpace(*in.TwitterHandle), "@")
	}
	if in.IsProfilePublic != nil {
		user.IsProfilePublic = *in.IsProfilePublic
	}

	if err := s.users.UpdateSettings(ctx, user); err != nil {
		s.logger.Error("failed to update settings",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating settings: %w", err)
	}

	s.logger.Info("settings updated", slog.String("userID", userID))
	return user, nil
}

func validateUsername(username string) error {
	if username == "" {
		return apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return apperror.ValidationFailed("username",
				"username may only contain letters, digits, hyphens and underscores")
		}
	}
	return nil
}
