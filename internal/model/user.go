// Package model defines the data structures used throughout the application.
package model

import "time"

// UserProfile represents a registered user account and their public profile.
//
// We use GitHub OAuth as the only identity provider, so the primary external
// identifier is the GitHub user ID (an integer). We still generate our own
// internal string ID (xid) for consistency with Project and to avoid tying
// our primary keys to a third-party's numbering scheme.
//
// WHY GitHubID int64?
// GitHub user IDs are integers (e.g. 1234567). Using int64 avoids overflow
// for large GitHub account numbers. The UNIQUE constraint on github_id in the
// DB ensures one GitHub account maps to exactly one app account.
//
// WHY Email string (not *string)?
// GitHub OAuth returns the primary email, which can be empty if the user has
// hidden it. We use an empty string as the zero value rather than a nullable
// pointer — simpler to work with and safe to display.
//
// GitHubAccessToken is the OAuth access token captured at login time. The
// repository importer needs it later to call the GitHub API on the user's
// behalf. The json:"-" tag keeps it out of every API response.
type UserProfile struct {
	ID                string    `json:"id"`
	GitHubID          int64     `json:"githubId"` // GitHub's numeric user ID
	Username          string    `json:"username"` // GitHub login, e.g. "octocat"
	Email             string    `json:"email"`    // Primary email (may be empty)
	AvatarURL         string    `json:"avatarUrl"`
	Bio               string    `json:"bio"`
	WebsiteURL        string    `json:"websiteUrl"`
	TwitterHandle     string    `json:"twitterHandle"`
	GitHubAccessToken string    `json:"-"` // never exposed over the API
	IsProfilePublic   bool      `json:"isProfilePublic"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}
