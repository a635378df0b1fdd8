package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubUser is the portion of the GitHub /user API response we care about.
// GitHub returns a much larger object — we only unmarshal the fields we need.
//
// GitHub API docs: https://docs.github.com/en/rest/users/users#get-the-authenticated-user
type GitHubUser struct {
	ID          int64  `json:"id"`         // GitHub's numeric user ID — stable, never changes
	Login       string `json:"login"`      // GitHub username, e.g. "octocat"
	Email       string `json:"email"`      // Public profile email (empty if hidden)
	AvatarURL   string `json:"avatar_url"` // Profile picture URL
	Bio         string `json:"bio"`
	Blog        string `json:"blog"`             // Website URL from the profile
	TwitterName string `json:"twitter_username"` // May be empty
}

// githubEmail is one entry of the /user/emails response.
type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// ExchangeResult bundles the GitHub profile with the raw access token.
// The token is persisted on the user profile so the repository importer can
// call the GitHub API on the user's behalf long after login.
type ExchangeResult struct {
	User        *GitHubUser
	AccessToken string
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization Code
// flow.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
//  1. Our server redirects the user to GitHub's authorization endpoint,
//     with our ClientID and the requested scopes.
//  2. The user approves (or denies) the request on GitHub.
//  3. GitHub redirects back to our CallbackURL with a short-lived "code".
//  4. Our server exchanges the code for an access token (server-to-server,
//     using the ClientSecret — the token never touches the browser).
//  5. Our server uses the access token to call the GitHub API for user info.
type GitHubProvider struct {
	config *oauth2.Config

	// apiBaseURL is https://api.github.com in production; tests point it at
	// an httptest server.
	apiBaseURL string
}

// NewGitHubProvider creates a GitHubProvider with the given credentials.
//
// You get ClientID and ClientSecret by registering an OAuth App at
// https://github.com/settings/developers. callbackURL must exactly match the
// "Authorization callback URL" configured there.
//
// Scopes we request:
//   - "read:user"  — the user's public profile (ID, login, avatar, bio)
//   - "user:email" — the user's email addresses (for the primary verified one)
//   - "repo"       — repository access, required by the importer to read
//     private repos and their manifest files
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email", "repo"},
			Endpoint:     github.Endpoint, // pre-defined GitHub OAuth endpoints
		},
		apiBaseURL: "https://api.github.com",
	}
}

// AuthURL returns the URL to redirect the user to for authorization.
//
// STATE PARAMETER:
// The state is a random string we generate and store in a cookie before
// redirecting. When GitHub calls back, we verify the returned state matches
// our cookie. This prevents CSRF attacks where an attacker tricks a browser
// into completing an OAuth flow for the attacker's account.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the OAuth flow: trades the authorization code for the
// GitHub user's profile, primary email, and access token.
//
// Steps:
//  1. Exchange the code for an OAuth access token (server-to-server)
//  2. GET /user with the token for the profile
//  3. GET /user/emails for the primary verified email — the profile email is
//     empty whenever the user hides it, so this lookup usually wins
//
// Any failure here aborts the entire login attempt; the handler redirects to
// an error state. There is deliberately no retry.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*ExchangeResult, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that automatically adds
	// the "Authorization: Bearer <token>" header to every request.
	client := p.config.Client(ctx, oauthToken)

	ghUser, err := p.fetchUser(client)
	if err != nil {
		return nil, err
	}

	// Prefer the primary verified email over the public profile one. A failed
	// lookup fails the login; only "no primary verified email on file" falls
	// back to the profile email.
	email, err := p.fetchPrimaryEmail(client)
	if err != nil {
		return nil, err
	}
	if email != "" {
		ghUser.Email = email
	}

	return &ExchangeResult{
		User:        ghUser,
		AccessToken: oauthToken.AccessToken,
	}, nil
}

func (p *GitHubProvider) fetchUser(client *http.Client) (*GitHubUser, error) {
	resp, err := client.Get(p.apiBaseURL + "/user")
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var ghUser GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}
	if ghUser.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	return &ghUser, nil
}

// fetchPrimaryEmail returns the primary verified email from /user/emails.
// An empty string (no primary verified email on file) is not an error.
func (p *GitHubProvider) fetchPrimaryEmail(client *http.Client) (string, error) {
	resp, err := client.Get(p.apiBaseURL + "/user/emails")
	if err != nil {
		return "", fmt.Errorf("auth: calling GitHub /user/emails API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth: GitHub /user/emails API returned status %d", resp.StatusCode)
	}

	var emails []githubEmail
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", fmt.Errorf("auth: decoding GitHub /user/emails response: %w", err)
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	return "", nil
}
