// Package github is a minimal client for the handful of GitHub REST
// endpoints the importer needs: the authenticated user's repositories and
// per-repository manifest files.
//
// WHY NOT A FULL GITHUB SDK?
// We call exactly two endpoint families (/user/repos and /repos/.../contents).
// A hand-rolled client over net/http keeps the dependency surface small and
// makes the error handling explicit — the same trade the OAuth exchange makes.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.github.com"

// Repo is the portion of a GitHub repository object we care about.
// GitHub returns far more fields; we unmarshal only what the importer reads.
type Repo struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"` // "owner/name"
	Description string    `json:"description"`
	HTMLURL     string    `json:"html_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	PushedAt    time.Time `json:"pushed_at"`
	Language    string    `json:"language"` // primary language, may be empty
	Topics      []string  `json:"topics"`
	Archived    bool      `json:"archived"`
	Private     bool      `json:"private"`
}

// Client talks to the GitHub REST API with a user's stored OAuth token.
//
// One Client per request is fine — it holds no connections of its own, just
// the token and the base URL. Tests swap BaseURL for an httptest server.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client authenticated with the given access token.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
	}
}

// NewClientWithBaseURL is NewClient pointed at a different API root.
// Used by tests to target an httptest.Server.
func NewClientWithBaseURL(token, baseURL string) *Client {
	c := NewClient(token)
	c.baseURL = baseURL
	return c
}

// get performs an authenticated GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("github: building request for %s: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github: calling %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github: %s returned status %d", endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("github: decoding %s response: %w", endpoint, err)
	}
	return nil
}

// errNotFound marks a 404 from the contents API — "this repo doesn't have
// that file", which the manifest probing treats as a normal answer.
var errNotFound = fmt.Errorf("github: not found")

// ListUserRepos returns the authenticated user's repositories, most recently
// updated first. A single page of 100 covers the realistic case; the original
// app never paginated either.
func (c *Client) ListUserRepos(ctx context.Context) ([]Repo, error) {
	var repos []Repo
	if err := c.get(ctx, "/user/repos?per_page=100&sort=updated", &repos); err != nil {
		return nil, err
	}
	// GitHub omits "topics" for some repos; normalize nil to empty so
	// downstream range loops and JSON output behave.
	for i := range repos {
		if repos[i].Topics == nil {
			repos[i].Topics = []string{}
		}
	}
	return repos, nil
}

// contentResponse is the shape of GET /repos/{owner}/{repo}/contents/{path}
// for a file: the bytes arrive base64-encoded.
type contentResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// FileContent fetches one file from a repository and returns its decoded
// bytes. Returns (nil, false) when the file doesn't exist — absence is an
// answer, not an error. Real upstream failures also come back as (nil, false):
// the import heuristic treats "couldn't read the manifest" the same as "no
// manifest", per the original's tolerant probing.
func (c *Client) FileContent(ctx context.Context, owner, repo, path string) ([]byte, bool) {
	var cr contentResponse
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, path)
	if err := c.get(ctx, endpoint, &cr); err != nil {
		return nil, false
	}

	// The contents API base64-encodes file bodies, with embedded newlines.
	decoded, err := base64.StdEncoding.DecodeString(stripNewlines(cr.Content))
	if err != nil {
		return nil, false
	}
	return decoded, true
}

func stripNewlines(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\n' && s[i] != '\r' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

// FetchManifests probes a repository for the manifest files the tech-stack
// detector understands. Every probe tolerates absence; a repo with none of
// them simply yields an empty Manifests.
func (c *Client) FetchManifests(ctx context.Context, owner, repo string) Manifests {
	var m Manifests
	m.PackageJSON, _ = c.FileContent(ctx, owner, repo, "package.json")
	m.RequirementsTxt, _ = c.FileContent(ctx, owner, repo, "requirements.txt")
	_, m.HasGoMod = c.FileContent(ctx, owner, repo, "go.mod")
	_, m.HasCargoToml = c.FileContent(ctx, owner, repo, "Cargo.toml")
	return m
}
