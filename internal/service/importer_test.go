package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sidequesthq/sidequesthq/internal/apperror"
	"github.com/sidequesthq/sidequesthq/internal/github"
	"github.com/sidequesthq/sidequesthq/internal/model"
)

// =========================================================================
// FAKE REPO BROWSER
// =========================================================================
//
// fakeBrowser stands in for the GitHub API: a canned repo list and a map of
// per-repo manifests. No network, no token, full control over what "GitHub"
// says.

type fakeBrowser struct {
	repos     []github.Repo
	manifests map[string]github.Manifests // keyed by "owner/name"
	listErr   error
}

func (f *fakeBrowser) ListUserRepos(_ context.Context) ([]github.Repo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.repos, nil
}

func (f *fakeBrowser) FetchManifests(_ context.Context, owner, repo string) github.Manifests {
	return f.manifests[owner+"/"+repo]
}

// =========================================================================
// TEST HELPERS
// =========================================================================

// importNow is the pinned clock for all importer tests.
var importNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestImportService(t *testing.T, browser *fakeBrowser) (*ImportService, *mockProjectRepo, *mockUserRepo) {
	t.Helper()
	projects := newMockProjectRepo()
	users := newMockUserRepo()
	users.add(&model.UserProfile{
		ID:                "user-1",
		GitHubID:          42,
		Username:          "ada",
		GitHubAccessToken: "gho_token",
	})

	svc := NewImportService(projects, users, testLogger())
	svc.now = func() time.Time { return importNow }
	svc.newClient = func(token string) RepoBrowser {
		if token != "gho_token" {
			t.Errorf("newClient got token %q, want the user's stored token", token)
		}
		return browser
	}
	return svc, projects, users
}

func testRepo(id int64, name string) github.Repo {
	return github.Repo{
		ID:          id,
		Name:        name,
		FullName:    "ada/" + name,
		Description: "",
		HTMLURL:     "https://github.com/ada/" + name,
		CreatedAt:   importNow.AddDate(-1, 0, 0),
		PushedAt:    importNow.AddDate(0, -1, 0), // pushed last month: not stale
		Language:    "Go",
		Topics:      []string{},
	}
}

// =========================================================================
// LIST REPOS TESTS
// =========================================================================

func TestListRepos_Success(t *testing.T) {
	browser := &fakeBrowser{repos: []github.Repo{testRepo(1, "alpha"), testRepo(2, "beta")}}
	svc, _, _ := newTestImportService(t, browser)

	repos, err := svc.ListRepos(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListRepos() error = %v", err)
	}
	if len(repos) != 2 {
		t.Errorf("got %d repos, want 2", len(repos))
	}
}

func TestListRepos_NoToken(t *testing.T) {
	svc, _, users := newTestImportService(t, &fakeBrowser{})
	users.add(&model.UserProfile{ID: "user-2", GitHubID: 43, Username: "bob"})

	_, err := svc.ListRepos(context.Background(), "user-2")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestListRepos_UpstreamFailure(t *testing.T) {
	browser := &fakeBrowser{listErr: errors.New("github is down")}
	svc, _, _ := newTestImportService(t, browser)

	_, err := svc.ListRepos(context.Background(), "user-1")
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Errorf("error = %v, want ErrUpstream", err)
	}
}

func TestListRepos_UnknownUser(t *testing.T) {
	svc, _, _ := newTestImportService(t, &fakeBrowser{})

	_, err := svc.ListRepos(context.Background(), "ghost")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// IMPORT TESTS
// =========================================================================

func TestImport_BasicMapping(t *testing.T) {
	repo := testRepo(1, "My Side Quest")
	repo.Description = "an experiment"
	repo.Topics = []string{"cli", "productivity"}
	browser := &fakeBrowser{
		repos: []github.Repo{repo},
		manifests: map[string]github.Manifests{
			"ada/My Side Quest": {HasGoMod: true},
		},
	}
	svc, _, _ := newTestImportService(t, browser)

	result, err := svc.Import(context.Background(), "user-1", ImportRequest{
		RepoIDs:    []int64{1},
		MakePublic: true,
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.Imported != 1 {
		t.Fatalf("Imported = %d, want 1", result.Imported)
	}

	p := result.Projects[0]
	if p.Name != "My Side Quest" {
		t.Errorf("Name = %q", p.Name)
	}
	if p.Slug != "my-side-quest" {
		t.Errorf("Slug = %q, want %q", p.Slug, "my-side-quest")
	}
	if p.Description != "an experiment" {
		t.Errorf("Description = %q", p.Description)
	}
	if !p.IsFromGitHub || p.GitHubRepoID == nil || *p.GitHubRepoID != 1 {
		t.Errorf("GitHub provenance not recorded: from=%v repoID=%v", p.IsFromGitHub, p.GitHubRepoID)
	}
	if !p.IsPublic {
		t.Error("IsPublic should follow MakePublic")
	}
	if p.Status != model.StatusActive {
		t.Errorf("Status = %q, want active", p.Status)
	}
	if p.StartedDate == nil || !p.StartedDate.Equal(repo.CreatedAt) {
		t.Errorf("StartedDate = %v, want repo created_at", p.StartedDate)
	}
	if p.LastWorkedDate == nil || !p.LastWorkedDate.Equal(repo.PushedAt) {
		t.Errorf("LastWorkedDate = %v, want repo pushed_at", p.LastWorkedDate)
	}
	if p.ProgressPercentage != 50 {
		t.Errorf("progress = %d, want 50 for non-archived", p.ProgressPercentage)
	}
	// Language first, then manifest/topic signals.
	if len(p.TechStack) == 0 || p.TechStack[0] != "Go" {
		t.Errorf("TechStack = %v, want Go first", p.TechStack)
	}
}

func TestImport_EmptyDescriptionGetsPlaceholder(t *testing.T) {
	browser := &fakeBrowser{repos: []github.Repo{testRepo(1, "untitled")}}
	svc, _, _ := newTestImportService(t, browser)

	result, err := svc.Import(context.Background(), "user-1", ImportRequest{RepoIDs: []int64{1}})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	want := "Imported from GitHub: untitled"
	if result.Projects[0].Description != want {
		t.Errorf("Description = %q, want %q", result.Projects[0].Description, want)
	}
}

func TestImport_ArchivedBecomesAbandoned(t *testing.T) {
	repo := testRepo(1, "relic")
	repo.Archived = true
	browser := &fakeBrowser{repos: []github.Repo{repo}}
	svc, _, _ := newTestImportService(t, browser)

	result, err := svc.Import(context.Background(), "user-1", ImportRequest{RepoIDs: []int64{1}})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	p := result.Projects[0]
	if p.Status != model.StatusAbandoned {
		t.Errorf("Status = %q, want abandoned", p.Status)
	}
	if p.AbandonedDate == nil || !p.AbandonedDate.Equal(repo.PushedAt) {
		t.Errorf("AbandonedDate = %v, want pushed_at", p.AbandonedDate)
	}
	if p.ProgressPercentage != 0 {
		t.Errorf("progress = %d, want 0 for archived", p.ProgressPercentage)
	}
}

func TestImport_StaleRepoBecomesPaused(t *testing.T) {
	repo := testRepo(1, "dusty")
	repo.PushedAt = importNow.AddDate(0, -7, 0) // 7 months: past the 6-month line
	browser := &fakeBrowser{repos: []github.Repo{repo}}
	svc, _, _ := newTestImportService(t, browser)

	result, err := svc.Import(context.Background(), "user-1", ImportRequest{RepoIDs: []int64{1}})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if got := result.Projects[0].Status; got != model.StatusPaused {
		t.Errorf("Status = %q, want paused", got)
	}
}

// TestImport_StaleOnlyDowngradesActive: the staleness rule exists to soften
// the DEFAULT; an explicit non-active choice is respected as-is.
func TestImport_StaleOnlyDowngradesActive(t *testing.T) {
	repo := testRepo(1, "dusty")
	repo.PushedAt = importNow.AddDate(0, -7, 0)
	browser := &fakeBrowser{repos: []github.Repo{repo}}
	svc, _, _ := newTestImportService(t, browser)

	result, err := svc.Import(context.Background(), "user-1", ImportRequest{
		RepoIDs:       []int64{1},
		DefaultStatus: model.StatusShipped,
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if got := result.Projects[0].Status; got != model.StatusShipped {
		t.Errorf("Status = %q, want shipped (explicit default wins over staleness)", got)
	}
}

func TestImport_PartialSuccess(t *testing.T) {
	browser := &fakeBrowser{repos: []github.Repo{
		testRepo(1, "one"),
		testRepo(2, "two"),
		testRepo(3, "three"),
	}}
	svc, _, _ := newTestImportService(t, browser)

	// Repo 99 isn't in the account; 1..3 are fine.
	result, err := svc.Import(context.Background(), "user-1", ImportRequest{
		RepoIDs: []int64{1, 99, 2, 3},
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if result.Imported != 3 {
		t.Errorf("Imported = %d, want 3", result.Imported)
	}
	if len(result.Results) != 4 {
		t.Fatalf("Results size = %d, want one entry per selection", len(result.Results))
	}

	var failures int
	for _, r := range result.Results {
		if r.Err != nil {
			failures++
			if r.RepoID != 99 {
				t.Errorf("unexpected failure for repo %d: %v", r.RepoID, r.Err)
			}
		}
	}
	if failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}
}

func TestImport_OneFailedWriteOutOfFive(t *testing.T) {
	browser := &fakeBrowser{repos: []github.Repo{
		testRepo(1, "one"),
		testRepo(2, "two"),
		testRepo(3, "three"),
		testRepo(4, "four"),
		testRepo(5, "five"),
	}}
	svc, projects, _ := newTestImportService(t, browser)

	// Only repo 3's insert breaks; the other four must land.
	projects.failCreateFor = map[int64]error{3: errors.New("disk full")}

	result, err := svc.Import(context.Background(), "user-1", ImportRequest{
		RepoIDs: []int64{1, 2, 3, 4, 5},
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if result.Imported != 4 {
		t.Errorf("Imported = %d, want 4", result.Imported)
	}
	if len(result.Projects) != 4 {
		t.Errorf("Projects size = %d, want 4", len(result.Projects))
	}
	if len(result.Results) != 5 {
		t.Fatalf("Results size = %d, want one entry per selection", len(result.Results))
	}
	for _, r := range result.Results {
		if (r.Err != nil) != (r.RepoID == 3) {
			t.Errorf("repo %d: Err = %v", r.RepoID, r.Err)
		}
	}
}

func TestImport_DuplicateSelectionImportsOnce(t *testing.T) {
	browser := &fakeBrowser{repos: []github.Repo{testRepo(1, "one"), testRepo(2, "two")}}
	svc, projects, _ := newTestImportService(t, browser)

	result, err := svc.Import(context.Background(), "user-1", ImportRequest{
		RepoIDs: []int64{1, 2, 1, 1},
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if result.Imported != 2 {
		t.Errorf("Imported = %d, want 2", result.Imported)
	}
	if len(projects.projects) != 2 {
		t.Errorf("stored %d projects, want 2 — duplicates must not create extra rows", len(projects.projects))
	}
	if len(result.Results) != 2 {
		t.Errorf("Results size = %d, want one entry per distinct repo", len(result.Results))
	}
}

func TestImport_RepoSaveFailureDoesNotAbort(t *testing.T) {
	browser := &fakeBrowser{repos: []github.Repo{testRepo(1, "one"), testRepo(2, "two")}}
	svc, projects, _ := newTestImportService(t, browser)

	projects.failWith = errors.New("disk full")

	result, err := svc.Import(context.Background(), "user-1", ImportRequest{RepoIDs: []int64{1, 2}})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.Imported != 0 {
		t.Errorf("Imported = %d, want 0 when every save fails", result.Imported)
	}
	for _, r := range result.Results {
		if r.Err == nil {
			t.Errorf("repo %d: expected a recorded failure", r.RepoID)
		}
	}
}

func TestImport_NoSelection(t *testing.T) {
	svc, _, _ := newTestImportService(t, &fakeBrowser{})

	_, err := svc.Import(context.Background(), "user-1", ImportRequest{})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestImport_InvalidDefaultStatus(t *testing.T) {
	svc, _, _ := newTestImportService(t, &fakeBrowser{})

	_, err := svc.Import(context.Background(), "user-1", ImportRequest{
		RepoIDs:       []int64{1},
		DefaultStatus: "zombie",
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}
