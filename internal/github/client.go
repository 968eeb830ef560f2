package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Endpoints are the hosts the client talks to. Tests point them at httptest servers.
type Endpoints struct {
	API string
	Raw string
	Web string
}

// DefaultEndpoints are the public GitHub hosts.
var DefaultEndpoints = Endpoints{
	API: "https://api.github.com",
	Raw: "https://raw.githubusercontent.com",
	Web: "https://github.com",
}

// Commit represents a GitHub commit
type Commit struct {
	SHA    string      `json:"sha"`
	Commit CommitInner `json:"commit"`
}

// CommitInner represents the commit details
type CommitInner struct {
	Author  CommitAuthor `json:"author"`
	Message string       `json:"message"`
}

// CommitAuthor represents commit author information
type CommitAuthor struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

// Client builds URLs for, and queries, a single repository.
type Client struct {
	owner      string
	repo       string
	endpoints  Endpoints
	httpClient *http.Client
}

// NewClient creates a new GitHub API client
func NewClient(owner, repo string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	return &Client{
		owner:      owner,
		repo:       repo,
		endpoints:  DefaultEndpoints,
		httpClient: httpClient,
	}
}

// SetEndpoints overrides the hosts used by the client. Empty fields keep their value.
func (c *Client) SetEndpoints(e Endpoints) {
	if e.API != "" {
		c.endpoints.API = strings.TrimRight(e.API, "/")
	}
	if e.Raw != "" {
		c.endpoints.Raw = strings.TrimRight(e.Raw, "/")
	}
	if e.Web != "" {
		c.endpoints.Web = strings.TrimRight(e.Web, "/")
	}
}

func (c *Client) Owner() string { return c.owner }
func (c *Client) Repo() string  { return c.repo }

// RawURL returns the raw URL for a file at a given ref
func (c *Client) RawURL(ref, path string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", c.endpoints.Raw, c.owner, c.repo, ref, strings.TrimLeft(path, "/"))
}

// RawBase returns the raw URL of the repository root at ref.
func (c *Client) RawBase(ref string) string {
	return fmt.Sprintf("%s/%s/%s/%s/", c.endpoints.Raw, c.owner, c.repo, ref)
}

// ArchiveURL returns the zip snapshot of a branch.
func (c *Client) ArchiveURL(branch string) string {
	return fmt.Sprintf("%s/%s/%s/archive/refs/heads/%s.zip", c.endpoints.Web, c.owner, c.repo, branch)
}

// ReleaseAssetURLs returns download URLs for each asset name under both the
// "v"-prefixed and the bare release tag. Asset names may contain {repo} and
// {version} placeholders.
func (c *Client) ReleaseAssetURLs(version string, assetNames []string) []string {
	version = strings.TrimPrefix(version, "v")
	var urls []string
	for _, tag := range []string{"v" + version, version} {
		for _, name := range assetNames {
			name = strings.NewReplacer("{repo}", c.repo, "{version}", version).Replace(name)
			urls = append(urls, fmt.Sprintf("%s/%s/%s/releases/download/%s/%s", c.endpoints.Web, c.owner, c.repo, tag, name))
		}
	}
	return urls
}

// LatestCommit fetches the latest commit for a given ref
func (c *Client) LatestCommit(ctx context.Context, ref string) (*Commit, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/commits/%s", c.endpoints.API, c.owner, c.repo, ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch commit: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch commit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch commit: HTTP %d", resp.StatusCode)
	}

	var commit Commit
	if err := json.NewDecoder(resp.Body).Decode(&commit); err != nil {
		return nil, fmt.Errorf("failed to parse commit: %w", err)
	}

	return &commit, nil
}
