package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/multigameinc/launcher/internal/download"
	"go.uber.org/zap"
)

// Entry is a file inside a repository directory.
type Entry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url"`
}

// Lister enumerates repository directories through the contents API.
type Lister struct {
	apiBase    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewLister(apiBase string, httpClient *http.Client, log *zap.Logger) *Lister {
	if apiBase == "" {
		apiBase = DefaultEndpoints.API
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Lister{
		apiBase:    strings.TrimRight(apiBase, "/"),
		httpClient: httpClient,
		log:        log.With(zap.String("component", "lister")),
	}
}

// ListFiles returns the plain files directly under dirPath at ref, or at the
// repository's default branch when ref is empty. Any failure (missing
// directory, rate limiting, bad JSON, transport) yields an empty list; the
// reason is only logged.
func (l *Lister) ListFiles(ctx context.Context, owner, repo, ref, dirPath string, creds *download.Credentials) []Entry {
	entries, err := l.list(ctx, owner, repo, ref, dirPath, creds)
	if err != nil {
		l.log.Debug("directory listing unavailable", zap.String("repo", owner+"/"+repo), zap.String("ref", ref), zap.String("dir", dirPath), zap.Error(err))
		return []Entry{}
	}
	return entries
}

func (l *Lister) list(ctx context.Context, owner, repo, ref, dirPath string, creds *download.Credentials) ([]Entry, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s", l.apiBase, url.PathEscape(owner), url.PathEscape(repo), strings.Trim(dirPath, "/"))
	if ref != "" {
		u += "?" + url.Values{"ref": {ref}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", download.UserAgent)
	if creds != nil && creds.Token != "" {
		req.Header.Set("Authorization", "token "+creds.Token)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to list directory: HTTP %d", resp.StatusCode)
	}

	var all []Entry
	if err := json.NewDecoder(resp.Body).Decode(&all); err != nil {
		return nil, fmt.Errorf("failed to parse directory listing: %w", err)
	}

	files := make([]Entry, 0, len(all))
	for _, e := range all {
		if e.Type == "file" {
			files = append(files, e)
		}
	}
	return files, nil
}
