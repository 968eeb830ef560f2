package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"sync"
	"testing"

	"github.com/multigameinc/launcher/internal/github"
)

// MockRepoServer serves the API and web hosts of a fake repository under /api
// and /web. Raw files are served from the root, like raw.githubusercontent.com,
// so manifest URLs carry repository coordinates.
type MockRepoServer struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]MockResponse
	requests  []MockRequest
	holds     map[string]chan struct{}
}

// MockResponse holds response data for a path
type MockResponse struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// MockRequest records a request made to the mock server
type MockRequest struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
}

// NewMockRepoServer starts a server that answers 404 for every path not set.
func NewMockRepoServer(t *testing.T) *MockRepoServer {
	t.Helper()

	mock := &MockRepoServer{
		responses: make(map[string]MockResponse),
		holds:     make(map[string]chan struct{}),
	}

	mock.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requests = append(mock.requests, MockRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.Query(),
			Authorization: r.Header.Get("Authorization"),
		})
		response, ok := mock.responses[r.URL.Path]
		hold := mock.holds[r.URL.Path]
		mock.mu.Unlock()

		if hold != nil {
			<-hold
		}

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "Not Found"})
			return
		}
		for key, value := range response.Headers {
			w.Header().Set(key, value)
		}
		if response.StatusCode != 0 {
			w.WriteHeader(response.StatusCode)
		}
		w.Write(response.Body)
	}))

	t.Cleanup(func() {
		mock.mu.Lock()
		for p, ch := range mock.holds {
			close(ch)
			delete(mock.holds, p)
		}
		mock.mu.Unlock()
		mock.Server.Close()
	})

	return mock
}

// Endpoints points a github.Client at the mock.
func (m *MockRepoServer) Endpoints() github.Endpoints {
	return github.Endpoints{
		API: m.URL + "/api",
		Raw: m.URL,
		Web: m.URL + "/web",
	}
}

// Repo returns a github.Client for owner/repo served by the mock.
func (m *MockRepoServer) Repo(owner, repo string) *github.Client {
	c := github.NewClient(owner, repo, m.Server.Client())
	c.SetEndpoints(m.Endpoints())
	return c
}

// RawURL is the raw download URL of a repository file.
func (m *MockRepoServer) RawURL(owner, repo, ref, file string) string {
	return m.URL + RawPath(owner, repo, ref, file)
}

// RawPath is the server path of a repository file on the raw host.
func RawPath(owner, repo, ref, file string) string {
	return path.Join("/", owner, repo, ref, file)
}

// SetRaw serves body for a raw repository file.
func (m *MockRepoServer) SetRaw(owner, repo, ref, file string, body []byte) {
	m.SetRawResponse(RawPath(owner, repo, ref, file), http.StatusOK, body, nil)
}

// SetDirectory serves a contents API listing for dir. Download URLs of the
// entries point at the raw host.
func (m *MockRepoServer) SetDirectory(owner, repo, ref, dir string, names ...string) error {
	entries := make([]github.Entry, 0, len(names))
	for _, n := range names {
		p := path.Join(dir, n)
		entries = append(entries, github.Entry{
			Name:        n,
			Path:        p,
			Type:        "file",
			DownloadURL: m.RawURL(owner, repo, ref, p),
		})
	}
	return m.SetJSONResponse(fmt.Sprintf("/api/repos/%s/%s/contents/%s", owner, repo, dir), http.StatusOK, entries)
}

// SetJSONResponse sets a JSON response with custom status code
func (m *MockRepoServer) SetJSONResponse(path string, statusCode int, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	m.SetRawResponse(path, statusCode, jsonData, map[string]string{"Content-Type": "application/json"})
	return nil
}

// SetRawResponse sets a raw response
func (m *MockRepoServer) SetRawResponse(path string, statusCode int, body []byte, headers map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[path] = MockResponse{
		StatusCode: statusCode,
		Body:       body,
		Headers:    headers,
	}
}

// Hold blocks requests for path until the returned function is called.
func (m *MockRepoServer) Hold(path string) (release func()) {
	ch := make(chan struct{})
	m.mu.Lock()
	m.holds[path] = ch
	m.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			if m.holds[path] == ch {
				delete(m.holds, path)
				close(ch)
			}
			m.mu.Unlock()
		})
	}
}

// RequestCount returns the number of requests made to a path
func (m *MockRepoServer) RequestCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, req := range m.requests {
		if req.Path == path {
			count++
		}
	}
	return count
}

// Requests returns a copy of the recorded requests.
func (m *MockRepoServer) Requests() []MockRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockRequest(nil), m.requests...)
}
