// Package download fetches remote content into memory.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cavaliergopher/grab/v3"
	"go.uber.org/zap"
)

// UserAgent is sent with every request.
const UserAgent = "MultiGameInc-Launcher"

var (
	ErrNotFound         = errors.New("resource not found")
	ErrBadStatus        = errors.New("unexpected HTTP status")
	ErrTransport        = errors.New("transport failure")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// Credentials authenticate requests against the repository host.
type Credentials struct {
	Token string
}

// Progress is reported while a body is being received. TotalBytes is -1
// when the server did not announce a length.
type Progress struct {
	ReceivedBytes int64
	TotalBytes    int64
}

// Indeterminate reports whether the total length is unknown.
func (p Progress) Indeterminate() bool {
	return p.TotalBytes < 0
}

// ProgressFunc is called during download with progress info
type ProgressFunc func(Progress)

// Fetcher retrieves a URL fully into memory. The first attempt streams through
// grab with periodic progress; one buffered attempt is made when it fails
// with anything other than a 404.
type Fetcher struct {
	client *grab.Client
	http   *http.Client
	log    *zap.Logger
	tick   time.Duration
}

func NewFetcher(httpClient *http.Client, log *zap.Logger) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	if log == nil {
		log = zap.NewNop()
	}
	client := grab.NewClient()
	client.HTTPClient = httpClient
	client.UserAgent = UserAgent
	return &Fetcher{
		client: client,
		http:   httpClient,
		log:    log.With(zap.String("component", "fetcher")),
		tick:   100 * time.Millisecond,
	}
}

// Fetch returns the body of url. 404 fails immediately with ErrNotFound.
// Any other status retries once in buffered mode and returns that attempt's
// error. A transport failure retries once in buffered mode; if that fails too
// the original error is returned wrapped in ErrTransport.
func (f *Fetcher) Fetch(ctx context.Context, url string, creds *Credentials, onProgress ProgressFunc) ([]byte, error) {
	data, err := f.stream(ctx, url, creds, onProgress)
	if err == nil {
		return data, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var status grab.StatusCodeError
	if errors.As(err, &status) {
		if int(status) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
		}
		f.log.Debug("streaming fetch returned bad status, retrying buffered", zap.String("url", url), zap.Int("status", int(status)))
		return f.buffered(ctx, url, creds, onProgress)
	}

	f.log.Debug("streaming fetch failed, retrying buffered", zap.String("url", url), zap.Error(err))
	data, berr := f.buffered(ctx, url, creds, onProgress)
	if berr != nil {
		f.log.Debug("buffered retry failed", zap.String("url", url), zap.Error(berr))
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, url, err)
	}
	return data, nil
}

func (f *Fetcher) stream(ctx context.Context, url string, creds *Credentials, onProgress ProgressFunc) ([]byte, error) {
	// NoStore keeps the body in memory; the name only satisfies request validation.
	req, err := grab.NewRequest(filepath.Join(os.TempDir(), "launcher-fetch"), url)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.NoStore = true
	req.NoResume = true
	if creds != nil && creds.Token != "" {
		req.HTTPRequest.Header.Set("Authorization", "token "+creds.Token)
	}
	req = req.WithContext(ctx)

	resp := f.client.Do(req)

	ticker := time.NewTicker(f.tick)
	defer ticker.Stop()

	var last int64 = -1
	report := func() {
		if onProgress == nil {
			return
		}
		n := resp.BytesComplete()
		if n != last {
			onProgress(Progress{ReceivedBytes: n, TotalBytes: resp.Size()})
			last = n
		}
	}

	for done := false; !done; {
		select {
		case <-ticker.C:
			report()
		case <-resp.Done:
			done = true
		}
	}

	if err := resp.Err(); err != nil {
		return nil, err
	}
	report()
	return resp.Bytes()
}

func (f *Fetcher) buffered(ctx context.Context, url string, creds *Credentials, onProgress ProgressFunc) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	if creds != nil && creds.Token != "" {
		req.Header.Set("Authorization", "token "+creds.Token)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: HTTP %d", ErrBadStatus, url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, url, err)
	}
	if onProgress != nil {
		onProgress(Progress{ReceivedBytes: int64(len(data)), TotalBytes: int64(len(data))})
	}
	return data, nil
}

// Verify compares data against a hex encoded SHA-256 digest (case-insensitive).
func Verify(data []byte, want string) error {
	got := Checksum(data)
	if !strings.EqualFold(got, strings.TrimSpace(want)) {
		return fmt.Errorf("%w: got %s, want %s", ErrChecksumMismatch, got, want)
	}
	return nil
}

// Checksum returns the hex encoded SHA-256 digest of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
