package refresh

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxStatusBody bounds the status body; detect payloads carry a base64 image.
const maxStatusBody = 16 << 20

// Fetcher retrieves one snapshot from the status endpoint.
type Fetcher interface {
	Fetch(ctx context.Context) (Snapshot, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) (Snapshot, error)

func (f FetcherFunc) Fetch(ctx context.Context) (Snapshot, error) { return f(ctx) }

// HTTPFetcher GETs a fixed status URL.
type HTTPFetcher struct {
	url    string
	client *http.Client
}

// NewHTTPFetcher returns a fetcher for url. A zero timeout leaves requests
// bounded only by the cycle context.
func NewHTTPFetcher(url string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// URL returns the polled endpoint.
func (f *HTTPFetcher) URL() string { return f.url }

// Fetch performs a single request. Every error it returns is a *PollFailure.
func (f *HTTPFetcher) Fetch(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return Snapshot{}, networkFailure(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return Snapshot{}, networkFailure(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return Snapshot{}, statusFailure(resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(snippet)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusBody))
	if err != nil {
		return Snapshot{}, networkFailure(fmt.Errorf("read body: %w", err))
	}

	return ParseSnapshot(body)
}
