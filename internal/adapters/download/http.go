// Package download provides HTTP adapters for fetching installer resources.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/felixgeelhaar/wslkit/internal/ports"
)

// maxBodySize caps downloaded installer scripts.
const maxBodySize = 16 << 20

// ErrTooLarge is returned for bodies over the size cap. A truncated
// script must never reach a shell.
var ErrTooLarge = errors.New("response body too large")

// HTTPDownloader fetches resources over HTTP(S).
type HTTPDownloader struct {
	client *http.Client
	limit  int64
}

// NewHTTPDownloader creates a downloader with the given request timeout.
func NewHTTPDownloader(timeout time.Duration) *HTTPDownloader {
	return &HTTPDownloader{client: &http.Client{Timeout: timeout}, limit: maxBodySize}
}

// WithClient returns a downloader backed by a custom client.
func (d *HTTPDownloader) WithClient(client *http.Client) *HTTPDownloader {
	return &HTTPDownloader{client: client, limit: d.limit}
}

// Fetch downloads url and returns the body.
// Network errors and 5xx/429 responses are reported as transient.
func (d *HTTPDownloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &ports.TransientError{Err: fmt.Errorf("fetch %s: %w", url, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return nil, &ports.TransientError{Err: fmt.Errorf("fetch %s: %s", url, resp.Status)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.limit+1))
	if err != nil {
		return nil, &ports.TransientError{Err: fmt.Errorf("read %s: %w", url, err)}
	}
	if int64(len(data)) > d.limit {
		return nil, fmt.Errorf("fetch %s: %w (limit %d bytes)", url, ErrTooLarge, d.limit)
	}
	return data, nil
}

// Ensure HTTPDownloader implements ports.Downloader.
var _ ports.Downloader = (*HTTPDownloader)(nil)
