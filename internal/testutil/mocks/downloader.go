package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/wslkit/internal/ports"
)

// Downloader is a test double for ports.Downloader.
// Queued errors for a URL are returned before its body.
type Downloader struct {
	mu     sync.Mutex
	bodies map[string][]byte
	errs   map[string][]error
	calls  []string
}

// NewDownloader creates a new Downloader mock.
func NewDownloader() *Downloader {
	return &Downloader{
		bodies: make(map[string][]byte),
		errs:   make(map[string][]error),
	}
}

// AddBody registers the body served for url.
func (d *Downloader) AddBody(url, body string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bodies[url] = []byte(body)
}

// QueueError makes the next fetch of url fail with err.
func (d *Downloader) QueueError(url string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errs[url] = append(d.errs[url], err)
}

// Fetch returns the queued error or registered body for url.
func (d *Downloader) Fetch(_ context.Context, url string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, url)

	if queued := d.errs[url]; len(queued) > 0 {
		d.errs[url] = queued[1:]
		return nil, queued[0]
	}
	if body, ok := d.bodies[url]; ok {
		return body, nil
	}
	return nil, fmt.Errorf("no mock body for %s", url)
}

// Calls returns the fetched URLs in order.
func (d *Downloader) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	copy(out, d.calls)
	return out
}

// Ensure Downloader implements ports.Downloader.
var _ ports.Downloader = (*Downloader)(nil)
