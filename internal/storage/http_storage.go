package storage

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"
)

const maxAttempts = 3

// HTTPModelSource downloads a model artifact over HTTP(S)
type HTTPModelSource struct {
	url     string
	client  *http.Client
	backoff time.Duration
}

// NewHTTPModelSource creates a source for url. Failed attempts back off linearly from one second.
func NewHTTPModelSource(url string) *HTTPModelSource {
	transport := &http.Transport{
		MaxIdleConns:           2,
		MaxIdleConnsPerHost:    1,
		IdleConnTimeout:        30 * time.Second,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  30 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPModelSource{
		url: url,
		client: &http.Client{
			Transport: transport,
			// Model files are large; the caller's context bounds the whole download
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		backoff: time.Second,
	}
}

// WithBackoff overrides the base retry delay
func (h *HTTPModelSource) WithBackoff(d time.Duration) *HTTPModelSource {
	h.backoff = d
	return h
}

func (h *HTTPModelSource) Fetch(ctx context.Context, dest string) error {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		retryable, err := h.fetchOnce(ctx, dest)
		if err == nil {
			return nil
		}
		lastErr = err

		// 4xx and local write failures are not retried
		if !retryable {
			break
		}

		if attempt < maxAttempts-1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("model download cancelled: %w", ctx.Err())
			case <-time.After(time.Duration(attempt+1) * h.backoff):
			}
		}
	}

	return fmt.Errorf("failed to fetch model after %d attempts: %w", maxAttempts, lastErr)
}

func (h *HTTPModelSource) fetchOnce(ctx context.Context, dest string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return false, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "application/octet-stream, */*")
	req.Header.Set("User-Agent", "go-hallnav/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return false, fmt.Errorf("client error: status code %d", resp.StatusCode)
	default:
		return true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	}

	if err := writeAtomically(dest, resp.Body); err != nil {
		return false, err
	}
	return false, nil
}

// FileModelSource expects the model to already be on disk
type FileModelSource struct{}

func (FileModelSource) Fetch(ctx context.Context, dest string) error {
	if _, err := os.Stat(dest); err != nil {
		return fmt.Errorf("model not found: %w", err)
	}
	return nil
}
