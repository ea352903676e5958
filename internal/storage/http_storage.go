package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ImageFetcher retrieves raw image bytes from a source URL. Decoding is left
// to the analysis pipeline so corrupt payloads surface as invalid-input
// errors there.
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) ([]byte, string, error)
}

// HTTPImageFetcher implements ImageFetcher over plain HTTP(S)
type HTTPImageFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPImageFetcher creates an HTTP image fetcher with a response size cap
func NewHTTPImageFetcher(maxBytes int64) ImageFetcher {
	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if maxBytes <= 0 {
		maxBytes = 20 * 1024 * 1024
	}

	return &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		maxBytes: maxBytes,
	}
}

// FetchImage downloads image bytes, retrying transient failures.
func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, */*")
	req.Header.Set("User-Agent", "ShadowLab/1.0")

	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		resp, err = h.client.Do(req)
		if err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(time.Duration(attempt+1) * 250 * time.Millisecond):
			}
			continue
		}
		if resp.StatusCode == http.StatusOK {
			break
		}
		lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
		status := resp.StatusCode
		resp.Body.Close()
		resp = nil
		// Client errors will not improve on retry
		if status >= 400 && status < 500 {
			break
		}
	}
	if resp == nil {
		return nil, "", fmt.Errorf("fetch failed: %w", lastErr)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > h.maxBytes {
		return nil, "", fmt.Errorf("image exceeds %d byte limit", h.maxBytes)
	}
	return data, contentType, nil
}
