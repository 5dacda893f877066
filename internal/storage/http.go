package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"storefront-e2e/internal/retry"
	"strings"
	"time"
)

type httpStorage struct {
	client  *http.Client
	baseURL *url.URL
}

type HTTPConfig struct {
	// BaseURL is the prefix baseline keys are resolved against.
	BaseURL string
	// Client defaults to NewRetryClient.
	Client *http.Client
}

// NewHTTPStorage fetches baselines from a static file host. It cannot write.
func NewHTTPStorage(ctx context.Context, h HTTPConfig) (Storage, error) {
	if h.BaseURL == "" {
		return nil, errors.New("baseline URL is not specified")
	}
	u, err := url.Parse(strings.TrimSuffix(h.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("failed to parse baseline URL: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("baseline URL must be absolute: %s", h.BaseURL)
	}

	client := h.Client
	if client == nil {
		client = NewRetryClient()
	}

	return &httpStorage{
		client:  client,
		baseURL: u,
	}, nil
}

// NewRetryClient retries gateway errors, rate limiting and connect failures
// with jittered exponential back-off.
func NewRetryClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &retry.Transport{
			Base:          http.DefaultTransport,
			RetryStrategy: retry.NewExponentialBackOff(100*time.Millisecond, 5*time.Second, 3, retry.FullJitter),
			RetryOn:       retry.NewDefaultRetryOn(),
		},
	}
}

func (h *httpStorage) Put(ctx context.Context, key string, data []byte) (string, error) {
	return "", ErrReadOnly
}

func (h *httpStorage) Delete(ctx context.Context, key string) error {
	return ErrReadOnly
}

func (h *httpStorage) List(ctx context.Context, prefix string) ([]string, error) {
	return nil, ErrReadOnly
}

func (h *httpStorage) Get(ctx context.Context, key string) ([]byte, error) {
	ref, err := url.Parse(strings.TrimPrefix(key, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid key %q: %w", key, err)
	}
	target := h.baseURL.ResolveReference(ref)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	response, err := h.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer response.Body.Close()

	switch {
	case response.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("failed to fetch %s: %w", target, ErrNotFound)
	case response.StatusCode < 200 || response.StatusCode > 299:
		return nil, fmt.Errorf("failed to fetch %s: unexpected status %s", target, response.Status)
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}
