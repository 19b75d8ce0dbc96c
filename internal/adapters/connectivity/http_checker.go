package connectivity

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPChecker считает сеть доступной, если URL отвечает статусом ниже 500.
type HTTPChecker struct {
	url        string
	httpClient *http.Client
}

func NewHTTPChecker(url string, timeout time.Duration) (*HTTPChecker, error) {
	if url == "" {
		return nil, fmt.Errorf("probe url is required")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPChecker{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPChecker) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to create probe request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("probe request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}
	return nil
}
