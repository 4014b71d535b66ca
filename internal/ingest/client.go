package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &http.Client{Timeout: timeout}
}

// statusError is returned for non-2xx responses; 5xx is worth retrying.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string { return fmt.Sprintf("non-2xx: %d body=%s", e.code, e.body) }

func (e *statusError) retryable() bool { return e.code >= 500 || e.code == http.StatusTooManyRequests }

func getBody(ctx context.Context, c HTTPClient, url string) ([]byte, error) {
	if url == "" {
		return nil, errors.New("empty url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &statusError{code: resp.StatusCode, body: string(b)}
	}
	return io.ReadAll(resp.Body)
}
