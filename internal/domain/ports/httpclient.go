package ports

import (
	"context"
	"net/http"
	"time"
)

// HTTPClient abstracts outbound HTTP for testability
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClientConfig holds configuration for HTTP client
type HTTPClientConfig struct {
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	UserAgent  string
}

// RealHTTPClient implements HTTPClient with net/http and retries transport errors
type RealHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

// NewRealHTTPClient creates a new real HTTP client implementation
func NewRealHTTPClient(config HTTPClientConfig) HTTPClient {
	return &RealHTTPClient{
		client: &http.Client{Timeout: config.Timeout},
		config: config,
	}
}

// Do executes an HTTP request. Transport errors are retried MaxRetries times;
// the wait between attempts is cut short by the request context.
func (c *RealHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.config.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	ctx := req.Context()
	var resp *http.Response
	var err error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		resp, err = c.client.Do(req)
		if err == nil {
			return resp, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt < c.config.MaxRetries && c.config.RetryDelay > 0 {
			if werr := wait(ctx, c.config.RetryDelay); werr != nil {
				return nil, werr
			}
		}
	}

	return resp, err
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
