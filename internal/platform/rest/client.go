package rest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxErrorBody bounds how much of an unexpected response is kept for logging.
const maxErrorBody = 2048

// Client wraps http.Client with base URL handling to avoid duplicating boilerplate in adapters.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration, client *http.Client) *Client {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		trimmed = "http://localhost:9200"
	}
	trimmed = strings.TrimRight(trimmed, "/")
	if client == nil {
		client = &http.Client{Timeout: TimeoutOrDefault(timeout)}
	} else if timeout > 0 {
		client.Timeout = timeout
	}
	return &Client{baseURL: trimmed, client: client}
}

// BaseURL returns the normalized base URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) NewRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	url := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	return http.NewRequestWithContext(ctx, method, url, body)
}

// NewJSONRequest builds a request that both sends and accepts application/json.
func (c *Client) NewJSONRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := c.NewRequest(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req)
}

// ReadBody drains the response body, keeping at most limit bytes.
func ReadBody(res *http.Response, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(res.Body)
	}
	return io.ReadAll(io.LimitReader(res.Body, limit))
}

// StatusError describes a response with an unexpected status code.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected response %d", e.Status)
	}
	return fmt.Sprintf("unexpected response %d: %s", e.Status, e.Body)
}

// UnexpectedStatus logs and returns a StatusError carrying a bounded excerpt of the body.
func UnexpectedStatus(res *http.Response, operation string) error {
	body, _ := ReadBody(res, maxErrorBody)
	trimmed := strings.TrimSpace(string(body))
	slog.Error(operation+" unexpected status", slog.Int("status", res.StatusCode), slog.String("url", res.Request.URL.String()), slog.String("body", trimmed))
	return &StatusError{Status: res.StatusCode, Body: trimmed}
}

func TimeoutOrDefault(value time.Duration) time.Duration {
	if value <= 0 {
		return 10 * time.Second
	}
	return value
}
