package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"metagraphOps/internal/modules/snapshots/application/port"
	"metagraphOps/internal/platform/rest"
)

// SnapshotHTTPClient implements SnapshotFetcher against a node's /snapshots/{id} endpoint.
type SnapshotHTTPClient struct {
	rest    *rest.Client
	timeout time.Duration
}

func NewSnapshotHTTPClient(baseURL string, timeout time.Duration, client *http.Client) *SnapshotHTTPClient {
	return &SnapshotHTTPClient{rest: rest.NewClient(baseURL, timeout, client), timeout: rest.TimeoutOrDefault(timeout)}
}

func (c *SnapshotHTTPClient) FetchSnapshot(ctx context.Context, snapshotID int64) (*port.SnapshotPayload, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	path := "/snapshots/" + strconv.FormatInt(snapshotID, 10)
	req, err := c.rest.NewJSONRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		slog.Error("snapshot request build failed", slog.Int64("snapshotId", snapshotID), slog.Any("error", err))
		return nil, err
	}
	slog.Debug("snapshot request", slog.String("url", req.URL.String()))

	res, err := c.rest.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot request failed: %w", err)
	}
	defer res.Body.Close()
	slog.Debug("snapshot response", slog.Int("status", res.StatusCode), slog.String("url", req.URL.String()))

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, port.ErrSnapshotNotFound
	case res.StatusCode < 200 || res.StatusCode > 299:
		return nil, rest.UnexpectedStatus(res, "snapshot fetch")
	}

	body, err := rest.ReadBody(res, 0)
	if err != nil {
		return nil, fmt.Errorf("read snapshot body: %w", err)
	}
	return decodeSnapshot(snapshotID, body)
}

var _ port.SnapshotFetcher = (*SnapshotHTTPClient)(nil)
