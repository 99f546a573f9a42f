package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"metagraphOps/internal/modules/transactions/application/port"
	"metagraphOps/internal/modules/transactions/domain"
	"metagraphOps/internal/platform/rest"
	"metagraphOps/internal/shared/normalization"
)

// DataHTTPClient posts signed envelopes to a metagraph L1 /data endpoint.
type DataHTTPClient struct {
	rest    *rest.Client
	timeout time.Duration
}

func NewDataHTTPClient(baseURL string, timeout time.Duration, client *http.Client) *DataHTTPClient {
	return &DataHTTPClient{rest: rest.NewClient(baseURL, timeout, client), timeout: rest.TimeoutOrDefault(timeout)}
}

func (c *DataHTTPClient) Submit(ctx context.Context, envelope domain.SignedEnvelope) (*port.SubmitResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	req, err := c.rest.NewJSONRequest(ctx, http.MethodPost, "/data", bytes.NewReader(payload))
	if err != nil {
		slog.Error("data request build failed", slog.Any("error", err))
		return nil, err
	}

	res, err := c.rest.Do(req)
	if err != nil {
		return nil, fmt.Errorf("data request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := rest.ReadBody(res, 0)
	if err != nil {
		return nil, fmt.Errorf("read data response: %w", err)
	}
	result := &port.SubmitResult{Body: strings.TrimSpace(string(body))}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		slog.Error("data update unexpected status", slog.Int("status", res.StatusCode), slog.String("body", result.Body))
		return result, fmt.Errorf("%w: %w", port.ErrSubmissionRejected, &rest.StatusError{Status: res.StatusCode, Body: result.Body})
	}

	result.Hash = parseHash(body)
	return result, nil
}

// parseHash extracts the "hash" member of a response; anything else yields "".
func parseHash(body []byte) string {
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ""
	}
	return normalization.AsString(decoded["hash"])
}

var _ port.DataSubmitter = (*DataHTTPClient)(nil)
