package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClientNormalizesBaseURL(t *testing.T) {
	t.Parallel()

	client := NewClient(" http://node:9400/// ", 0, nil)
	if client.BaseURL() != "http://node:9400" {
		t.Fatalf("unexpected base url: %s", client.BaseURL())
	}

	req, err := client.NewJSONRequest(context.Background(), http.MethodGet, "/snapshots/4", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.URL.String() != "http://node:9400/snapshots/4" {
		t.Fatalf("unexpected url: %s", req.URL.String())
	}
	if req.Header.Get("Accept") != "application/json" || req.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected headers: %v", req.Header)
	}
}

func TestTimeoutOrDefault(t *testing.T) {
	if got := TimeoutOrDefault(0); got != 10*time.Second {
		t.Fatalf("unexpected default: %v", got)
	}
	if got := TimeoutOrDefault(time.Second); got != time.Second {
		t.Fatalf("unexpected override: %v", got)
	}
}

func TestUnexpectedStatusCarriesBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("  upstream down \n"))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil)
	req, err := client.NewRequest(context.Background(), http.MethodGet, "anything", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer res.Body.Close()

	err = UnexpectedStatus(res, "test")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T", err)
	}
	if statusErr.Status != http.StatusBadGateway || statusErr.Body != "upstream down" {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
}
