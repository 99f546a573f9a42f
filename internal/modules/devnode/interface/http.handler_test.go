package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"metagraphOps/internal/modules/devnode/application/usecase"
	"metagraphOps/internal/modules/devnode/infrastructure"
	snapshotsusecase "metagraphOps/internal/modules/snapshots/application/usecase"
	snapshotsinfra "metagraphOps/internal/modules/snapshots/infrastructure"
	"metagraphOps/internal/modules/transactions/application/port"
	sequenceusecase "metagraphOps/internal/modules/transactions/application/usecase"
	transactions "metagraphOps/internal/modules/transactions/domain"
	transactionsinfra "metagraphOps/internal/modules/transactions/infrastructure"
	"metagraphOps/internal/platform/keystore"
	"metagraphOps/internal/shared/auth"
	"metagraphOps/internal/shared/events"
)

const testPrivateKey = "64ea71e28b8fb01673cf3d125809ec97181987bd65bea0bb5890bfe4a245762a"

type devnode struct {
	server *httptest.Server
	ledger *usecase.LedgerUseCase
	hub    *infrastructure.Hub
}

func startDevnode(t *testing.T, secret string) *devnode {
	t.Helper()
	hub := infrastructure.NewHub()
	ledger := usecase.NewLedgerUseCase(hub, true)
	e := echo.New()
	NewHandler(ledger, hub, auth.NewJWTValidator(secret)).Register(e)
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return &devnode{server: server, ledger: ledger, hub: hub}
}

func TestDevnodeServesSenderAndCollector(t *testing.T) {
	t.Parallel()

	node := startDevnode(t, "")
	ctx := context.Background()

	signer, err := keystore.FromPrivateKeyHex(testPrivateKey)
	if err != nil {
		t.Fatalf("load key: %v", err)
	}
	sequence := sequenceusecase.NewSequenceUseCase(
		signer,
		transactionsinfra.NewDataHTTPClient(node.server.URL, time.Second, nil),
		transactionsinfra.NewSnapshotPacer(node.server.URL, time.Second, nil, transactionsinfra.StageDelays{
			port.StageChannelCreated: 200 * time.Millisecond,
			port.StageBetweenSends:   200 * time.Millisecond,
		}, 10*time.Millisecond, 1),
		nil,
		transactions.DefaultCatalog(),
	)
	outcome, err := sequence.Run(ctx)
	if err != nil {
		t.Fatalf("sequence: %v", err)
	}
	if outcome.State != transactions.StateDone || outcome.Failed() != 0 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	collector := snapshotsusecase.NewCollectUseCase(snapshotsinfra.NewSnapshotHTTPClient(node.server.URL, time.Second, nil), nil, 1, 10)
	report, err := collector.Collect(ctx)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if report.Fetched() != 6 || len(report.Skipped) != 4 {
		t.Fatalf("expected 6 snapshots and 4 skipped, got %d and %v", report.Fetched(), report.Skipped)
	}

	first, ok := report.Results[0].Blocks.([]any)
	if !ok || len(first) != 1 {
		t.Fatalf("unexpected first blocks: %#v", report.Results[0].Blocks)
	}
	update, _ := first[0].(map[string]any)
	channel, ok := update["CreateSalesChannel"].(map[string]any)
	if !ok || channel["owner"] != signer.Address() {
		t.Fatalf("unexpected first update: %#v", first[0])
	}

	last, _ := report.Results[5].Blocks.([]any)
	products, _ := last[0].(map[string]any)["AddProducts"].(map[string]any)
	if products["channelId"] != outcome.ChannelID {
		t.Fatalf("expected AddProducts for channel %s, got %#v", outcome.ChannelID, last[0])
	}
}

func TestPostDataMapsRejectionsToBadRequest(t *testing.T) {
	t.Parallel()

	node := startDevnode(t, "")
	body := `{"value":{"AddSeller":{"channelId":"c","address":"a","seller":"s"}},"proofs":[]}`
	res, err := http.Post(node.server.URL+"/data", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
	var decoded map[string]string
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["error"] != "missing proofs" {
		t.Fatalf("unexpected body: %v", decoded)
	}
}

func TestSnapshotEndpoints(t *testing.T) {
	t.Parallel()

	node := startDevnode(t, "")
	node.ledger.Mint(context.Background())

	cases := map[string]struct {
		path   string
		status int
		body   string
	}{
		"latest":    {"/snapshots/latest/ordinal", http.StatusOK, `{"value":1}`},
		"empty":     {"/snapshots/1", http.StatusOK, `"blocks":[]`},
		"missing":   {"/snapshots/2", http.StatusNotFound, `"snapshot not found"`},
		"not an id": {"/snapshots/abc", http.StatusBadRequest, `integer`},
	}

	for name, tc := range cases {
		res, err := http.Get(node.server.URL + tc.path)
		if err != nil {
			t.Fatalf("%s: get: %v", name, err)
		}
		raw := new(strings.Builder)
		_, _ = io.Copy(raw, res.Body)
		res.Body.Close()
		if res.StatusCode != tc.status || !strings.Contains(raw.String(), tc.body) {
			t.Fatalf("%s: unexpected response %d %s", name, res.StatusCode, raw.String())
		}
	}
}

func dialUpdates(t *testing.T, node *devnode, query string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(node.server.URL, "http") + "/ws/updates" + query
	return websocket.DefaultDialer.Dial(url, header)
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg events.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return msg
}

func TestUpdatesFeedStreamsSubscribedTopics(t *testing.T) {
	t.Parallel()

	node := startDevnode(t, "")
	conn, _, err := dialUpdates(t, node, "?topics=devnode.snapshot.created", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if hello := readEvent(t, conn); hello.Topic != events.TopicSystemConnected {
		t.Fatalf("expected connected event, got %s", hello.Topic)
	}

	node.hub.Broadcast(context.Background(), events.New(events.EntityDevnode, events.ActionUpdateAccepted, "h", nil, time.Now()))
	node.ledger.Mint(context.Background())

	if msg := readEvent(t, conn); msg.Topic != "devnode.snapshot.created" || msg.ResourceID != "1" {
		t.Fatalf("unexpected event: %+v", msg)
	}
}

func TestUpdatesFeedRequiresTokenWhenSecretSet(t *testing.T) {
	t.Parallel()

	node := startDevnode(t, "s3cret")

	if _, res, err := dialUpdates(t, node, "", nil); err == nil || res == nil || res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %v", err)
	}

	token, err := auth.Sign("s3cret", "watcher", []string{"devnode.update.accepted"}, time.Minute, time.Now())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, _, err := dialUpdates(t, node, "?topics=devnode.snapshot.created", header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := readEvent(t, conn)
	if hello.Metadata["subject"] != "watcher" {
		t.Fatalf("unexpected connected event: %+v", hello)
	}

	// The token's topics win over the query parameter.
	node.ledger.Mint(context.Background())
	node.hub.Broadcast(context.Background(), events.New(events.EntityDevnode, events.ActionUpdateAccepted, "h", nil, time.Now()))
	if msg := readEvent(t, conn); msg.Topic != "devnode.update.accepted" {
		t.Fatalf("unexpected event: %+v", msg)
	}
}
