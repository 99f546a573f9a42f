package usecase

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"sync"
	"testing"

	"metagraphOps/internal/modules/snapshots/application/port"
	"metagraphOps/internal/modules/snapshots/domain"
	"metagraphOps/internal/shared/events"
)

type fakeFetcher struct {
	payloads map[int64]any
	errs     map[int64]error
	calls    []int64
}

func (f *fakeFetcher) FetchSnapshot(_ context.Context, snapshotID int64) (*port.SnapshotPayload, error) {
	f.calls = append(f.calls, snapshotID)
	if err, ok := f.errs[snapshotID]; ok {
		return nil, err
	}
	return &port.SnapshotPayload{SnapshotID: snapshotID, Blocks: f.payloads[snapshotID]}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, msg *events.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, msg.Topic)
	return nil
}

func encodedBlocks(doc string) any {
	encoded := domain.EncodeByteArray([]byte(doc))
	values := make([]any, len(encoded))
	for i, v := range encoded {
		values[i] = float64(v)
	}
	return []any{values}
}

func TestCollectUseCase_DecodesEverySnapshotOnce(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{payloads: map[int64]any{}}
	for id := int64(1); id <= 10; id++ {
		fetcher.payloads[id] = encodedBlocks(`{"ordinal":` + strconv.FormatInt(id, 10) + `}`)
	}
	publisher := &recordingPublisher{}

	report, err := NewCollectUseCase(fetcher, publisher, 1, 10).Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Fetched() != 10 || len(report.Skipped) != 0 {
		t.Fatalf("unexpected counts: fetched=%d skipped=%v", report.Fetched(), report.Skipped)
	}

	seen := map[int64]int{}
	for i, result := range report.Results {
		seen[result.SnapshotID]++
		if result.SnapshotID != int64(i+1) {
			t.Fatalf("results out of order at %d: %d", i, result.SnapshotID)
		}
		want, err := domain.DecodeBlocks(fetcher.payloads[result.SnapshotID])
		if err != nil {
			t.Fatalf("decode expected value: %v", err)
		}
		if !reflect.DeepEqual(result.Blocks, want) {
			t.Fatalf("snapshot %d decoded to %#v, expected %#v", result.SnapshotID, result.Blocks, want)
		}
	}
	for id := int64(1); id <= 10; id++ {
		if seen[id] != 1 {
			t.Fatalf("snapshot %d present %d times", id, seen[id])
		}
	}
	if len(publisher.topics) != 10 || publisher.topics[0] != "snapshot.decoded" {
		t.Fatalf("unexpected published topics: %v", publisher.topics)
	}
}

func TestCollectUseCase_SkipsFailuresAndContinues(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{
		payloads: map[int64]any{
			1: encodedBlocks(`[1]`),
			3: []any{[]any{float64(91), "x", float64(93)}},
			4: encodedBlocks(`[4]`),
		},
		errs: map[int64]error{2: port.ErrEmptyResponse},
	}
	publisher := &recordingPublisher{}

	report, err := NewCollectUseCase(fetcher, publisher, 1, 4).Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(fetcher.calls, []int64{1, 2, 3, 4}) {
		t.Fatalf("unexpected fetch order: %v", fetcher.calls)
	}
	if !reflect.DeepEqual(report.Skipped, []int64{2, 3}) {
		t.Fatalf("unexpected skipped ids: %v", report.Skipped)
	}
	ids := []int64{}
	for _, result := range report.Results {
		ids = append(ids, result.SnapshotID)
	}
	if !reflect.DeepEqual(ids, []int64{1, 4}) {
		t.Fatalf("unexpected result ids: %v", ids)
	}
	expectedTopics := []string{"snapshot.decoded", "snapshot.skipped", "snapshot.skipped", "snapshot.decoded"}
	if !reflect.DeepEqual(publisher.topics, expectedTopics) {
		t.Fatalf("unexpected topics: %v", publisher.topics)
	}
}

func TestCollectUseCase_StopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &fakeFetcher{}
	report, err := NewCollectUseCase(fetcher, nil, 1, 10).Collect(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(fetcher.calls) != 0 || report.Fetched() != 0 {
		t.Fatalf("expected no work after cancellation, calls=%v", fetcher.calls)
	}
}
