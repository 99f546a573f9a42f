package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"metagraphOps/internal/modules/transactions/application/port"
	"metagraphOps/internal/platform/rest"
	"metagraphOps/internal/shared/normalization"
)

// StageDelays maps each pause of the sequence to its duration.
type StageDelays map[port.Stage]time.Duration

// DelayPacer sleeps a fixed duration per stage.
type DelayPacer struct {
	delays StageDelays
}

func NewDelayPacer(delays StageDelays) *DelayPacer {
	return &DelayPacer{delays: delays}
}

func (p *DelayPacer) Wait(ctx context.Context, stage port.Stage) error {
	delay := p.delays[stage]
	slog.Debug("pacing", slog.String("stage", string(stage)), slog.Duration("delay", delay))
	return sleep(ctx, delay)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SnapshotPacer waits for the global L0 to produce new snapshots instead of sleeping blindly.
// The stage delay bounds the wait; reaching it is logged and the sequence carries on.
type SnapshotPacer struct {
	rest     *rest.Client
	delays   StageDelays
	interval time.Duration
	confirms int64
}

func NewSnapshotPacer(baseURL string, timeout time.Duration, client *http.Client, delays StageDelays, interval time.Duration, confirms int64) *SnapshotPacer {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if confirms < 1 {
		confirms = 1
	}
	return &SnapshotPacer{
		rest:     rest.NewClient(baseURL, timeout, client),
		delays:   delays,
		interval: interval,
		confirms: confirms,
	}
}

func (p *SnapshotPacer) Wait(ctx context.Context, stage port.Stage) error {
	limit := p.delays[stage]
	if limit <= 0 {
		return ctx.Err()
	}
	waitCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	start, err := p.LatestOrdinal(waitCtx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("latest ordinal unavailable, falling back to fixed delay", slog.String("stage", string(stage)), slog.Any("error", err))
		return sleep(ctx, limit)
	}
	target := start + p.confirms
	slog.Debug("pacing on snapshots", slog.String("stage", string(stage)), slog.Int64("from", start), slog.Int64("target", target))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-waitCtx.Done():
			slog.Warn("snapshot confirmation timed out", slog.String("stage", string(stage)), slog.Int64("target", target), slog.Duration("limit", limit))
			return nil
		case <-ticker.C:
		}

		ordinal, err := p.LatestOrdinal(waitCtx)
		if err != nil {
			slog.Debug("latest ordinal poll failed", slog.Any("error", err))
			continue
		}
		if ordinal >= target {
			slog.Debug("snapshot confirmed", slog.String("stage", string(stage)), slog.Int64("ordinal", ordinal))
			return nil
		}
	}
}

// LatestOrdinal reads {"value": N} from /snapshots/latest/ordinal.
func (p *SnapshotPacer) LatestOrdinal(ctx context.Context) (int64, error) {
	req, err := p.rest.NewJSONRequest(ctx, http.MethodGet, "/snapshots/latest/ordinal", nil)
	if err != nil {
		return 0, err
	}
	res, err := p.rest.Do(req)
	if err != nil {
		return 0, fmt.Errorf("latest ordinal request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return 0, rest.UnexpectedStatus(res, "latest ordinal")
	}

	var decoded map[string]any
	decoder := json.NewDecoder(res.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&decoded); err != nil {
		return 0, fmt.Errorf("decode latest ordinal: %w", err)
	}
	ordinal, ok := normalization.AsInt64(decoded["value"])
	if !ok {
		return 0, fmt.Errorf("latest ordinal: unexpected value %v", decoded["value"])
	}
	return ordinal, nil
}

var (
	_ port.Pacer = (*DelayPacer)(nil)
	_ port.Pacer = (*SnapshotPacer)(nil)
)
