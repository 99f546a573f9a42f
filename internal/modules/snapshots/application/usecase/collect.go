package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"metagraphOps/internal/modules/snapshots/application/port"
	"metagraphOps/internal/modules/snapshots/domain"
	"metagraphOps/internal/shared/events"
)

// CollectUseCase walks a snapshot range in order and decodes each snapshot's blocks.
type CollectUseCase struct {
	fetcher   port.SnapshotFetcher
	publisher events.Publisher
	from      int64
	to        int64
	now       func() time.Time
}

func NewCollectUseCase(fetcher port.SnapshotFetcher, publisher events.Publisher, from, to int64) *CollectUseCase {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &CollectUseCase{fetcher: fetcher, publisher: publisher, from: from, to: to, now: time.Now}
}

// Collect fetches every snapshot id in the configured range, one request at a time.
// A failing snapshot is logged and skipped; only context cancellation stops the walk early,
// in which case the partial report is returned with the context error.
func (uc *CollectUseCase) Collect(ctx context.Context) (domain.Report, error) {
	report := domain.Report{From: uc.from, To: uc.to}
	slog.Info("snapshot collection start", slog.Int64("from", uc.from), slog.Int64("to", uc.to))

	for snapshotID := uc.from; snapshotID <= uc.to; snapshotID++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result, err := uc.collectOne(ctx, snapshotID)
		if err != nil {
			slog.Error("snapshot processing failed", slog.Int64("snapshotId", snapshotID), slog.Any("error", err))
			report.Skipped = append(report.Skipped, snapshotID)
			uc.publish(ctx, events.New(events.EntitySnapshot, events.ActionSkipped, strconv.FormatInt(snapshotID, 10), map[string]any{"error": err.Error()}, uc.now()))
			continue
		}

		report.Results = append(report.Results, result)
		uc.publish(ctx, events.New(events.EntitySnapshot, events.ActionDecoded, strconv.FormatInt(snapshotID, 10), result, uc.now()))
	}

	slog.Info("snapshot collection done", slog.Int("fetched", report.Fetched()), slog.Int("skipped", len(report.Skipped)))
	return report, nil
}

func (uc *CollectUseCase) collectOne(ctx context.Context, snapshotID int64) (domain.BlocksResult, error) {
	payload, err := uc.fetcher.FetchSnapshot(ctx, snapshotID)
	if err != nil {
		return domain.BlocksResult{}, err
	}
	blocks, err := domain.DecodeBlocks(payload.Blocks)
	if err != nil {
		return domain.BlocksResult{}, err
	}
	return domain.BlocksResult{SnapshotID: snapshotID, Blocks: blocks}, nil
}

func (uc *CollectUseCase) publish(ctx context.Context, msg *events.Message) {
	if err := uc.publisher.Publish(ctx, msg); err != nil {
		slog.Warn("snapshot event publish failed", slog.String("topic", msg.Topic), slog.Any("error", err))
	}
}
