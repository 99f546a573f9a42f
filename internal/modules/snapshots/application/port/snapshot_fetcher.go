package port

import (
	"context"
	"errors"
)

var (
	ErrSnapshotNotFound       = errors.New("snapshot not found")
	ErrEmptyResponse          = errors.New("received empty response")
	ErrMissingValue           = errors.New(`unexpected JSON structure: no "value" field found`)
	ErrMissingDataApplication = errors.New(`unexpected JSON structure: no "dataApplication" field found`)
)

// SnapshotPayload is the part of a snapshot response the collector works with.
type SnapshotPayload struct {
	SnapshotID int64
	// Blocks is dataApplication.blocks exactly as the node returned it. Nil when absent.
	Blocks any
}

// SnapshotFetcher retrieves one snapshot by ordinal.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, snapshotID int64) (*SnapshotPayload, error)
}
