package infrastructure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"metagraphOps/internal/modules/snapshots/application/port"
	"metagraphOps/internal/shared/normalization"
)

func decodeSnapshot(snapshotID int64, body []byte) (*port.SnapshotPayload, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, port.ErrEmptyResponse
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var payload any
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	slog.Debug("snapshot payload decoded", slog.Int64("snapshotId", snapshotID), slog.String("type", fmt.Sprintf("%T", payload)))

	root := normalization.AsMap(payload)
	value, ok := root["value"]
	if !ok || isFalsy(value) {
		return nil, port.ErrMissingValue
	}
	dataApplication := normalization.AsMap(normalization.AsMap(value)["dataApplication"])
	if dataApplication == nil {
		return nil, port.ErrMissingDataApplication
	}

	return &port.SnapshotPayload{SnapshotID: snapshotID, Blocks: dataApplication["blocks"]}, nil
}

// isFalsy mirrors the scripting-side truthiness check the node's consumers rely on:
// null, false, 0 and "" all count as an absent value.
func isFalsy(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case bool:
		return !typed
	case string:
		return typed == ""
	case json.Number:
		n, err := typed.Float64()
		return err == nil && n == 0
	default:
		return false
	}
}
