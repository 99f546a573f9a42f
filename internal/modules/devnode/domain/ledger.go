package domain

import (
	"encoding/json"
	"time"

	snapshots "metagraphOps/internal/modules/snapshots/domain"
	transactions "metagraphOps/internal/modules/transactions/domain"
)

// Update is a data update the node accepted.
type Update struct {
	Hash       string
	Kind       transactions.Kind
	Message    transactions.Message
	Signers    []string
	AcceptedAt time.Time
}

// Snapshot groups the updates accepted since the previous one.
type Snapshot struct {
	Ordinal   int64
	Updates   []Update
	CreatedAt time.Time
}

// Blocks renders the snapshot's data application blocks: one block holding the byte
// encoding of the JSON array of tagged update values. An empty snapshot has no blocks.
func (s Snapshot) Blocks() ([][]int, error) {
	if len(s.Updates) == 0 {
		return [][]int{}, nil
	}
	values := make([]json.RawMessage, 0, len(s.Updates))
	for _, update := range s.Updates {
		encoded, err := transactions.Encode(update.Message)
		if err != nil {
			return nil, err
		}
		values = append(values, encoded)
	}
	doc, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return [][]int{snapshots.EncodeByteArray(doc)}, nil
}

// SnapshotBody is the JSON shape served for GET /snapshots/{id}.
type SnapshotBody struct {
	Value SnapshotValue `json:"value"`
}

type SnapshotValue struct {
	Ordinal         int64           `json:"ordinal"`
	Timestamp       time.Time       `json:"timestamp"`
	DataApplication DataApplication `json:"dataApplication"`
}

type DataApplication struct {
	Blocks [][]int `json:"blocks"`
}

func (s Snapshot) Body() (SnapshotBody, error) {
	blocks, err := s.Blocks()
	if err != nil {
		return SnapshotBody{}, err
	}
	return SnapshotBody{Value: SnapshotValue{
		Ordinal:         s.Ordinal,
		Timestamp:       s.CreatedAt.UTC(),
		DataApplication: DataApplication{Blocks: blocks},
	}}, nil
}
