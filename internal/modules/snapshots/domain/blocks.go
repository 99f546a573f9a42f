package domain

// BlocksResult is the decoded data-application blocks of one snapshot.
// Blocks stays untyped: it is whatever JSON the metagraph serialised.
type BlocksResult struct {
	SnapshotID int64 `json:"snapshotId"`
	Blocks     any   `json:"blocks,omitempty"`
}

// Report aggregates one collection run.
type Report struct {
	Results []BlocksResult
	From    int64
	To      int64
	Skipped []int64
}

// Fetched returns how many snapshots produced a result.
func (r Report) Fetched() int {
	return len(r.Results)
}
