package port

import (
	"context"
	"errors"

	"metagraphOps/internal/modules/transactions/domain"
)

var (
	// ErrMissingHash means the data endpoint accepted the request but returned no hash.
	ErrMissingHash = errors.New("no channel ID (hash) in the response")
	// ErrSubmissionRejected means the data endpoint answered with a non-success status.
	ErrSubmissionRejected = errors.New("data update rejected")
)

// Signer is the wallet capability the sender relies on. Key handling stays behind it.
type Signer interface {
	// Address returns the account address messages are issued from.
	Address() string
	// PublicKeyHex returns the signer public key in any hex form (compressed or not).
	PublicKeyHex() string
	// DataSign signs the base64-encoded message and returns the signature text.
	DataSign(encoded string) (string, error)
}

// SubmitResult is what the data endpoint answered.
type SubmitResult struct {
	Hash string
	// Body is the raw response body, kept for logging.
	Body string
}

// DataSubmitter posts a signed envelope to the metagraph data endpoint.
type DataSubmitter interface {
	Submit(ctx context.Context, envelope domain.SignedEnvelope) (*SubmitResult, error)
}

// Stage identifies why the sequence is pausing.
type Stage string

const (
	StageChannelCreated Stage = "channel-created"
	StageBetweenSends   Stage = "between-sends"
)

// Pacer holds the sequence back between submissions.
type Pacer interface {
	Wait(ctx context.Context, stage Stage) error
}
