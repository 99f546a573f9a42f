package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"metagraphOps/internal/modules/devnode/application/port"
	"metagraphOps/internal/modules/devnode/domain"
	transactions "metagraphOps/internal/modules/transactions/domain"
	"metagraphOps/internal/platform/keystore"
	"metagraphOps/internal/shared/events"
)

// LedgerUseCase is an in-memory metagraph: it verifies and records data updates and
// groups them into numbered snapshots starting at ordinal 1.
type LedgerUseCase struct {
	mu            sync.Mutex
	channels      map[string]struct{}
	pending       []domain.Update
	snapshots     []domain.Snapshot
	publisher     events.Publisher
	mintPerUpdate bool
	now           func() time.Time
}

// NewLedgerUseCase builds a ledger. With mintPerUpdate every accepted update is sealed
// into its own snapshot; otherwise RunMinter decides when snapshots are produced.
func NewLedgerUseCase(publisher events.Publisher, mintPerUpdate bool) *LedgerUseCase {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &LedgerUseCase{
		channels:      make(map[string]struct{}),
		publisher:     publisher,
		mintPerUpdate: mintPerUpdate,
		now:           time.Now,
	}
}

// Accept verifies a posted envelope and returns the hash that identifies the update.
func (uc *LedgerUseCase) Accept(ctx context.Context, body []byte) (string, error) {
	var envelope transactions.RawEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", port.ErrInvalidEnvelope, err)
	}
	if len(envelope.Value) == 0 {
		return "", fmt.Errorf("%w: missing value", port.ErrInvalidEnvelope)
	}
	msg, err := transactions.Decode(envelope.Value)
	if err != nil {
		return "", fmt.Errorf("%w: %w", port.ErrInvalidEnvelope, err)
	}

	signers, err := verifyProofs(msg, envelope.Proofs)
	if err != nil {
		return "", err
	}

	encoded, err := transactions.Encode(msg)
	if err != nil {
		return "", fmt.Errorf("%w: %w", port.ErrInvalidEnvelope, err)
	}
	sum := sha256.Sum256(encoded)
	hash := hex.EncodeToString(sum[:])

	uc.mu.Lock()
	if scoped, ok := msg.(transactions.ChannelScoped); ok {
		if _, known := uc.channels[scoped.Channel()]; !known {
			uc.mu.Unlock()
			return "", fmt.Errorf("%w: %s", port.ErrUnknownChannel, scoped.Channel())
		}
	}
	if msg.Kind() == transactions.KindCreateSalesChannel {
		uc.channels[hash] = struct{}{}
	}
	update := domain.Update{Hash: hash, Kind: msg.Kind(), Message: msg, Signers: signers, AcceptedAt: uc.now().UTC()}
	uc.pending = append(uc.pending, update)
	uc.mu.Unlock()

	slog.Info("data update accepted", slog.String("kind", string(update.Kind)), slog.String("hash", hash))
	uc.publish(ctx, events.New(events.EntityDevnode, events.ActionUpdateAccepted, hash, map[string]any{
		"kind":    string(update.Kind),
		"signers": signers,
	}, update.AcceptedAt))

	if uc.mintPerUpdate {
		uc.Mint(ctx)
	}
	return hash, nil
}

func verifyProofs(msg transactions.Message, proofs []transactions.Proof) ([]string, error) {
	if len(proofs) == 0 {
		return nil, port.ErrMissingProofs
	}
	payload, err := transactions.SigningPayload(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", port.ErrInvalidEnvelope, err)
	}
	signers := make([]string, 0, len(proofs))
	for i, proof := range proofs {
		if err := keystore.VerifyData(proof.ID, payload, proof.Signature); err != nil {
			return nil, fmt.Errorf("%w: proof %d: %w", port.ErrInvalidProof, i, err)
		}
		address, err := keystore.AddressFromPublicKey(proof.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: proof %d: %w", port.ErrInvalidProof, i, err)
		}
		signers = append(signers, address)
	}
	return signers, nil
}

// Mint seals the pending updates into the next snapshot, even when there are none.
func (uc *LedgerUseCase) Mint(ctx context.Context) domain.Snapshot {
	uc.mu.Lock()
	snapshot := domain.Snapshot{
		Ordinal:   int64(len(uc.snapshots)) + 1,
		Updates:   uc.pending,
		CreatedAt: uc.now().UTC(),
	}
	uc.snapshots = append(uc.snapshots, snapshot)
	uc.pending = nil
	uc.mu.Unlock()

	slog.Debug("snapshot minted", slog.Int64("ordinal", snapshot.Ordinal), slog.Int("updates", len(snapshot.Updates)))
	uc.publish(ctx, events.New(events.EntityDevnode, events.ActionSnapshotCreated, strconv.FormatInt(snapshot.Ordinal, 10), map[string]any{
		"updates": len(snapshot.Updates),
	}, snapshot.CreatedAt))
	return snapshot
}

// Snapshot returns the snapshot with the given ordinal.
func (uc *LedgerUseCase) Snapshot(ordinal int64) (domain.Snapshot, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if ordinal < 1 || ordinal > int64(len(uc.snapshots)) {
		return domain.Snapshot{}, fmt.Errorf("%w: %d", port.ErrSnapshotNotFound, ordinal)
	}
	return uc.snapshots[ordinal-1], nil
}

// LatestOrdinal returns the ordinal of the newest snapshot, 0 before the first one.
func (uc *LedgerUseCase) LatestOrdinal() int64 {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return int64(len(uc.snapshots))
}

// RunMinter mints a snapshot every interval until ctx is done.
func (uc *LedgerUseCase) RunMinter(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			uc.Mint(ctx)
		}
	}
}

func (uc *LedgerUseCase) publish(ctx context.Context, msg *events.Message) {
	if err := uc.publisher.Publish(ctx, msg); err != nil {
		slog.Warn("devnode event publish failed", slog.String("topic", msg.Topic), slog.Any("error", err))
	}
}
