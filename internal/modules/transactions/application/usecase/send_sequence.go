package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"metagraphOps/internal/modules/transactions/application/port"
	"metagraphOps/internal/modules/transactions/domain"
	"metagraphOps/internal/platform/keystore"
	"metagraphOps/internal/shared/events"
)

// SequenceUseCase creates a sales channel and then submits the messages that depend on it,
// strictly one after another.
type SequenceUseCase struct {
	signer    port.Signer
	submitter port.DataSubmitter
	pacer     port.Pacer
	publisher events.Publisher
	catalog   domain.Catalog
	proofID   func(publicKey string) (string, error)
	now       func() time.Time
}

func NewSequenceUseCase(signer port.Signer, submitter port.DataSubmitter, pacer port.Pacer, publisher events.Publisher, catalog domain.Catalog) *SequenceUseCase {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &SequenceUseCase{
		signer:    signer,
		submitter: submitter,
		pacer:     pacer,
		publisher: publisher,
		catalog:   catalog,
		proofID:   keystore.NormalizeProofID,
		now:       time.Now,
	}
}

// Run executes the sequence. A channel-creation failure aborts the run without error;
// failures of later messages are recorded and the sequence carries on. The returned
// error is non-nil only when ctx ends the run early.
func (uc *SequenceUseCase) Run(ctx context.Context) (domain.Outcome, error) {
	address := uc.signer.Address()
	outcome := domain.Outcome{State: domain.StateInit, Address: address}
	slog.Info("sequence start", slog.String("address", address))

	slog.Info("sending message", slog.Int("index", 1), slog.String("kind", string(domain.KindCreateSalesChannel)))
	first := uc.submit(ctx, 1, uc.catalog.CreateSalesChannel(address))
	outcome.Submissions = append(outcome.Submissions, first)
	if first.Err != nil {
		slog.Error("failed to create sales channel, aborting further transactions", slog.Any("error", first.Err))
		uc.transition(&outcome, domain.StateAborted)
		return outcome, nil
	}

	outcome.ChannelID = first.Hash
	uc.transition(&outcome, domain.StateChannelCreated)
	slog.Info("sales channel created", slog.String("channelId", outcome.ChannelID))

	if err := uc.pacer.Wait(ctx, port.StageChannelCreated); err != nil {
		return outcome, fmt.Errorf("wait after channel creation: %w", err)
	}

	for i, build := range uc.catalog.DependentBuilders() {
		if i > 0 {
			if err := uc.pacer.Wait(ctx, port.StageBetweenSends); err != nil {
				return outcome, fmt.Errorf("wait before message %d: %w", i+2, err)
			}
		}
		msg := build(outcome.ChannelID, address, uc.now())
		index := i + 2
		slog.Info("sending message", slog.Int("index", index), slog.String("kind", string(msg.Kind())))
		submission := uc.submit(ctx, index, msg)
		outcome.Submissions = append(outcome.Submissions, submission)
		if submission.Err != nil {
			slog.Error("transaction failed", slog.Int("index", index), slog.String("kind", string(msg.Kind())), slog.Any("error", submission.Err))
		} else {
			slog.Info("transaction sent", slog.Int("index", index), slog.String("kind", string(msg.Kind())), slog.String("hash", submission.Hash))
		}
		uc.transition(&outcome, domain.StateSending)
	}

	uc.transition(&outcome, domain.StateDone)
	slog.Info("all transactions sent", slog.Int("submitted", len(outcome.Submissions)), slog.Int("failed", outcome.Failed()))
	return outcome, nil
}

func (uc *SequenceUseCase) transition(outcome *domain.Outcome, next domain.State) {
	if !outcome.State.CanTransition(next) {
		slog.Warn("unexpected sequence transition", slog.String("from", string(outcome.State)), slog.String("to", string(next)))
	}
	outcome.State = next
}

func (uc *SequenceUseCase) submit(ctx context.Context, index int, msg domain.Message) domain.Submission {
	submission := domain.Submission{Index: index, Kind: msg.Kind()}

	envelope, err := uc.sign(msg)
	if err != nil {
		submission.Err = err
		uc.publish(ctx, submission)
		return submission
	}
	if body, err := envelope.MarshalJSON(); err == nil {
		slog.Debug("transaction body", slog.Int("index", index), slog.String("body", string(body)))
	}

	result, err := uc.submitter.Submit(ctx, envelope)
	switch {
	case err != nil:
		submission.Err = err
	case result == nil || result.Hash == "":
		submission.Err = port.ErrMissingHash
	default:
		submission.Hash = result.Hash
	}
	if result != nil {
		slog.Info("transaction response", slog.Int("index", index), slog.String("body", result.Body))
	}

	uc.publish(ctx, submission)
	return submission
}

func (uc *SequenceUseCase) sign(msg domain.Message) (domain.SignedEnvelope, error) {
	if err := msg.Validate(); err != nil {
		return domain.SignedEnvelope{}, err
	}
	payload, err := domain.SigningPayload(msg)
	if err != nil {
		return domain.SignedEnvelope{}, fmt.Errorf("encode message: %w", err)
	}
	signature, err := uc.signer.DataSign(payload)
	if err != nil {
		return domain.SignedEnvelope{}, fmt.Errorf("sign message: %w", err)
	}
	id, err := uc.proofID(uc.signer.PublicKeyHex())
	if err != nil {
		return domain.SignedEnvelope{}, fmt.Errorf("signer identity: %w", err)
	}
	return domain.SignedEnvelope{
		Value:  msg,
		Proofs: []domain.Proof{{ID: id, Signature: signature}},
	}, nil
}

func (uc *SequenceUseCase) publish(ctx context.Context, submission domain.Submission) {
	action := events.ActionSubmitted
	data := map[string]any{"kind": string(submission.Kind), "hash": submission.Hash}
	if submission.Err != nil {
		action = events.ActionFailed
		data["error"] = submission.Err.Error()
	}
	msg := events.New(events.EntityTransaction, action, strconv.Itoa(submission.Index), data, uc.now())
	if err := uc.publisher.Publish(ctx, msg); err != nil {
		slog.Warn("transaction event publish failed", slog.String("topic", msg.Topic), slog.Any("error", err))
	}
}
