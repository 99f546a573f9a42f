package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"metagraphOps/internal/config"
	"metagraphOps/internal/modules/transactions/application/port"
	"metagraphOps/internal/modules/transactions/application/usecase"
	"metagraphOps/internal/modules/transactions/domain"
	"metagraphOps/internal/modules/transactions/infrastructure"
	"metagraphOps/internal/platform/broker"
	"metagraphOps/internal/platform/keystore"
	"metagraphOps/internal/shared/logging"
)

func main() {
	if err := godotenv.Overload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Sender.RequirePrivateKey(); err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logFile, logger, err := logging.Setup(os.Stdout, logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: true,
		Directory: cfg.Logging.Directory,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	slog.SetDefault(logger.With(slog.String("runId", uuid.NewString()), slog.String("cmd", "sender")))

	signer, err := keystore.FromPrivateKeyHex(cfg.Sender.PrivateKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "keystore error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publisher, closer := broker.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer closer.Close()

	delays := infrastructure.StageDelays{
		port.StageChannelCreated: cfg.Sender.ChannelDelay,
		port.StageBetweenSends:   cfg.Sender.SendDelay,
	}
	var pacer port.Pacer = infrastructure.NewDelayPacer(delays)
	if cfg.Sender.Pacing == config.PacingSnapshot {
		pacer = infrastructure.NewSnapshotPacer(cfg.Sender.GlobalL0URL, cfg.Sender.Timeout, nil, delays, cfg.Sender.PollInterval, cfg.Sender.ConfirmSnapshots)
	}
	slog.Info("sender configured",
		slog.String("l1DataUrl", cfg.Sender.L1DataURL),
		slog.String("globalL0Url", cfg.Sender.GlobalL0URL),
		slog.String("pacing", cfg.Sender.Pacing),
	)

	catalog := domain.DefaultCatalog()
	catalog.ChannelName = cfg.Sender.ChannelName

	submitter := infrastructure.NewDataHTTPClient(cfg.Sender.L1DataURL, cfg.Sender.Timeout, nil)
	sequenceUC := usecase.NewSequenceUseCase(signer, submitter, pacer, publisher, catalog)

	outcome, err := sequenceUC.Run(ctx)
	if err != nil {
		slog.Warn("sequence interrupted", slog.String("state", string(outcome.State)), slog.Any("error", err))
		return
	}
	slog.Info("sequence finished", slog.String("state", string(outcome.State)), slog.String("channelId", outcome.ChannelID), slog.Int("failed", outcome.Failed()))
}
