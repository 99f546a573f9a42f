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
	"metagraphOps/internal/modules/snapshots/application/usecase"
	"metagraphOps/internal/modules/snapshots/infrastructure"
	"metagraphOps/internal/platform/broker"
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

	// Logs go to stderr so stdout carries only the report.
	logFile, logger, err := logging.Setup(os.Stderr, logging.Config{
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
	slog.SetDefault(logger.With(slog.String("runId", uuid.NewString()), slog.String("cmd", "snapshots")))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publisher, closer := broker.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer closer.Close()

	fetcher := infrastructure.NewSnapshotHTTPClient(cfg.Snapshots.NodeURL, cfg.Snapshots.Timeout, nil)
	collectUC := usecase.NewCollectUseCase(fetcher, publisher, cfg.Snapshots.From, cfg.Snapshots.To)

	report, err := collectUC.Collect(ctx)
	if err != nil {
		slog.Warn("snapshot collection interrupted", slog.Any("error", err))
	}

	if cfg.Snapshots.Output != "" {
		err = infrastructure.WriteReportFile(cfg.Snapshots.Output, report)
	} else {
		err = infrastructure.NewReportWriter(os.Stdout).Write(report)
	}
	if err != nil {
		slog.Error("report output failed", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.Snapshots.Output != "" {
		slog.Info("report written", slog.String("path", cfg.Snapshots.Output), slog.Int("snapshots", report.Fetched()))
	}
}
