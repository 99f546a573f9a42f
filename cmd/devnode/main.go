package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"metagraphOps/internal/config"
	"metagraphOps/internal/modules/devnode/application/usecase"
	"metagraphOps/internal/modules/devnode/infrastructure"
	transport "metagraphOps/internal/modules/devnode/interface"
	"metagraphOps/internal/platform/broker"
	"metagraphOps/internal/shared/auth"
	"metagraphOps/internal/shared/events"
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
	slog.SetDefault(logger.With(slog.String("cmd", "devnode")))
	slog.Info("kafka config resolved", slog.Any("brokers", cfg.Kafka.Brokers), slog.String("topic", cfg.Kafka.Topic), slog.String("group", cfg.Kafka.GroupID))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := infrastructure.NewHub()
	kafkaPublisher, closer := broker.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer closer.Close()

	mintPerUpdate := cfg.Devnode.SnapshotInterval <= 0
	ledger := usecase.NewLedgerUseCase(events.Fanout{hub, kafkaPublisher}, mintPerUpdate)
	if !mintPerUpdate {
		go ledger.RunMinter(ctx, cfg.Devnode.SnapshotInterval)
	}

	// Relay what the CLIs publish so feed subscribers can follow a run end to end.
	registry := infrastructure.NewHandlerRegistry()
	for _, topic := range usecase.RelayTopics() {
		registry.Register(usecase.NewRelayHandler(topic, hub))
	}
	broker.StartKafkaConsumers(ctx, registry, cfg.Kafka.Brokers, cfg.Kafka.GroupID, []string{cfg.Kafka.Topic})

	validator := auth.NewJWTValidator(cfg.Devnode.JWTSecret)
	if !validator.Enabled() {
		slog.Warn("devnode feed is unauthenticated: DEVNODE_JWT_SECRET not set")
	}

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetOutput(log.Writer())
	transport.NewHandler(ledger, hub, validator).Register(e)

	go func() {
		if err := e.Start(":" + cfg.Devnode.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", slog.Any("error", err))
			stop()
		}
	}()
	slog.Info("devnode listening", slog.String("port", cfg.Devnode.Port), slog.Bool("mintPerUpdate", mintPerUpdate))

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown error", slog.Any("error", err))
	}
}
