package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Pacing modes accepted by SENDER_PACING.
const (
	PacingDelay    = "delay"
	PacingSnapshot = "snapshot"
)

type Config struct {
	Logging   LoggingConfig
	Snapshots SnapshotsConfig
	Sender    SenderConfig
	Kafka     KafkaConfig
	Devnode   DevnodeConfig
}

type LoggingConfig struct {
	Level     string
	Format    string
	Directory string
}

type SnapshotsConfig struct {
	NodeURL string
	From    int64
	To      int64
	Timeout time.Duration
	// Output is a file path for the report; empty prints to stdout.
	Output string
}

type SenderConfig struct {
	GlobalL0URL      string
	L1DataURL        string
	PrivateKey       string
	ChannelName      string
	ChannelDelay     time.Duration
	SendDelay        time.Duration
	Pacing           string
	PollInterval     time.Duration
	ConfirmSnapshots int64
	Timeout          time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	// GroupID is the consumer group devnode uses to relay events onto its feed.
	GroupID string
}

type DevnodeConfig struct {
	Port             string
	JWTSecret        string
	SnapshotInterval time.Duration
}

// Load reads the process environment. Defaults reproduce the local test network layout.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads configuration through lookup so tests can supply their own environment.
func LoadFrom(lookup func(string) (string, bool)) (*Config, error) {
	env := envReader{lookup: lookup}

	cfg := &Config{
		Logging: LoggingConfig{
			Level:     env.str("LOG_LEVEL", "info"),
			Format:    env.str("LOG_FORMAT", "text"),
			Directory: env.str("LOG_DIR", "./logs"),
		},
		Snapshots: SnapshotsConfig{
			NodeURL: env.str("SNAPSHOTS_NODE_URL", "http://localhost:9200"),
			From:    env.number("SNAPSHOTS_FROM", 1),
			To:      env.number("SNAPSHOTS_TO", 10),
			Timeout: env.duration("SNAPSHOTS_TIMEOUT", 10*time.Second),
			Output:  env.str("SNAPSHOTS_OUTPUT", ""),
		},
		Sender: SenderConfig{
			GlobalL0URL:      env.str("SENDER_GLOBAL_L0_URL", "http://localhost:9000"),
			L1DataURL:        env.str("SENDER_L1_DATA_URL", "http://localhost:9400"),
			PrivateKey:       env.str("SENDER_PRIVATE_KEY", ""),
			ChannelName:      env.str("SENDER_CHANNEL_NAME", "aba3"),
			ChannelDelay:     env.duration("SENDER_CHANNEL_DELAY", 20*time.Second),
			SendDelay:        env.duration("SENDER_SEND_DELAY", 15*time.Second),
			Pacing:           strings.ToLower(env.str("SENDER_PACING", PacingDelay)),
			PollInterval:     env.duration("SENDER_POLL_INTERVAL", 2*time.Second),
			ConfirmSnapshots: env.number("SENDER_CONFIRM_SNAPSHOTS", 1),
			Timeout:          env.duration("SENDER_TIMEOUT", 10*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: env.list("KAFKA_BROKERS", env.list("KAFKA_BROKER", nil)),
			Topic:   env.str("KAFKA_TOPIC", "metagraph.ops"),
			GroupID: env.str("KAFKA_GROUP_ID", "metagraph-devnode"),
		},
		Devnode: DevnodeConfig{
			Port:             env.str("DEVNODE_PORT", "9200"),
			JWTSecret:        env.str("DEVNODE_JWT_SECRET", ""),
			SnapshotInterval: env.duration("DEVNODE_SNAPSHOT_INTERVAL", 0),
		},
	}

	if len(env.errs) > 0 {
		return nil, errors.Join(env.errs...)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Snapshots.From < 0 || c.Snapshots.To < c.Snapshots.From {
		errs = append(errs, fmt.Errorf("invalid snapshot range %d..%d", c.Snapshots.From, c.Snapshots.To))
	}
	switch c.Sender.Pacing {
	case PacingDelay, PacingSnapshot:
	default:
		errs = append(errs, fmt.Errorf("SENDER_PACING must be %q or %q, got %q", PacingDelay, PacingSnapshot, c.Sender.Pacing))
	}
	if c.Sender.ChannelDelay < 0 || c.Sender.SendDelay < 0 {
		errs = append(errs, errors.New("sender delays must not be negative"))
	}
	if c.Sender.Pacing == PacingSnapshot && c.Sender.PollInterval <= 0 {
		errs = append(errs, errors.New("SENDER_POLL_INTERVAL must be positive with snapshot pacing"))
	}
	if c.Sender.ConfirmSnapshots < 1 {
		errs = append(errs, errors.New("SENDER_CONFIRM_SNAPSHOTS must be at least 1"))
	}
	return errors.Join(errs...)
}

// RequirePrivateKey reports a configuration error when no signing key was supplied.
func (c SenderConfig) RequirePrivateKey() error {
	if strings.TrimSpace(c.PrivateKey) == "" {
		return errors.New("SENDER_PRIVATE_KEY is required")
	}
	return nil
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *envReader) raw(key string) (string, bool) {
	value, ok := r.lookup(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func (r *envReader) str(key, fallback string) string {
	if value, ok := r.raw(key); ok {
		return value
	}
	return fallback
}

func (r *envReader) number(key string, fallback int64) int64 {
	value, ok := r.raw(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return parsed
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	value, ok := r.raw(key)
	if !ok {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return parsed
}

func (r *envReader) list(key string, fallback []string) []string {
	value, ok := r.raw(key)
	if !ok {
		return fallback
	}
	items := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
