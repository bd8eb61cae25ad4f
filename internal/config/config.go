package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress       string
	DatabaseURI      string
	JWTSecret        string
	VerificationDays int
	SweepInterval    time.Duration
	SweepBatchSize   int
	SweepWorkers     int
	StockRetryLimit  int
	BuyerFeeBps      int64
	KafkaBrokers     []string
	NotifyTopic      string
	ShutdownTimeout  time.Duration
}

const (
	defaultRunAddress       = ":8080"
	defaultJWTSecret        = "change-me-in-production"
	defaultVerificationDays = 7
	defaultSweepInterval    = time.Minute
	defaultSweepBatchSize   = 32
	defaultSweepWorkers     = 4
	defaultStockRetryLimit  = 3
	defaultBuyerFeeBps      = 200
	defaultNotifyTopic      = "fairmarket.events"
	defaultShutdownTimeout  = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:       getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:      getString(lookup, "DATABASE_URI", ""),
		JWTSecret:        getString(lookup, "JWT_SECRET", defaultJWTSecret),
		VerificationDays: getInt(lookup, "VERIFICATION_WINDOW_DAYS", defaultVerificationDays),
		SweepInterval:    getDuration(lookup, "SWEEP_INTERVAL", defaultSweepInterval),
		SweepBatchSize:   getInt(lookup, "SWEEP_BATCH_SIZE", defaultSweepBatchSize),
		SweepWorkers:     getInt(lookup, "SWEEP_WORKERS", defaultSweepWorkers),
		StockRetryLimit:  getInt(lookup, "STOCK_RETRY_LIMIT", defaultStockRetryLimit),
		BuyerFeeBps:      int64(getInt(lookup, "BUYER_FEE_BPS", defaultBuyerFeeBps)),
		KafkaBrokers:     splitCSV(getString(lookup, "KAFKA_BROKERS", "")),
		NotifyTopic:      getString(lookup, "NOTIFY_TOPIC", defaultNotifyTopic),
		ShutdownTimeout:  getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("fairmarket", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		sweepIntervalStr   = cfg.SweepInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		brokersStr         = strings.Join(cfg.KafkaBrokers, ",")
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.IntVar(&cfg.VerificationDays, "verify-days", cfg.VerificationDays, "Verification window length in days")
	fs.StringVar(&sweepIntervalStr, "sweep-interval", sweepIntervalStr, "Interval between escrow auto-release sweeps")
	fs.IntVar(&cfg.SweepBatchSize, "sweep-batch", cfg.SweepBatchSize, "Maximum escrows per sweep batch")
	fs.IntVar(&cfg.SweepWorkers, "sweep-workers", cfg.SweepWorkers, "Number of concurrent sweep workers")
	fs.IntVar(&cfg.StockRetryLimit, "stock-retries", cfg.StockRetryLimit, "Retries on stock version conflicts")
	fs.StringVar(&brokersStr, "brokers", brokersStr, "Kafka brokers for notification events (optional)")
	fs.StringVar(&cfg.NotifyTopic, "notify-topic", cfg.NotifyTopic, "Kafka topic for notification events")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.SweepInterval, err = time.ParseDuration(sweepIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid sweep interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	cfg.KafkaBrokers = splitCSV(brokersStr)

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = string(content)
	}

	if cfg.VerificationDays <= 0 {
		cfg.VerificationDays = defaultVerificationDays
	}

	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}

	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = defaultSweepBatchSize
	}

	if cfg.SweepWorkers <= 0 {
		cfg.SweepWorkers = defaultSweepWorkers
	}

	if cfg.StockRetryLimit <= 0 {
		cfg.StockRetryLimit = defaultStockRetryLimit
	}

	if cfg.BuyerFeeBps < 0 {
		return nil, fmt.Errorf("buyer fee must not be negative")
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	return cfg, nil
}

// VerificationWindow returns the configured window as a duration.
func (c *Config) VerificationWindow() time.Duration {
	return time.Duration(c.VerificationDays) * 24 * time.Hour
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
