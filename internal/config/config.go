package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL string // EVENTQ_DATABASE_URL (required)
	HTTPAddr    string // EVENTQ_HTTP_ADDR (default ":8080")
	NATSURL     string // EVENTQ_NATS_URL (optional, empty = no realtime events)
	AuthToken   string // EVENTQ_AUTH_TOKEN (optional, empty = auth disabled)

	// Dispatcher settings
	PollInterval        time.Duration // EVENTQ_POLL_INTERVAL (default 60s)
	BatchSize           int           // EVENTQ_BATCH_SIZE (default 25)
	DispatchConcurrency int           // EVENTQ_DISPATCH_CONCURRENCY (default 4)
	StuckTimeout        time.Duration // EVENTQ_STUCK_TIMEOUT (default 30m)

	// Retry settings
	RetryBaseDelay time.Duration // EVENTQ_RETRY_BASE_DELAY (default 5m)
	RetryMaxDelay  time.Duration // EVENTQ_RETRY_MAX_DELAY (default 1h; 0 = uncapped)
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL: os.Getenv("EVENTQ_DATABASE_URL"),
		HTTPAddr:    envOrDefault("EVENTQ_HTTP_ADDR", ":8080"),
		NATSURL:     os.Getenv("EVENTQ_NATS_URL"),
		AuthToken:   os.Getenv("EVENTQ_AUTH_TOKEN"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("EVENTQ_DATABASE_URL is required")
	}

	var err error
	if c.PollInterval, err = durationEnv("EVENTQ_POLL_INTERVAL", 60*time.Second); err != nil {
		return nil, err
	}
	if c.StuckTimeout, err = durationEnv("EVENTQ_STUCK_TIMEOUT", 30*time.Minute); err != nil {
		return nil, err
	}
	if c.RetryBaseDelay, err = durationEnv("EVENTQ_RETRY_BASE_DELAY", 5*time.Minute); err != nil {
		return nil, err
	}
	if c.RetryMaxDelay, err = durationEnv("EVENTQ_RETRY_MAX_DELAY", time.Hour); err != nil {
		return nil, err
	}
	if c.BatchSize, err = intEnv("EVENTQ_BATCH_SIZE", 25); err != nil {
		return nil, err
	}
	if c.DispatchConcurrency, err = intEnv("EVENTQ_DISPATCH_CONCURRENCY", 4); err != nil {
		return nil, err
	}

	if c.PollInterval <= 0 {
		return nil, fmt.Errorf("EVENTQ_POLL_INTERVAL must be positive")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("EVENTQ_BATCH_SIZE must be positive")
	}
	if c.DispatchConcurrency <= 0 {
		return nil, fmt.Errorf("EVENTQ_DISPATCH_CONCURRENCY must be positive")
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
