// Package config loads application configuration from environment variables.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"time"
)

const secretKeySize = 32

// Config holds the application configuration loaded from environment variables.
type Config struct {
	SecretKey     []byte // Exactly 32 bytes, AES-256.
	DBPath        string
	SweepInterval time.Duration
	SweepWorkers  int
	FetchTimeout  time.Duration

	// Connected-app OAuth client credentials, used only by the token
	// refresh grant. The initial authorization-code exchange happens
	// outside this service.
	SFClientID     string
	SFClientSecret string
}

// Load reads configuration from environment variables and returns a validated
// Config. FORCEMONITOR_SECRET_KEY is required and must be the standard-base64
// encoding of exactly 32 bytes; a wrong-length key is a startup error, never
// silently truncated or padded. Optional variables with defaults:
// FORCEMONITOR_DB_PATH (force-monitor.db), FORCEMONITOR_SWEEP_INTERVAL (1h),
// FORCEMONITOR_SWEEP_WORKERS (4), FORCEMONITOR_FETCH_TIMEOUT (30s).
func Load() (*Config, error) {
	encodedKey := os.Getenv("FORCEMONITOR_SECRET_KEY")
	if encodedKey == "" {
		return nil, fmt.Errorf("FORCEMONITOR_SECRET_KEY is required")
	}
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("FORCEMONITOR_SECRET_KEY is not valid base64: %w", err)
	}
	if len(key) != secretKeySize {
		return nil, fmt.Errorf("FORCEMONITOR_SECRET_KEY must decode to exactly %d bytes, got %d", secretKeySize, len(key))
	}

	dbPath := "force-monitor.db"
	if v, ok := os.LookupEnv("FORCEMONITOR_DB_PATH"); ok {
		dbPath = v
	}

	sweepInterval := time.Hour
	if v, ok := os.LookupEnv("FORCEMONITOR_SWEEP_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("FORCEMONITOR_SWEEP_INTERVAL has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("FORCEMONITOR_SWEEP_INTERVAL must be positive, got %q", v)
		}
		sweepInterval = parsed
	}

	sweepWorkers := 4
	if v, ok := os.LookupEnv("FORCEMONITOR_SWEEP_WORKERS"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("FORCEMONITOR_SWEEP_WORKERS must be a positive integer, got %q", v)
		}
		sweepWorkers = parsed
	}

	fetchTimeout := 30 * time.Second
	if v, ok := os.LookupEnv("FORCEMONITOR_FETCH_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("FORCEMONITOR_FETCH_TIMEOUT has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("FORCEMONITOR_FETCH_TIMEOUT must be positive, got %q", v)
		}
		fetchTimeout = parsed
	}

	return &Config{
		SecretKey:      key,
		DBPath:         dbPath,
		SweepInterval:  sweepInterval,
		SweepWorkers:   sweepWorkers,
		FetchTimeout:   fetchTimeout,
		SFClientID:     os.Getenv("FORCEMONITOR_SF_CLIENT_ID"),
		SFClientSecret: os.Getenv("FORCEMONITOR_SF_CLIENT_SECRET"),
	}, nil
}
