package config

import (
	"bytes"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validKey() string {
	return base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x07}, 32))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FORCEMONITOR_SECRET_KEY", validKey())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Len(t, cfg.SecretKey, 32)
	assert.Equal(t, "force-monitor.db", cfg.DBPath)
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.Equal(t, 4, cfg.SweepWorkers)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
}

func TestLoad_MissingKey(t *testing.T) {
	t.Setenv("FORCEMONITOR_SECRET_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FORCEMONITOR_SECRET_KEY")
}

func TestLoad_RejectsWrongKeyLength(t *testing.T) {
	// 16 bytes decodes fine but is too short for AES-256; it must be
	// rejected, not padded.
	t.Setenv("FORCEMONITOR_SECRET_KEY", base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x07}, 16)))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly 32 bytes")
}

func TestLoad_RejectsInvalidBase64Key(t *testing.T) {
	t.Setenv("FORCEMONITOR_SECRET_KEY", "not base64 at all!!!")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FORCEMONITOR_SECRET_KEY", validKey())
	t.Setenv("FORCEMONITOR_DB_PATH", "/tmp/fm.db")
	t.Setenv("FORCEMONITOR_SWEEP_INTERVAL", "15m")
	t.Setenv("FORCEMONITOR_SWEEP_WORKERS", "8")
	t.Setenv("FORCEMONITOR_FETCH_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/fm.db", cfg.DBPath)
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 8, cfg.SweepWorkers)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
}

func TestLoad_RejectsInvalidDurations(t *testing.T) {
	t.Setenv("FORCEMONITOR_SECRET_KEY", validKey())
	t.Setenv("FORCEMONITOR_SWEEP_INTERVAL", "soon")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RejectsNonPositiveWorkers(t *testing.T) {
	t.Setenv("FORCEMONITOR_SECRET_KEY", validKey())
	t.Setenv("FORCEMONITOR_SWEEP_WORKERS", "0")

	_, err := Load()
	require.Error(t, err)
}
