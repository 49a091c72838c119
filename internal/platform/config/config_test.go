package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("NEARSHIELD_ADMIN", "admin.near")
	t.Setenv("NEARSHIELD_TREASURY", "")
	t.Setenv("SERVICE_NAME", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("TRUSTED_TOKENS", "")
	t.Setenv("WORKER_POLL_INTERVAL", "")
	t.Setenv("RELAY_BATCH_SIZE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "nearshield", cfg.ServiceName)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "admin.near", cfg.Treasury)
	assert.Empty(t, cfg.TrustedTokens)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 100, cfg.RelayBatchSize)
	assert.True(t, cfg.EnableTransferRelay)
}

func TestLoadParsesListsAndToggles(t *testing.T) {
	chdirTemp(t)
	t.Setenv("NEARSHIELD_ADMIN", "admin.near")
	t.Setenv("NEARSHIELD_TREASURY", "treasury.near")
	t.Setenv("TRUSTED_TOKENS", " usdc.near, ,usdt.near ")
	t.Setenv("WORKER_POLL_INTERVAL", "500ms")
	t.Setenv("RELAY_BATCH_SIZE", "25")
	t.Setenv("ENABLE_EVENT_ARCHIVER", "off")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "treasury.near", cfg.Treasury)
	assert.Equal(t, []string{"usdc.near", "usdt.near"}, cfg.TrustedTokens)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 25, cfg.RelayBatchSize)
	assert.False(t, cfg.EnableEventArchiver)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	chdirTemp(t)
	t.Setenv("NEARSHIELD_ADMIN", "admin.near")
	t.Setenv("WORKER_POLL_INTERVAL", "")

	t.Setenv("RELAY_BATCH_SIZE", "zero")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("RELAY_BATCH_SIZE", "")
	t.Setenv("WORKER_POLL_INTERVAL", "-1s")
	_, err = Load()
	require.Error(t, err)
}

func TestLoadRequiresAdmin(t *testing.T) {
	chdirTemp(t)
	t.Setenv("NEARSHIELD_ADMIN", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadReadsEnvLocalOverride(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("NEARSHIELD_ADMIN", "admin.near")
	t.Setenv("SERVICE_NAME", "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("SERVICE_NAME=nearshield-local\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "nearshield-local", cfg.ServiceName)
}
