package configuration

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestGetConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
sweep_interval = "1m"
auth_secret_key = "0123456789abcdef0123456789abcdef"
`)
	c, err := GetConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost:8888", c.ServerAddress)
	assert.Equal(t, "mongodb://localhost:27017", c.DatabaseURI)
	assert.Equal(t, "localhost:6379", c.RedisAddress)
	assert.Equal(t, "data", c.DataDir)
	assert.Equal(t, time.Minute, c.SweepInterval)
	assert.Equal(t, 5*time.Minute, c.SchemeCacheTTL)
	assert.NotNil(t, c.AuthSecretKey)
}

func TestGetConfigFull(t *testing.T) {
	path := writeConfig(t, `
server_address = "0.0.0.0:9000"
database_uri = "mongodb://db:27017"
redis_address = "redis:6379"
redis_password = "secret"
data_dir = "/var/lib/coinloyalty"
fcm_key = "fcm-server-key"
sweep_interval = "30s"
scheme_cache_ttl = "10m"
log_to_file = true
log_debug_enabled = true
log_info_enabled = true
log_error_enabled = true
auth_secret_key = "0123456789abcdef0123456789abcdef"
`)
	c, err := GetConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", c.ServerAddress)
	assert.Equal(t, "mongodb://db:27017", c.DatabaseURI)
	assert.Equal(t, "redis:6379", c.RedisAddress)
	assert.Equal(t, "secret", c.RedisPassword)
	assert.Equal(t, "/var/lib/coinloyalty", c.DataDir)
	assert.Equal(t, "fcm-server-key", c.FCMKey)
	assert.Equal(t, 30*time.Second, c.SweepInterval)
	assert.Equal(t, 10*time.Minute, c.SchemeCacheTTL)
	assert.True(t, c.LogToFile)
	assert.True(t, c.LogDebug)
}

func TestGetConfigMissingSweepInterval(t *testing.T) {
	path := writeConfig(t, `auth_secret_key = "0123456789abcdef0123456789abcdef"`)
	_, err := GetConfig(path)
	assert.Error(t, err)
}

func TestGetConfigSweepIntervalTooShort(t *testing.T) {
	path := writeConfig(t, `
sweep_interval = "5s"
auth_secret_key = "0123456789abcdef0123456789abcdef"
`)
	_, err := GetConfig(path)
	assert.Error(t, err)
}

func TestGetConfigMissingAuthSecretKey(t *testing.T) {
	path := writeConfig(t, `sweep_interval = "1m"`)
	_, err := GetConfig(path)
	assert.Error(t, err)
}
