package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"endpoint_addr_http":             "www.example:8080",
		"endpoint_addr_grpc":             "www.example:9000",
		"database_driver":                "sqlite",
		"database_dsn":                   "file:auth.db",
		"secret_key":                     "my_secret_key",
		"access_token_validity_duration": "15m",
		"request_timeout":                2000000000,
		"cors_origins":                   []string{"https://a.example"},
		"hash_memory_kib":                8192,
		"hash_iterations":                1,
		"hash_parallelism":               1,
	})

	t.Run("loads from json", func(t *testing.T) {
		cfg := defaults()
		require.NoError(t, parseJson(cfg, []string{"-config", path}))

		assert.Equal(t, "www.example:8080", cfg.EndpointAddrHTTP)
		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
		assert.Equal(t, "file:auth.db", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
		assert.Equal(t, []string{"https://a.example"}, cfg.CORSOrigins)
		assert.Equal(t, uint32(8192), cfg.HashMemoryKiB)
		assert.Equal(t, uint8(1), cfg.HashParallelism)
		// not in the file
		assert.Equal(t, "auth-service", cfg.ServiceName)
	})

	t.Run("no config flag leaves config untouched", func(t *testing.T) {
		cfg := defaults()
		require.NoError(t, parseJson(cfg, []string{"-a", ":1"}))
		assert.Equal(t, defaults(), cfg)
	})

	t.Run("broken json", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
		require.Error(t, parseJson(defaults(), []string{"-c", bad}))
	})
}
