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

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_client": "127.0.0.1:6556",
		"endpoint_addr_tech":   "127.0.0.1:6557",
		"database_dsn":         "postgres://mediator@db/remotehelp",
		"cert_file":            "m.crt",
		"key_file":             "m.key",
		"ca_file":              "ca.crt",
		"max_frame_size":       1 << 20,
		"io_timeout":           "10s",
		"idle_timeout":         "2m",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "127.0.0.1:6556", cfg.EndpointAddrClient)
		assert.Equal(t, "127.0.0.1:6557", cfg.EndpointAddrTech)
		assert.Equal(t, "postgres://mediator@db/remotehelp", cfg.DatabaseDSN)
		assert.Equal(t, "m.crt", cfg.CertFile)
		assert.Equal(t, "m.key", cfg.KeyFile)
		assert.Equal(t, "ca.crt", cfg.CAFile)
		assert.Equal(t, int64(1<<20), cfg.MaxFrameSize)
		assert.Equal(t, 10*time.Second, cfg.IOTimeout)
		assert.Equal(t, 2*time.Minute, cfg.IdleTimeout)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			EndpointAddrClient: "defaults:1234",
			EndpointAddrTech:   "defaults:1235",
			DatabaseDSN:        "sessions.db",
			CertFile:           "a.crt",
			KeyFile:            "a.key",
			CAFile:             "a-ca.crt",
			MaxFrameSize:       42,
			IOTimeout:          3 * time.Second,
			IdleTimeout:        4 * time.Minute,
		}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrClient)
		assert.Equal(t, "defaults:1235", cfg.EndpointAddrTech)
		assert.Equal(t, "sessions.db", cfg.DatabaseDSN)
		assert.Equal(t, "a.crt", cfg.CertFile)
		assert.Equal(t, "a.key", cfg.KeyFile)
		assert.Equal(t, "a-ca.crt", cfg.CAFile)
		assert.Equal(t, int64(42), cfg.MaxFrameSize)
		assert.Equal(t, 3*time.Second, cfg.IOTimeout)
		assert.Equal(t, 4*time.Minute, cfg.IdleTimeout)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
