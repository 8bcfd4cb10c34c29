package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "servers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("LEDGER_URL", "https://ledger.example.com/api")

	path := writeConfig(t, `
defaults:
  timeout: 10s
  count: 50
servers:
  - name: ledger
    url: ${LEDGER_URL}
    headers:
      X-Api-Key: abc
  - name: local
    url: http://localhost:8000
    timeout: 2s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Defaults.Timeout)
	assert.Equal(t, uint64(50), cfg.Defaults.Count)
	require.Len(t, cfg.Servers, 2)
	assert.Equal(t, "https://ledger.example.com/api", cfg.Servers[0].URL)
	assert.Equal(t, 10*time.Second, cfg.Servers[0].Timeout, "inherits default timeout")
	assert.Equal(t, "abc", cfg.Servers[0].Headers["X-Api-Key"])
	assert.Equal(t, 2*time.Second, cfg.Servers[1].Timeout)
}

func TestLoadLeavesUnsetDefaultsZero(t *testing.T) {
	cfg, err := Load(writeConfig(t, "servers: []\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.Defaults.Count)
	assert.Zero(t, cfg.Defaults.Timeout)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing name",
			body:    "servers:\n  - url: http://localhost:8000\n",
			wantErr: "name is required",
		},
		{
			name:    "duplicate name",
			body:    "servers:\n  - {name: a, url: 'http://a:1'}\n  - {name: a, url: 'http://b:1'}\n",
			wantErr: "duplicate name",
		},
		{
			name:    "missing url",
			body:    "servers:\n  - name: a\n",
			wantErr: "url is required",
		},
		{
			name:    "bad scheme",
			body:    "servers:\n  - {name: a, url: 'ws://a:1'}\n",
			wantErr: "invalid url scheme",
		},
		{
			name:    "missing host",
			body:    "servers:\n  - {name: a, url: 'localhost'}\n",
			wantErr: "missing scheme or host",
		},
		{
			name:    "negative timeout",
			body:    "defaults:\n  timeout: -1s\n",
			wantErr: "defaults.timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadOptional(t *testing.T) {
	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = LoadOptional(writeConfig(t, "servers: [\n"))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	cfg := &Config{
		Defaults: Defaults{Timeout: 3 * time.Second},
		Servers:  []Server{{Name: "ledger", URL: "https://ledger.example.com", Timeout: time.Second}},
	}

	s, err := cfg.Resolve("ledger")
	require.NoError(t, err)
	assert.Equal(t, "https://ledger.example.com", s.URL)
	assert.Equal(t, time.Second, s.Timeout)

	s, err = cfg.Resolve("http://127.0.0.1:8000")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8000", s.URL)
	assert.Equal(t, 3*time.Second, s.Timeout)

	_, err = cfg.Resolve("nowhere")
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(`
# comment
BLOCKS_TEST_A=plain
BLOCKS_TEST_B="quoted=value"
not a pair
`), 0o644))

	t.Setenv("BLOCKS_TEST_A", "")
	t.Setenv("BLOCKS_TEST_B", "")
	LoadEnv(path)

	assert.Equal(t, "plain", os.Getenv("BLOCKS_TEST_A"))
	assert.Equal(t, "quoted=value", os.Getenv("BLOCKS_TEST_B"))

	LoadEnv(filepath.Join(t.TempDir(), "missing"))
}
