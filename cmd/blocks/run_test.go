package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/chain-blocks/internal/output"
)

const genesis = 1700000000

// chainServer is a JSON-RPC server holding blocks 0..tip, ten seconds apart
// unless timestamp overrides it.
type chainServer struct {
	tip       uint64
	timestamp func(h uint64) uint64

	mu        sync.Mutex
	requested []uint64
}

func (c *chainServer) ts(h uint64) uint64 {
	if c.timestamp != nil {
		return c.timestamp(h)
	}
	return genesis + h*10
}

func (c *chainServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     int               `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reply := func(result string) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":%s}`, req.ID, result)
	}

	switch req.Method {
	case "chain.info":
		reply(fmt.Sprintf(`{"latestBlock":{"height":%d,"hash":"%064x"}}`, c.tip, c.tip))
	case "chain.block":
		var args []struct {
			Query struct {
				Height uint64 `json:"height"`
			} `json:"query"`
		}
		raw, _ := json.Marshal(req.Params)
		if err := json.Unmarshal(raw, &args); err != nil || len(args) != 1 {
			http.Error(w, "bad params", http.StatusBadRequest)
			return
		}
		h := args[0].Query.Height

		c.mu.Lock()
		c.requested = append(c.requested, h)
		c.mu.Unlock()

		if h > c.tip {
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"error":{"code":-32000,"message":"block not found"}}`, req.ID)
			return
		}
		parent := uint64(0)
		if h > 0 {
			parent = h - 1
		}
		appHash := "null"
		if h%2 == 0 {
			appHash = fmt.Sprintf(`"%08x"`, h)
		}
		reply(fmt.Sprintf(
			`{"block":{"id":{"height":%d,"hash":"%064x"},"parent":{"height":%d,"hash":"%064x"},"appHash":%s,"timestamp":%d,"txsCount":%d}}`,
			h, h, parent, parent, appHash, c.ts(h), h%3,
		))
	default:
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"error":{"code":-32601,"message":"method not found"}}`, req.ID)
	}
}

func startChain(t *testing.T, chain *chainServer) string {
	t.Helper()
	srv := httptest.NewServer(chain)
	t.Cleanup(srv.Close)
	return srv.URL
}

func baseOptions(t *testing.T, server string) options {
	t.Helper()
	dir := t.TempDir()
	return options{
		server:     server,
		count:      30,
		configPath: filepath.Join(dir, "missing.yaml"),
		format:     formatTable,
		reportDir:  filepath.Join(dir, "reports"),
		noColor:    true,
	}
}

func uptr(v uint64) *uint64 { return &v }

func TestRunBlocksDefaultRange(t *testing.T) {
	chain := &chainServer{tip: 70}
	opts := baseOptions(t, startChain(t, chain))

	var stdout, stderr bytes.Buffer
	require.NoError(t, runBlocks(context.Background(), opts, &stdout, &stderr))

	out := stdout.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 32, "header plus 31 rows")
	assert.Contains(t, lines[0], "Height")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[1]), "40"))
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[31]), "70"))
	assert.Contains(t, lines[2], "10s")

	require.Len(t, chain.requested, 31)
	assert.Equal(t, uint64(40), chain.requested[0])
	assert.Equal(t, uint64(70), chain.requested[30])
}

func TestRunBlocksSaturatesAtGenesis(t *testing.T) {
	chain := &chainServer{tip: 100}
	opts := baseOptions(t, startChain(t, chain))
	opts.maxHeight = uptr(5)
	opts.format = formatJSON

	var stdout, stderr bytes.Buffer
	require.NoError(t, runBlocks(context.Background(), opts, &stdout, &stderr))

	var got output.JSONOutput
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	require.Len(t, got.Blocks, 6)
	assert.Equal(t, uint64(0), got.Blocks[0].Height)
	assert.Equal(t, uint64(5), got.Blocks[5].Height)
	assert.Nil(t, got.Blocks[0].DeltaMS)
	require.NotNil(t, got.Blocks[1].DeltaMS)
	assert.Equal(t, int64(10000), *got.Blocks[1].DeltaMS)
	assert.Nil(t, got.Blocks[1].AppHash)
	require.NotNil(t, got.Blocks[2].AppHash)
	assert.Equal(t, "00000002", *got.Blocks[2].AppHash)
	assert.Nil(t, got.Summary)
}

func TestRunBlocksSummaryAndReport(t *testing.T) {
	chain := &chainServer{tip: 9}
	opts := baseOptions(t, startChain(t, chain))
	opts.count = 4
	opts.summary = true
	opts.report = true

	var stdout, stderr bytes.Buffer
	require.NoError(t, runBlocks(context.Background(), opts, &stdout, &stderr))

	assert.Contains(t, stdout.String(), "Block Times")
	assert.Contains(t, stdout.String(), "Intervals: 4")
	assert.Contains(t, stderr.String(), "JSON report written to:")

	entries, err := os.ReadDir(opts.reportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "blocks-"))
}

func TestRunBlocksUsesConfiguredServer(t *testing.T) {
	chain := &chainServer{tip: 3}
	url := startChain(t, chain)

	path := filepath.Join(t.TempDir(), "servers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(`
defaults:
  timeout: 5s
  count: 1
servers:
  - name: local
    url: %s
`, url)), 0o644))

	opts := baseOptions(t, "local")
	opts.configPath = path
	opts.configSet = true

	var stdout, stderr bytes.Buffer
	require.NoError(t, runBlocks(context.Background(), opts, &stdout, &stderr))
	assert.Equal(t, []uint64{2, 3}, chain.requested)
}

func TestRunBlocksErrors(t *testing.T) {
	tests := []struct {
		name    string
		chain   *chainServer
		server  string
		max     *uint64
		wantErr string
	}{
		{
			name:    "unsupported scheme",
			server:  "ftp://localhost:8000",
			wantErr: "could not create client",
		},
		{
			name:    "unknown server name",
			server:  "nowhere",
			wantErr: "neither a configured name nor a URL",
		},
		{
			name:    "max height past tip",
			chain:   &chainServer{tip: 3},
			max:     uptr(10),
			wantErr: "block not found",
		},
		{
			name: "timestamps go backwards",
			chain: &chainServer{tip: 10, timestamp: func(h uint64) uint64 {
				if h == 8 {
					return genesis
				}
				return genesis + h*10
			}},
			wantErr: "not monotonic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := tt.server
			if tt.chain != nil {
				server = startChain(t, tt.chain)
			}
			opts := baseOptions(t, server)
			opts.maxHeight = tt.max

			var stdout, stderr bytes.Buffer
			err := runBlocks(context.Background(), opts, &stdout, &stderr)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Empty(t, stdout.String(), "nothing is printed on failure")
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, options{format: formatTable}.validate())
	assert.NoError(t, options{format: formatJSON}.validate())
	assert.Error(t, options{format: "csv"}.validate())
}

func TestRootCmdRequiresServer(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}
