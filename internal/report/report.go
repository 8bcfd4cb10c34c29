// Package report writes a run's result to a timestamped JSON file so block
// timings can be compared across runs.
//
// Reports are saved as {dir}/blocks-{YYYYMMDD-HHMMSS}.json.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmagro/chain-blocks/internal/output"
)

// DefaultDir is where reports go unless the caller picks another directory.
const DefaultDir = "reports"

// Range is the inclusive height window a report covers.
type Range struct {
	Min uint64 `json:"min_height"`
	Max uint64 `json:"max_height"`
}

// Report is the JSON-serializable record of one run.
type Report struct {
	Timestamp time.Time           `json:"timestamp"`
	Server    string              `json:"server"`
	Range     Range               `json:"range"`
	Count     int                 `json:"count"`
	Blocks    []output.JSONBlock  `json:"blocks"`
	Summary   *output.JSONSummary `json:"summary,omitempty"`
}

// WriteJSON pretty-prints r into a new file under dir and returns its path.
// The directory is created when missing.
func WriteJSON(dir string, r *Report) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}

	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	path := filepath.Join(dir, fmt.Sprintf("blocks-%s.json", ts.UTC().Format("20060102-150405")))

	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	return path, nil
}
