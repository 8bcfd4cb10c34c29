package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/dmagro/chain-blocks/internal/stats"
	"github.com/dmagro/chain-blocks/internal/timeline"
)

// JSONBlock is the machine-readable form of one row.
type JSONBlock struct {
	Height    uint64    `json:"height"`
	TxCount   uint64    `json:"tx_count"`
	AppHash   *string   `json:"app_hash"` // null when the block has none
	Timestamp time.Time `json:"timestamp"`
	DeltaMS   *int64    `json:"delta_ms,omitempty"`
	Delta     string    `json:"delta,omitempty"`
}

// JSONSummary mirrors stats.BlockTimes in milliseconds.
type JSONSummary struct {
	Count  int   `json:"count"`
	MinMS  int64 `json:"min_ms"`
	MaxMS  int64 `json:"max_ms"`
	MeanMS int64 `json:"mean_ms"`
	P50MS  int64 `json:"p50_ms"`
	P95MS  int64 `json:"p95_ms"`
}

// JSONOutput is what --format json prints.
type JSONOutput struct {
	Blocks  []JSONBlock  `json:"blocks"`
	Summary *JSONSummary `json:"summary,omitempty"`
}

// ToJSONBlocks converts rows to their JSON form.
func ToJSONBlocks(rows []timeline.Row) []JSONBlock {
	out := make([]JSONBlock, len(rows))
	for i, r := range rows {
		jb := JSONBlock{
			Height:    r.Height,
			TxCount:   r.TxCount,
			Timestamp: r.Timestamp.UTC(),
			Delta:     r.Delta,
		}
		if r.AppHash != timeline.NoAppHash {
			h := r.AppHash
			jb.AppHash = &h
		}
		if r.Elapsed != nil {
			ms := r.Elapsed.Milliseconds()
			jb.DeltaMS = &ms
		}
		out[i] = jb
	}
	return out
}

// ToJSONSummary converts a summary; a summary with no intervals becomes nil.
func ToJSONSummary(s stats.BlockTimes) *JSONSummary {
	if s.Count == 0 {
		return nil
	}
	return &JSONSummary{
		Count:  s.Count,
		MinMS:  s.Min.Milliseconds(),
		MaxMS:  s.Max.Milliseconds(),
		MeanMS: s.Mean.Milliseconds(),
		P50MS:  s.P50.Milliseconds(),
		P95MS:  s.P95.Milliseconds(),
	}
}

// RenderJSON writes rows (and the summary, when given) as indented JSON.
func RenderJSON(w io.Writer, rows []timeline.Row, summary *stats.BlockTimes) error {
	out := JSONOutput{Blocks: ToJSONBlocks(rows)}
	if summary != nil {
		out.Summary = ToJSONSummary(*summary)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
