package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rodaine/table"

	"github.com/dmagro/chain-blocks/internal/stats"
	"github.com/dmagro/chain-blocks/internal/timeline"
)

// Column headers, in display order.
var blockColumns = []interface{}{"Height", "# Txs", "AppHash", "Block Time (UTC)", "Δ T"}

var (
	cyan = color.New(color.FgCyan).SprintFunc()
	bold = color.New(color.Bold).SprintFunc()
)

// RenderTable writes one row per block to w.
func RenderTable(w io.Writer, rows []timeline.Row) {
	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	firstColFmt := color.New(color.FgYellow).SprintfFunc()

	tbl := table.New(blockColumns...).
		WithWriter(w).
		WithHeaderFormatter(headerFmt).
		WithFirstColumnFormatter(firstColFmt)

	for _, r := range rows {
		tbl.AddRow(r.Height, r.TxCount, r.AppHash, r.BlockTime, r.Delta)
	}

	tbl.Print()
}

// RenderSummary writes the block-time footer shown under the table.
func RenderSummary(w io.Writer, s stats.BlockTimes) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, bold("Block Times"))
	if s.Count == 0 {
		fmt.Fprintln(w, "  not enough blocks to compute intervals")
		return
	}

	fmt.Fprintf(w, "  %s %d\n", cyan("Intervals:"), s.Count)
	fmt.Fprintf(w, "  %s      %s\n", cyan("Mean:"), formatInterval(s.Mean))
	fmt.Fprintf(w, "  %s       %s\n", cyan("p50:"), formatInterval(s.P50))
	fmt.Fprintf(w, "  %s       %s\n", cyan("p95:"), formatInterval(s.P95))
	fmt.Fprintf(w, "  %s   %s / %s\n", cyan("Min/Max:"), formatInterval(s.Min), formatInterval(s.Max))
}

// Mean can carry sub-second noise from the division; show it to the
// millisecond at most.
func formatInterval(d time.Duration) string {
	return timeline.FormatDuration(d.Round(time.Millisecond))
}

// DisableColors turns off color output (for non-TTY or JSON mode)
func DisableColors() {
	color.NoColor = true
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
