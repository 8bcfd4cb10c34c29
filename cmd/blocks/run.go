package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/dmagro/chain-blocks/internal/config"
	"github.com/dmagro/chain-blocks/internal/logging"
	"github.com/dmagro/chain-blocks/internal/output"
	"github.com/dmagro/chain-blocks/internal/report"
	"github.com/dmagro/chain-blocks/internal/rpc"
	"github.com/dmagro/chain-blocks/internal/scan"
	"github.com/dmagro/chain-blocks/internal/stats"
	"github.com/dmagro/chain-blocks/internal/timeline"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

type options struct {
	server     string
	count      uint64
	countSet   bool
	maxHeight  *uint64
	configPath string
	configSet  bool
	format     string
	summary    bool
	report     bool
	reportDir  string
	noColor    bool
	verbose    bool
}

func (o options) validate() error {
	if o.format != formatTable && o.format != formatJSON {
		return fmt.Errorf("invalid --format %q (expected %s or %s)", o.format, formatTable, formatJSON)
	}
	return nil
}

func loadConfig(path string, explicit bool) (*config.Config, error) {
	if explicit {
		return config.Load(path)
	}
	return config.LoadOptional(path)
}

// blockCount picks --count when given, then the config default, then the
// flag's built-in default.
func blockCount(o options, cfg *config.Config) uint64 {
	if !o.countSet && cfg.Defaults.Count > 0 {
		return cfg.Defaults.Count
	}
	return o.count
}

func runBlocks(ctx context.Context, o options, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(o.configPath, o.configSet)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	server, err := cfg.Resolve(o.server)
	if err != nil {
		return err
	}

	log, err := logging.New(o.verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if o.noColor || o.format == formatJSON {
		output.DisableColors()
	}

	client, err := rpc.NewClient(rpc.ClientConfig{
		URL:     server.URL,
		Timeout: server.Timeout,
		Headers: server.Headers,
		Logger:  log,
	})
	if err != nil {
		return fmt.Errorf("could not create client: %w", err)
	}

	count := blockCount(o, cfg)
	r, err := scan.ResolveRange(ctx, client, count, o.maxHeight)
	if err != nil {
		return err
	}
	log.Info("resolved height range",
		zap.String("server", server.URL),
		zap.Uint64("min", r.Min),
		zap.Uint64("max", r.Max),
		zap.Uint64("count", count))

	fetcher := scan.NewFetcher(client, log)
	bar := newProgressBar(o, r, stderr)
	if bar != nil {
		fetcher.WithProgress(func(uint64) { _ = bar.Add(1) })
	}

	blocks, err := fetcher.FetchAll(ctx, r)
	if bar != nil {
		if err != nil {
			_ = bar.Clear()
		} else {
			_ = bar.Finish()
		}
	}
	if err != nil {
		return err
	}

	rows, err := timeline.Build(blocks)
	if err != nil {
		return err
	}

	var summary *stats.BlockTimes
	if o.summary || o.report {
		s := stats.SummarizeBlockTimes(elapsed(rows))
		summary = &s
	}

	switch o.format {
	case formatJSON:
		var s *stats.BlockTimes
		if o.summary {
			s = summary
		}
		if err := output.RenderJSON(stdout, rows, s); err != nil {
			return fmt.Errorf("failed to write JSON: %w", err)
		}
	default:
		output.RenderTable(stdout, rows)
		if o.summary {
			output.RenderSummary(stdout, *summary)
		}
	}

	if o.report {
		path, err := report.WriteJSON(o.reportDir, &report.Report{
			Timestamp: time.Now().UTC(),
			Server:    server.URL,
			Range:     report.Range{Min: r.Min, Max: r.Max},
			Count:     len(rows),
			Blocks:    output.ToJSONBlocks(rows),
			Summary:   output.ToJSONSummary(*summary),
		})
		if err != nil {
			return fmt.Errorf("failed to write JSON report: %w", err)
		}
		fmt.Fprintf(stderr, "JSON report written to: %s\n", path)
	}

	return nil
}

func elapsed(rows []timeline.Row) []*time.Duration {
	out := make([]*time.Duration, len(rows))
	for i, r := range rows {
		out[i] = r.Elapsed
	}
	return out
}

// newProgressBar returns nil unless stderr is an interactive terminal and
// the table is being rendered.
func newProgressBar(o options, r scan.HeightRange, stderr io.Writer) *progressbar.ProgressBar {
	f, ok := stderr.(*os.File)
	if !ok || o.format != formatTable || o.verbose || !output.IsTerminal(f) {
		return nil
	}
	total := int64(r.Len())
	if total <= 0 {
		total = -1
	}

	return progressbar.NewOptions64(
		total,
		progressbar.OptionSetWriter(stderr),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetDescription("Fetching blocks..."),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
