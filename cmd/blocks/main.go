// Command blocks lists a range of blocks from a chain JSON-RPC server as a
// table, with the time elapsed between consecutive blocks.
//
// Usage:
//
//	blocks http://localhost:8000
//	blocks http://localhost:8000 --count 100
//	blocks ledger --max-height 5000 --summary
//	blocks ledger --format json --report
//
// Without --max-height the range ends at the server's latest block.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmagro/chain-blocks/internal/config"
	"github.com/dmagro/chain-blocks/internal/report"
	"github.com/dmagro/chain-blocks/internal/scan"
)

func rootCmd() *cobra.Command {
	var (
		opts      options
		maxHeight uint64
	)

	cmd := &cobra.Command{
		Use:   "blocks <server>",
		Short: "List a range of blocks with inter-block times",
		Long: `Fetch a contiguous range of blocks from a chain JSON-RPC server and
print them as a table with the time elapsed since the previous block.

<server> is either a URL or the name of a server in the config file.

Examples:
  blocks http://localhost:8000
  blocks http://localhost:8000 --count 100
  blocks ledger --max-height 5000 --summary
  blocks ledger --format json --report`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.server = args[0]
			opts.countSet = cmd.Flags().Changed("count")
			opts.configSet = cmd.Flags().Changed("config")
			if cmd.Flags().Changed("max-height") {
				opts.maxHeight = &maxHeight
			}
			if err := opts.validate(); err != nil {
				return err
			}

			config.LoadEnv(".env")
			return runBlocks(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().Uint64Var(&opts.count, "count", scan.DefaultCount, "Number of blocks below the upper bound to list")
	cmd.Flags().Uint64Var(&maxHeight, "max-height", 0, "Upper bound height (default: the server's latest block)")
	cmd.Flags().StringVar(&opts.configPath, "config", config.DefaultPath, "Config file path")
	cmd.Flags().StringVar(&opts.format, "format", formatTable, "Output format: table|json")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "Print block-time statistics after the table")
	cmd.Flags().BoolVar(&opts.report, "report", false, "Also write a JSON report to the reports directory")
	cmd.Flags().StringVar(&opts.reportDir, "report-dir", report.DefaultDir, "Directory for --report files")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log each RPC call to stderr")

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
