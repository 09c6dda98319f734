package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HanielK/Investor-Operating-System-AGENT/internal/evaluator"
)

var batchCmd = &cobra.Command{
	Use:   "batch [TICKER...]",
	Short: "Evaluate a list of tickers in one run",
	Long: `Evaluate multiple tickers against the ledger. Bundles are prefetched
concurrently; each ticker's derive, score, and reconcile steps then run to
completion in input order, so dashboard capacity is consumed deterministically.

A failed ticker is reported and skipped; it never aborts the run.

Examples:
  # Evaluate three tickers read-only
  batch AAPL MSFT GOOG

  # Promote from a watchlist file (one ticker per line, # comments allowed)
  batch --file watchlist.txt --allow-append

  # Export the whole run to a workbook
  batch --file watchlist.txt --format xlsx --output run.xlsx`,
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.String("file", "", "file with one ticker per line")
	f.Bool("allow-append", false, "allow promotion of new tickers into the dashboard block")
	f.Bool("dry-run", false, "compute decisions without writing to the ledger")
	f.String("gate-config", "", "YAML file with gate threshold overrides")
	f.Int("concurrency", 0, "bundle prefetch concurrency (default from config)")
	f.String("format", "table", "output format: table, json, or xlsx")
	f.String("output", "", "output file path (default: stdout; xlsx defaults to a timestamped file)")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(); err != nil {
		return err
	}

	tickers, err := collectTickers(cmd, args)
	if err != nil {
		return err
	}
	if len(tickers) == 0 {
		return eris.New("batch: no tickers given (pass arguments or --file)")
	}

	gate, err := resolveGate(cmd, cfg.Gate)
	if err != nil {
		return err
	}

	allowAppend, _ := cmd.Flags().GetBool("allow-append")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	if format != "table" && format != "json" && format != "xlsx" {
		return eris.Errorf("batch: --format must be table, json, or xlsx (got %q)", format)
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	if concurrency <= 0 {
		concurrency = cfg.Batch.PrefetchConcurrency
	}

	ev, store, err := buildEvaluator(ctx, cfg, gate)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	runID := newRunID()
	zap.L().Info("starting batch run",
		zap.String("run_id", runID),
		zap.Int("tickers", len(tickers)),
		zap.Bool("allow_append", allowAppend),
		zap.Bool("dry_run", dryRun),
		zap.Int("concurrency", concurrency),
	)

	res := ev.EvaluateBatch(ctx, tickers, evaluator.BatchOptions{
		Options: evaluator.Options{
			AllowAppend: allowAppend,
			DryRun:      dryRun,
			RunID:       runID,
		},
		PrefetchConcurrency: concurrency,
	})

	if err := outputResults(res.Results, format, outputPath); err != nil {
		return err
	}
	printBatchSummary(res)

	if len(res.Errors) > 0 && len(res.Results) == 0 {
		return eris.Errorf("batch: all %d tickers failed", len(res.Errors))
	}
	return nil
}

func collectTickers(cmd *cobra.Command, args []string) ([]string, error) {
	tickers := append([]string{}, args...)

	path, _ := cmd.Flags().GetString("file")
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "batch: open ticker file %s", path)
		}
		defer f.Close() //nolint:errcheck

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			tickers = append(tickers, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, eris.Wrapf(err, "batch: read ticker file %s", path)
		}
	}

	return tickers, nil
}

func printBatchSummary(res *evaluator.BatchResult) {
	fmt.Printf("--- Summary ---\n")
	fmt.Printf("Run ID:    %s\n", res.RunID)
	fmt.Printf("Evaluated: %d\n", len(res.Results))
	fmt.Printf("Failed:    %d\n", len(res.Errors))
	fmt.Printf("Duration:  %s\n", res.Duration.Round(time.Millisecond))

	actions := map[string]int{}
	for _, r := range res.Results {
		if r.Outcome != nil {
			actions[string(r.Outcome.Action)]++
		}
	}
	if len(actions) > 0 {
		fmt.Println("Actions:")
		for action, n := range actions {
			fmt.Printf("  %-32s %d\n", action, n)
		}
	}
	for _, e := range res.Errors {
		fmt.Printf("  FAILED %-8s %s\n", e.Ticker, e.Err)
	}
}
