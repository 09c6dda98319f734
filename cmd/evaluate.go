package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HanielK/Investor-Operating-System-AGENT/internal/evaluator"
	"github.com/HanielK/Investor-Operating-System-AGENT/internal/workbook"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate TICKER",
	Short: "Evaluate a single ticker and reconcile it against the ledger",
	Long: `Fetch fundamentals for one ticker, derive metrics, score the company,
and run the promotion protocol against the dashboard ledger.

Examples:
  # Evaluate without touching the ledger's append path
  evaluate AAPL

  # Evaluate and allow promotion into the dashboard block
  evaluate AAPL --allow-append

  # Preview promotion decisions without writing anything
  evaluate AAPL --allow-append --dry-run

  # Custom gate thresholds from a YAML file
  evaluate AAPL --allow-append --gate-config conservative.yaml

  # JSON output for scripting
  evaluate AAPL --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.Bool("allow-append", false, "allow promotion of new tickers into the dashboard block")
	f.Bool("dry-run", false, "compute decisions without writing to the ledger")
	f.String("gate-config", "", "YAML file with gate threshold overrides")
	f.String("format", "table", "output format: table, json, or xlsx")
	f.String("output", "", "output file path (default: stdout; xlsx defaults to a timestamped file)")

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(); err != nil {
		return err
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
		return eris.Errorf("evaluate: --format must be table, json, or xlsx (got %q)", format)
	}

	ev, store, err := buildEvaluator(ctx, cfg, gate)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	runID := newRunID()
	log := zap.L().With(zap.String("command", "evaluate"), zap.String("run_id", runID))
	log.Info("evaluating ticker",
		zap.String("ticker", args[0]),
		zap.Bool("allow_append", allowAppend),
		zap.Bool("dry_run", dryRun),
	)

	result, err := ev.Evaluate(ctx, args[0], evaluator.Options{
		AllowAppend: allowAppend,
		DryRun:      dryRun,
		RunID:       runID,
	})
	if err != nil {
		return eris.Wrapf(err, "evaluate: %s", args[0])
	}

	return outputResults([]*evaluator.Result{result}, format, outputPath)
}

func outputResults(results []*evaluator.Result, format, outputPath string) error {
	if format == "xlsx" {
		if outputPath == "" {
			if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
				return eris.Wrap(err, "evaluate: create output dir")
			}
			outputPath = filepath.Join(cfg.Output.Dir, workbook.DefaultFilename(time.Now()))
		}
		if err := workbook.Write(outputPath, results); err != nil {
			return err
		}
		fmt.Printf("Workbook written to %s\n", outputPath)
		return nil
	}

	w := os.Stdout
	if outputPath != "" {
		var err error
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "evaluate: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(results) == 1 {
			return enc.Encode(results[0])
		}
		return enc.Encode(results)
	}

	for _, r := range results {
		printResult(w, r)
	}
	return nil
}

func printResult(w *os.File, r *evaluator.Result) {
	fmt.Fprintf(w, "Ticker:         %s\n", r.Ticker)
	fmt.Fprintf(w, "Company:        %s\n", r.CompanyName)
	fmt.Fprintf(w, "Price:          %.2f (52w high %.2f)\n", r.Price, r.YearHigh)
	fmt.Fprintf(w, "Score:          %.2f / 100\n", r.Score.Total)
	fmt.Fprintf(w, "Recommendation: %s\n", r.Score.Recommendation)
	fmt.Fprintf(w, "Moat:           %d / 10\n", r.Score.MoatScore)

	s := r.Score.Subscores
	fmt.Fprintf(w, "\nSubscores:\n")
	fmt.Fprintf(w, "  %-16s %6.2f\n", "Profitability", s.Profitability)
	fmt.Fprintf(w, "  %-16s %6.2f\n", "Growth", s.Growth)
	fmt.Fprintf(w, "  %-16s %6.2f\n", "Value", s.Value)
	fmt.Fprintf(w, "  %-16s %6.2f\n", "Quality", s.Quality)
	fmt.Fprintf(w, "  %-16s %6.2f\n", "Financial Health", s.FinancialHealth)

	if len(r.Score.Strengths) > 0 {
		fmt.Fprintf(w, "\nStrengths:\n")
		for _, v := range r.Score.Strengths {
			fmt.Fprintf(w, "  + %s\n", v)
		}
	}
	if len(r.Score.Concerns) > 0 {
		fmt.Fprintf(w, "\nConcerns:\n")
		for _, v := range r.Score.Concerns {
			fmt.Fprintf(w, "  - %s\n", v)
		}
	}
	if len(r.Score.RiskFlags) > 0 {
		fmt.Fprintf(w, "\nRisk flags:     %s\n", strings.Join(r.Score.RiskFlags, "; "))
	}

	if o := r.Outcome; o != nil {
		fmt.Fprintf(w, "\nLedger action:  %s", o.Action)
		if o.DryRun {
			fmt.Fprint(w, " (dry run)")
		}
		fmt.Fprintln(w)
		if o.Row > 0 {
			fmt.Fprintf(w, "Dashboard row:  %d\n", o.Row)
		}
		fmt.Fprintf(w, "Reason:         %s\n", o.Reason)
	}
	fmt.Fprintln(w)
}
