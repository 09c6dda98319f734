package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/HanielK/Investor-Operating-System-AGENT/internal/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and initialize the dashboard ledger",
}

var ledgerInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the dashboard and promotion-log tabs with headers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(); err != nil {
			return err
		}

		store, err := openStore(ctx, cfg.Ledger)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		for _, tab := range []string{cfg.Ledger.DashboardTab, cfg.Ledger.LogTab} {
			if err := store.EnsureTab(ctx, tab); err != nil {
				return eris.Wrapf(err, "ledger: ensure tab %s", tab)
			}
		}

		// Write headers only when row 1 is still blank.
		cells, err := store.ReadColumn(ctx, cfg.Ledger.DashboardTab, 1, 1, ledger.ColTicker)
		if err != nil {
			return err
		}
		if len(cells) > 0 && cells[0] == "" {
			if err := store.WriteRow(ctx, cfg.Ledger.DashboardTab, 1, ledger.DashboardHeader); err != nil {
				return eris.Wrap(err, "ledger: write dashboard header")
			}
		}
		if err := ledger.EnsureLogHeader(ctx, store, cfg.Ledger.LogTab); err != nil {
			return eris.Wrap(err, "ledger: write log header")
		}

		fmt.Printf("Ledger initialized (%s): tabs %q and %q, block rows %d-%d\n",
			cfg.Ledger.Driver, cfg.Ledger.DashboardTab, cfg.Ledger.LogTab,
			cfg.Ledger.BlockStart, cfg.Ledger.BlockEnd)
		return nil
	},
}

var ledgerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show dashboard block occupancy",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(); err != nil {
			return err
		}

		store, err := openStore(ctx, cfg.Ledger)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		lc := cfg.Ledger
		tickers, err := store.ReadColumn(ctx, lc.DashboardTab, lc.BlockStart, lc.BlockEnd, ledger.ColTicker)
		if err != nil {
			return eris.Wrap(err, "ledger: read dashboard block")
		}

		capacity := lc.BlockEnd - lc.BlockStart + 1
		var occupied int
		fmt.Printf("%-6s %s\n", "Row", "Ticker")
		for i, t := range tickers {
			if t == "" || t == ledger.HeaderTicker {
				continue
			}
			occupied++
			fmt.Printf("%-6d %s\n", lc.BlockStart+i, t)
		}
		fmt.Printf("\nOccupied %d of %d rows (%d free) in block %d-%d\n",
			occupied, capacity, capacity-occupied, lc.BlockStart, lc.BlockEnd)
		return nil
	},
}

var ledgerLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent promotion-log entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(); err != nil {
			return err
		}

		store, err := openStore(ctx, cfg.Ledger)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("rows")

		// Entries start at row 2, below the header.
		columns := make([][]string, len(ledger.LogHeader))
		for col := range columns {
			cells, err := store.ReadColumn(ctx, cfg.Ledger.LogTab, 2, limit+1, col+1)
			if err != nil {
				return eris.Wrap(err, "ledger: read promotion log")
			}
			columns[col] = cells
		}

		fmt.Println(strings.Join(ledger.LogHeader, " | "))
		for i := 0; i < limit; i++ {
			row := make([]string, len(columns))
			var blank = true
			for col := range columns {
				if i < len(columns[col]) {
					row[col] = columns[col][i]
					if row[col] != "" {
						blank = false
					}
				}
			}
			if blank {
				break
			}
			fmt.Println(strings.Join(row, " | "))
		}
		return nil
	},
}

func init() {
	ledgerLogCmd.Flags().Int("rows", 50, "maximum number of log entries to show")

	ledgerCmd.AddCommand(ledgerInitCmd)
	ledgerCmd.AddCommand(ledgerStatusCmd)
	ledgerCmd.AddCommand(ledgerLogCmd)
	rootCmd.AddCommand(ledgerCmd)
}
