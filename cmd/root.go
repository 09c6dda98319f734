package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HanielK/Investor-Operating-System-AGENT/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "investor",
	Short: "Investment scoring and ledger promotion engine",
	Long:  "Fetches fundamentals from Financial Modeling Prep, derives metric groups, scores companies 0-100, and reconciles results against a bounded dashboard ledger with an auditable promotion gate.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
