package main

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/HanielK/Investor-Operating-System-AGENT/internal/config"
	"github.com/HanielK/Investor-Operating-System-AGENT/internal/evaluator"
	"github.com/HanielK/Investor-Operating-System-AGENT/internal/ledger"
	"github.com/HanielK/Investor-Operating-System-AGENT/internal/reconciler"
	"github.com/HanielK/Investor-Operating-System-AGENT/internal/resilience"
	"github.com/HanielK/Investor-Operating-System-AGENT/pkg/fmp"
)

// openStore builds the configured ledger backend and runs its migration.
func openStore(ctx context.Context, c config.LedgerConfig) (ledger.Store, error) {
	switch c.Driver {
	case "sqlite":
		s, err := ledger.NewSQLite(c.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close() //nolint:errcheck
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := ledger.NewPostgres(ctx, c.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close() //nolint:errcheck
			return nil, err
		}
		return s, nil
	case "memory":
		return ledger.NewMemory(), nil
	default:
		return nil, eris.Errorf("ledger: unknown driver %q", c.Driver)
	}
}

// newFMPClient builds the market-data client from config.
func newFMPClient(c config.FMPConfig) (fmp.Client, error) {
	retryCfg := resilience.DefaultRetryConfig()
	if c.MaxRetries > 0 {
		retryCfg.MaxAttempts = c.MaxRetries
	}

	opts := []fmp.Option{
		fmp.WithHTTPClient(&http.Client{Timeout: time.Duration(c.TimeoutSecs) * time.Second}),
		fmp.WithStatementLimit(c.StatementLimit),
		fmp.WithRateLimit(c.RequestsPerSec),
		fmp.WithRetry(retryCfg),
	}
	if c.BaseURL != "" {
		opts = append(opts, fmp.WithBaseURL(c.BaseURL))
	}
	return fmp.NewClient(c.Key, opts...)
}

// buildEvaluator wires store, reconciler, and data source. The caller owns
// the returned store and must Close it.
func buildEvaluator(ctx context.Context, c *config.Config, gate config.GateConfig) (*evaluator.Evaluator, ledger.Store, error) {
	store, err := openStore(ctx, c.Ledger)
	if err != nil {
		return nil, nil, err
	}

	client, err := newFMPClient(c.FMP)
	if err != nil {
		store.Close() //nolint:errcheck
		return nil, nil, err
	}

	rec := reconciler.New(store, c.Ledger, gate)
	return evaluator.New(client, rec), store, nil
}

// resolveGate returns the effective gate config, applying a --gate-config
// file override when the flag is set.
func resolveGate(cmd *cobra.Command, base config.GateConfig) (config.GateConfig, error) {
	path, _ := cmd.Flags().GetString("gate-config")
	if path == "" {
		return base, nil
	}
	return config.LoadGateFile(path, base)
}

func newRunID() string {
	return uuid.NewString()
}
