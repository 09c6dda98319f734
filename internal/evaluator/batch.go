package evaluator

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HanielK/Investor-Operating-System-AGENT/internal/model"
	"github.com/HanielK/Investor-Operating-System-AGENT/pkg/fmp"
)

// TickerError records a per-ticker failure inside a batch run. A failed
// ticker never aborts the batch.
type TickerError struct {
	Ticker string `json:"ticker"`
	Err    string `json:"error"`
}

// BatchResult aggregates one batch run.
type BatchResult struct {
	RunID    string        `json:"run_id"`
	Results  []*Result     `json:"results"`
	Errors   []TickerError `json:"errors,omitempty"`
	Duration time.Duration `json:"duration"`
}

// BatchOptions control a batch run. PrefetchConcurrency bounds the number of
// simultaneous data-source fetches; reconciliation is always sequential in
// input order so promotion capacity is consumed deterministically.
type BatchOptions struct {
	Options
	PrefetchConcurrency int
}

type fetched struct {
	ticker string
	bundle *model.FinancialBundle
	err    error
}

// EvaluateBatch evaluates tickers in order. Bundles are prefetched
// concurrently, then each ticker runs derive, score, and reconcile to
// completion before the next begins.
func (e *Evaluator) EvaluateBatch(ctx context.Context, tickers []string, opts BatchOptions) *BatchResult {
	start := time.Now()
	out := &BatchResult{RunID: opts.RunID}
	if len(tickers) == 0 {
		out.Duration = time.Since(start)
		return out
	}

	concurrency := opts.PrefetchConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	bundles := make([]fetched, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, t := range tickers {
		g.Go(func() error {
			b, err := e.source.GetBundle(gctx, t)
			bundles[i] = fetched{ticker: t, bundle: b, err: err}
			return nil // fetch failures are per-ticker, not batch-fatal
		})
	}
	_ = g.Wait()

	for _, f := range bundles {
		ticker := fmp.NormalizeTicker(f.ticker)
		if f.err != nil {
			zap.L().Warn("evaluator: batch fetch failed",
				zap.String("ticker", ticker), zap.Error(f.err))
			out.Errors = append(out.Errors, TickerError{Ticker: ticker, Err: f.err.Error()})
			continue
		}
		res, err := e.EvaluateBundle(ctx, f.bundle, opts.Options)
		if res != nil {
			out.Results = append(out.Results, res)
		}
		if err != nil {
			zap.L().Warn("evaluator: batch evaluation failed",
				zap.String("ticker", ticker), zap.Error(err))
			out.Errors = append(out.Errors, TickerError{Ticker: ticker, Err: err.Error()})
		}
	}

	out.Duration = time.Since(start)
	zap.L().Info("evaluator: batch complete",
		zap.String("run_id", opts.RunID),
		zap.Int("tickers", len(tickers)),
		zap.Int("succeeded", len(out.Results)),
		zap.Int("failed", len(out.Errors)),
		zap.Duration("duration", out.Duration),
	)
	return out
}
