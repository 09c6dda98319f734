// Package evaluator wires the market-data source, the metrics deriver, the
// scorer, and the promotion reconciler into the evaluate operation exposed to
// batch callers and the HTTP surface.
package evaluator

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/HanielK/Investor-Operating-System-AGENT/internal/metrics"
	"github.com/HanielK/Investor-Operating-System-AGENT/internal/model"
	"github.com/HanielK/Investor-Operating-System-AGENT/internal/reconciler"
	"github.com/HanielK/Investor-Operating-System-AGENT/internal/scorer"
	"github.com/HanielK/Investor-Operating-System-AGENT/pkg/fmp"
)

// DataSource is the consumed financial-data capability.
type DataSource interface {
	GetBundle(ctx context.Context, ticker string) (*model.FinancialBundle, error)
}

// Options control one evaluation invocation.
type Options struct {
	AllowAppend bool
	DryRun      bool
	RunID       string
}

// Result is the full output of one ticker evaluation.
type Result struct {
	Ticker      string              `json:"ticker"`
	CompanyName string              `json:"company_name"`
	Price       float64             `json:"price"`
	YearHigh    float64             `json:"year_high"`
	Metrics     model.MetricsRecord `json:"metrics"`
	Score       model.ScoreRecord   `json:"score"`
	Outcome     *reconciler.Outcome `json:"outcome"`
	RunID       string              `json:"run_id"`
}

// Evaluator runs derive, score, and reconcile for single tickers.
type Evaluator struct {
	source DataSource
	rec    *reconciler.Reconciler
}

// New creates an Evaluator with injected capabilities.
func New(source DataSource, rec *reconciler.Reconciler) *Evaluator {
	return &Evaluator{source: source, rec: rec}
}

// Evaluate runs the full pipeline for one ticker: fetch bundle, derive
// metrics, score, reconcile against the ledger. Data-source and ledger
// failures are fatal for this ticker only.
func (e *Evaluator) Evaluate(ctx context.Context, ticker string, opts Options) (*Result, error) {
	bundle, err := e.source.GetBundle(ctx, ticker)
	if err != nil {
		return nil, eris.Wrapf(err, "evaluator: fetch bundle for %s", ticker)
	}
	return e.EvaluateBundle(ctx, bundle, opts)
}

// EvaluateBundle runs derive, score, and reconcile on an already-fetched
// bundle. Batch callers use it after prefetching bundles concurrently; the
// reconcile step itself must stay serialized per ledger.
func (e *Evaluator) EvaluateBundle(ctx context.Context, bundle *model.FinancialBundle, opts Options) (*Result, error) {
	if bundle == nil {
		return nil, eris.New("evaluator: nil bundle")
	}

	derived := metrics.Derive(bundle)
	score := scorer.Score(derived)

	companyName := bundle.Profile.CompanyName
	if companyName == "" {
		companyName = bundle.Ticker
	}

	outcome, err := e.rec.Reconcile(ctx, reconciler.Input{
		Ticker:      bundle.Ticker,
		CompanyName: companyName,
		Price:       bundle.Profile.Price,
		YearHigh:    bundle.Profile.YearHigh,
		Metrics:     derived,
		Score:       score,
		AllowAppend: opts.AllowAppend,
		DryRun:      opts.DryRun,
		RunID:       opts.RunID,
	})

	result := &Result{
		Ticker:      fmp.NormalizeTicker(bundle.Ticker),
		CompanyName: companyName,
		Price:       bundle.Profile.Price,
		YearHigh:    bundle.Profile.YearHigh,
		Metrics:     derived,
		Score:       score,
		Outcome:     outcome,
		RunID:       opts.RunID,
	}
	if err != nil {
		// A non-nil outcome with an error means the row write landed but the
		// audit entry did not; surface both.
		return result, err
	}

	zap.L().Info("evaluator: ticker evaluated",
		zap.String("ticker", result.Ticker),
		zap.Float64("score", score.Total),
		zap.String("recommendation", score.Recommendation),
		zap.String("action", string(outcome.Action)),
	)
	return result, nil
}
