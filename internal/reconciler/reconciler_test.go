package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HanielK/Investor-Operating-System-AGENT/internal/config"
	"github.com/HanielK/Investor-Operating-System-AGENT/internal/ledger"
	"github.com/HanielK/Investor-Operating-System-AGENT/internal/model"
)

func testLedgerConfig() config.LedgerConfig {
	return config.LedgerConfig{
		Driver:       "memory",
		DashboardTab: "Dashboard",
		LogTab:       "Promotion Log",
		BlockStart:   2,
		BlockEnd:     5,
	}
}

func testGateConfig() config.GateConfig {
	return config.GateConfig{
		PromoteThreshold:      70,
		HighPriorityThreshold: 85,
		MoatGate:              7,
		RequireFCFPositive:    true,
		RequireThesisIntact:   true,
		MaxRiskFlags:          2,
		NetDebtToEBITDAMax:    3.0,
	}
}

func fixedClock() func() time.Time {
	ts := time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func newTestReconciler(store ledger.Store) *Reconciler {
	return New(store, testLedgerConfig(), testGateConfig()).WithClock(fixedClock())
}

func passingInput(ticker string, total float64) Input {
	return Input{
		Ticker:      ticker,
		CompanyName: ticker + " Corp",
		Price:       90,
		YearHigh:    100,
		Metrics: model.MetricsRecord{
			Quality: &model.QualityMetrics{DebtToEBITDA: 1.0, FreeCashFlow: 50},
		},
		Score: model.ScoreRecord{
			Total:          total,
			MoatScore:      8,
			Recommendation: model.RecommendationBuy,
		},
		AllowAppend: true,
		RunID:       "run-1",
	}
}

func TestReconcilePromoted(t *testing.T) {
	store := ledger.NewMemory()
	r := newTestReconciler(store)

	out, err := r.Reconcile(context.Background(), passingInput("AAPL", 75))
	require.NoError(t, err)

	assert.Equal(t, model.ActionPromoted, out.Action)
	assert.Equal(t, 2, out.Row)
	require.NotNil(t, out.LogEntry)
	assert.Equal(t, model.ActionPromoted, out.LogEntry.Action)
	assert.Equal(t, "run-1", out.LogEntry.RunID)

	row := store.Row("Dashboard", 2)
	require.NotNil(t, row)
	assert.Equal(t, "AAPL", row[0])
	assert.Equal(t, "90.00", row[1])
	assert.Equal(t, "100.00", row[2])
	assert.Equal(t, "10.00", row[3])
	assert.Equal(t, "75.00", row[4])

	// Header plus one entry.
	assert.Equal(t, 2, store.RowCount("Promotion Log"))
	logRow := store.Row("Promotion Log", 2)
	require.NotNil(t, logRow)
	assert.Equal(t, "AAPL", logRow[1])
	assert.Equal(t, "PROMOTED", logRow[5])
}

func TestReconcileHighPriority(t *testing.T) {
	store := ledger.NewMemory()
	r := newTestReconciler(store)

	out, err := r.Reconcile(context.Background(), passingInput("NVDA", 90))
	require.NoError(t, err)

	assert.Equal(t, model.ActionHighPriority, out.Action)
	assert.Equal(t, 2, out.Row)

	// Exactly at the threshold still counts.
	out, err = r.Reconcile(context.Background(), passingInput("MSFT", 85))
	require.NoError(t, err)
	assert.Equal(t, model.ActionHighPriority, out.Action)
	assert.Equal(t, 3, out.Row)
}

func TestReconcileUpdateInPlace(t *testing.T) {
	store := ledger.NewMemory()
	r := newTestReconciler(store)
	ctx := context.Background()

	_, err := r.Reconcile(ctx, passingInput("AAPL", 75))
	require.NoError(t, err)
	logCount := store.RowCount("Promotion Log")

	// Same ticker again with new data: in-place update, no gate, no log.
	in := passingInput("AAPL", 40) // would fail the gate if evaluated
	in.Price = 80
	out, err := r.Reconcile(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, model.ActionUpdated, out.Action)
	assert.Equal(t, 2, out.Row)
	assert.Nil(t, out.LogEntry)
	assert.Equal(t, "already tracked; dashboard row updated", out.Reason)

	row := store.Row("Dashboard", 2)
	assert.Equal(t, "80.00", row[1])
	assert.Equal(t, "40.00", row[4])
	assert.Equal(t, logCount, store.RowCount("Promotion Log"))
}

func TestReconcileTickerNormalization(t *testing.T) {
	store := ledger.NewMemory()
	r := newTestReconciler(store)
	ctx := context.Background()

	_, err := r.Reconcile(ctx, passingInput("BRK-B", 75))
	require.NoError(t, err)

	out, err := r.Reconcile(ctx, passingInput("  brk-b ", 76))
	require.NoError(t, err)
	assert.Equal(t, model.ActionUpdated, out.Action)
	assert.Equal(t, 2, out.Row)
}

func TestReconcileEmptyTicker(t *testing.T) {
	r := newTestReconciler(ledger.NewMemory())

	out, err := r.Reconcile(context.Background(), passingInput("   ", 75))
	assert.Nil(t, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ticker is empty")
}

func TestReconcileRejected(t *testing.T) {
	store := ledger.NewMemory()
	r := newTestReconciler(store)

	in := passingInput("WEAK", 55)
	out, err := r.Reconcile(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, model.ActionRejected, out.Action)
	assert.Equal(t, 0, out.Row)
	assert.Equal(t, "score below threshold (55.00 < 70.00)", out.Reason)
	require.NotNil(t, out.LogEntry)
	assert.Equal(t, model.ActionRejected, out.LogEntry.Action)

	// Nothing written to the dashboard block.
	assert.Nil(t, store.Row("Dashboard", 2))
	// But the rejection is audited.
	assert.Equal(t, 2, store.RowCount("Promotion Log"))
}

func TestReconcileAppendDisabled(t *testing.T) {
	store := ledger.NewMemory()
	r := newTestReconciler(store)

	in := passingInput("AAPL", 75)
	in.AllowAppend = false
	out, err := r.Reconcile(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, model.ActionNotAppended, out.Action)
	assert.Equal(t, 0, out.Row)
	require.NotNil(t, out.LogEntry)
	assert.Equal(t, model.ActionNotAppended, out.LogEntry.Action)
	assert.Contains(t, out.Reason, "gate passed")

	assert.Nil(t, store.Row("Dashboard", 2))
	assert.Equal(t, 2, store.RowCount("Promotion Log"))
}

func TestReconcileNoCapacity(t *testing.T) {
	store := ledger.NewMemory()
	r := newTestReconciler(store)
	ctx := context.Background()

	// Block is rows 2-5: four slots.
	for _, tk := range []string{"AAA", "BBB", "CCC", "DDD"} {
		out, err := r.Reconcile(ctx, passingInput(tk, 75))
		require.NoError(t, err)
		assert.Equal(t, model.ActionPromoted, out.Action)
	}

	out, err := r.Reconcile(ctx, passingInput("EEE", 75))
	require.NoError(t, err)
	assert.Equal(t, model.ActionNoCapacity, out.Action)
	assert.Equal(t, 0, out.Row)
	assert.Equal(t, "gate passed but no blank row in block 2-5", out.Reason)
	require.NotNil(t, out.LogEntry)
}

func TestReconcileReclaimsInteriorBlank(t *testing.T) {
	store := ledger.NewMemory()
	r := newTestReconciler(store)
	ctx := context.Background()

	for _, tk := range []string{"AAA", "BBB", "CCC"} {
		_, err := r.Reconcile(ctx, passingInput(tk, 75))
		require.NoError(t, err)
	}

	// Manually blank the middle row, as an operator would.
	require.NoError(t, store.WriteRow(ctx, "Dashboard", 3, []string{""}))

	out, err := r.Reconcile(ctx, passingInput("DDD", 75))
	require.NoError(t, err)
	assert.Equal(t, model.ActionPromoted, out.Action)
	assert.Equal(t, 3, out.Row)
}

func TestReconcileSkipsHeaderToken(t *testing.T) {
	store := ledger.NewMemory()
	r := newTestReconciler(store)
	ctx := context.Background()

	// A header token inside the block is never an occupied slot for lookup,
	// but it is not a blank row either.
	require.NoError(t, store.EnsureTab(ctx, "Dashboard"))
	require.NoError(t, store.WriteRow(ctx, "Dashboard", 2, []string{"Ticker"}))

	out, err := r.Reconcile(ctx, passingInput("TICKER", 75))
	require.NoError(t, err)
	assert.Equal(t, model.ActionPromoted, out.Action)
	assert.Equal(t, 3, out.Row)
}

func TestReconcileDryRunWritesNothing(t *testing.T) {
	ctx := context.Background()

	wet := ledger.NewMemory()
	dry := ledger.NewMemory()
	rWet := newTestReconciler(wet)
	rDry := newTestReconciler(dry)

	cases := []Input{
		passingInput("AAPL", 90),
		passingInput("WEAK", 50),
		func() Input { in := passingInput("MSFT", 75); in.AllowAppend = false; return in }(),
	}

	for _, in := range cases {
		wetIn := in
		wetOut, err := rWet.Reconcile(ctx, wetIn)
		require.NoError(t, err)

		dryIn := in
		dryIn.DryRun = true
		dryOut, err := rDry.Reconcile(ctx, dryIn)
		require.NoError(t, err)

		// Identical decisions, reasons, and log entry content.
		assert.Equal(t, wetOut.Action, dryOut.Action)
		assert.Equal(t, wetOut.Row, dryOut.Row)
		assert.Equal(t, wetOut.Reason, dryOut.Reason)
		if wetOut.LogEntry != nil {
			require.NotNil(t, dryOut.LogEntry)
			assert.Equal(t, *wetOut.LogEntry, *dryOut.LogEntry)
		}
		assert.True(t, dryOut.DryRun)

		// And zero mutations on the dry store.
		assert.Equal(t, 0, dry.RowCount("Dashboard"))
		assert.Equal(t, 0, dry.RowCount("Promotion Log"))
	}
}

func TestReconcileCreatesLogHeader(t *testing.T) {
	store := ledger.NewMemory()
	r := newTestReconciler(store)

	_, err := r.Reconcile(context.Background(), passingInput("AAPL", 75))
	require.NoError(t, err)

	header := store.Row("Promotion Log", 1)
	assert.Equal(t, ledger.LogHeader, header)
}

func TestDrawdownPct(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		high  float64
		want  float64
	}{
		{"ten percent off high", 90, 100, 10},
		{"at high", 100, 100, 0},
		{"unknown high", 50, 0, 0},
		{"negative high", 50, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DrawdownPct(tt.price, tt.high), 0.001)
		})
	}
}
