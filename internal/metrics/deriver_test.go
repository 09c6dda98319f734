package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HanielK/Investor-Operating-System-AGENT/internal/model"
)

func sampleBundle() *model.FinancialBundle {
	return &model.FinancialBundle{
		Ticker: "AAPL",
		Profile: model.CompanyProfile{
			Symbol:      "AAPL",
			CompanyName: "Apple Inc.",
			Price:       180,
			YearHigh:    200,
			MarketCap:   2_800_000_000_000,
		},
		IncomeStatements: []model.IncomeStatement{
			{Revenue: 1210, GrossProfit: 550, OperatingIncome: 360, NetIncome: 260, EBITDA: 400, InterestExpense: 10},
			{Revenue: 1000, GrossProfit: 450, OperatingIncome: 300, NetIncome: 200, EBITDA: 330, InterestExpense: 12},
		},
		BalanceSheets: []model.BalanceSheet{
			{
				TotalAssets:             2000,
				TotalCurrentAssets:      800,
				TotalCurrentLiabilities: 350,
				Inventory:               50,
				TotalDebt:               400,
				NetDebt:                 300,
				TotalStockholdersEquity: 1000,
			},
		},
		CashFlows: []model.CashFlowStatement{
			{OperatingCashFlow: 320, FreeCashFlow: 250},
		},
		KeyMetrics: []model.KeyMetricsSnapshot{
			{PERatio: 28, PBRatio: 6, PriceToSalesRatio: 7, EVToOperatingCF: 22},
		},
	}
}

func TestDeriveFullBundle(t *testing.T) {
	m := Derive(sampleBundle())

	require.NotNil(t, m.Profitability)
	assert.InDelta(t, 21.49, m.Profitability.NetMargin, 0.01)
	assert.InDelta(t, 13.0, m.Profitability.ROA, 0.01)
	assert.InDelta(t, 26.0, m.Profitability.ROE, 0.01)
	assert.InDelta(t, 45.45, m.Profitability.GrossMargin, 0.01)
	assert.InDelta(t, 29.75, m.Profitability.OperatingMargin, 0.01)

	require.NotNil(t, m.Growth)
	assert.InDelta(t, 21.0, m.Growth.RevenueGrowth, 0.01)
	assert.InDelta(t, 30.0, m.Growth.EarningsGrowth, 0.01)
	assert.InDelta(t, 21.0, m.Growth.RevenueCAGR5Y, 0.01)

	require.NotNil(t, m.Value)
	assert.InDelta(t, 28, m.Value.PERatio, 0.001)
	assert.InDelta(t, 2_800_000_000_000, m.Value.MarketCap, 1)

	require.NotNil(t, m.Quality)
	assert.InDelta(t, 0.4, m.Quality.DebtToEquity, 0.001)
	assert.InDelta(t, 1.0, m.Quality.DebtToEBITDA, 0.001)
	require.NotNil(t, m.Quality.NetDebtToEBITDA)
	assert.InDelta(t, 0.75, *m.Quality.NetDebtToEBITDA, 0.001)
	assert.InDelta(t, 1.2308, m.Quality.CashFlowToNetIncome, 0.001)
	assert.InDelta(t, 250, m.Quality.FreeCashFlow, 0.001)

	require.NotNil(t, m.FinancialHealth)
	assert.InDelta(t, 2.2857, m.FinancialHealth.CurrentRatio, 0.001)
	assert.InDelta(t, 2.1428, m.FinancialHealth.QuickRatio, 0.001)
	assert.InDelta(t, 36.0, m.FinancialHealth.InterestCoverage, 0.01)
}

func TestDeriveNilBundle(t *testing.T) {
	m := Derive(nil)

	assert.Nil(t, m.Profitability)
	assert.Nil(t, m.Growth)
	assert.Nil(t, m.Value)
	assert.Nil(t, m.Quality)
	assert.Nil(t, m.FinancialHealth)
}

func TestDeriveMissingSources(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.FinancialBundle)
		check  func(*testing.T, model.MetricsRecord)
	}{
		{
			"no income statements",
			func(b *model.FinancialBundle) { b.IncomeStatements = nil },
			func(t *testing.T, m model.MetricsRecord) {
				assert.Nil(t, m.Profitability)
				assert.Nil(t, m.Growth)
				assert.Nil(t, m.Quality)
				assert.Nil(t, m.FinancialHealth)
				assert.NotNil(t, m.Value)
			},
		},
		{
			"single income statement",
			func(b *model.FinancialBundle) { b.IncomeStatements = b.IncomeStatements[:1] },
			func(t *testing.T, m model.MetricsRecord) {
				assert.Nil(t, m.Growth)
				assert.NotNil(t, m.Profitability)
			},
		},
		{
			"no balance sheets",
			func(b *model.FinancialBundle) { b.BalanceSheets = nil },
			func(t *testing.T, m model.MetricsRecord) {
				assert.Nil(t, m.Profitability)
				assert.Nil(t, m.Quality)
				assert.Nil(t, m.FinancialHealth)
				assert.NotNil(t, m.Growth)
			},
		},
		{
			"no cash flows",
			func(b *model.FinancialBundle) { b.CashFlows = nil },
			func(t *testing.T, m model.MetricsRecord) {
				assert.Nil(t, m.Quality)
				assert.NotNil(t, m.Profitability)
			},
		},
		{
			"no key metrics",
			func(b *model.FinancialBundle) { b.KeyMetrics = nil },
			func(t *testing.T, m model.MetricsRecord) {
				assert.Nil(t, m.Value)
				assert.NotNil(t, m.Profitability)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := sampleBundle()
			tt.mutate(b)
			tt.check(t, Derive(b))
		})
	}
}

func TestDeriveInterestCoverageNoExpense(t *testing.T) {
	b := sampleBundle()
	b.IncomeStatements[0].InterestExpense = 0

	m := Derive(b)
	require.NotNil(t, m.FinancialHealth)
	assert.True(t, math.IsInf(m.FinancialHealth.InterestCoverage, 1))
}

func TestDeriveNetDebtAbsent(t *testing.T) {
	b := sampleBundle()
	b.BalanceSheets[0].NetDebt = 0

	m := Derive(b)
	require.NotNil(t, m.Quality)
	assert.Nil(t, m.Quality.NetDebtToEBITDA)
}

func TestDeriveCarriesOverrides(t *testing.T) {
	moat := 8.0
	roic := true
	b := sampleBundle()
	b.MoatScore = &moat
	b.RiskFlags = []string{"customer concentration"}
	b.ThesisBroken = true
	b.ROICAboveSectorMedian = &roic

	m := Derive(b)
	require.NotNil(t, m.MoatScore)
	assert.Equal(t, 8.0, *m.MoatScore)
	assert.Equal(t, []string{"customer concentration"}, m.RiskFlags)
	assert.True(t, m.ThesisBroken)
	require.NotNil(t, m.ROICAboveSectorMedian)
	assert.True(t, *m.ROICAboveSectorMedian)
}

func TestGrowthRate(t *testing.T) {
	tests := []struct {
		name string
		old  float64
		new  float64
		want float64
	}{
		{"positive growth", 100, 121, 21},
		{"decline", 100, 80, -20},
		{"zero base", 0, 500, 0},
		{"no change", 100, 100, 0},
		{"negative base", -100, -50, -50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, GrowthRate(tt.old, tt.new), 0.001)
		})
	}
}

func TestCAGR(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"two periods", []float64{121, 100}, 21},
		{"five periods", []float64{146.41, 133.1, 121, 110, 100}, 10},
		{"skips non-positive", []float64{121, 0, 100}, 21},
		{"all non-positive", []float64{0, -5}, 0},
		{"single value", []float64{100}, 0},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CAGR(tt.values), 0.01)
		})
	}
}
