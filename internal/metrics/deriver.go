// Package metrics derives normalized investment metrics from raw financial
// statement data. Derivation is pure: it performs no I/O, never fails, and
// degrades to nil metric groups when source statements are missing.
package metrics

import (
	"math"

	"github.com/HanielK/Investor-Operating-System-AGENT/internal/model"
)

// Derive computes all metric groups from a financial bundle. Statement slices
// are expected most-recent-first. A group is nil, never partially populated,
// when its required source sequences are empty.
func Derive(bundle *model.FinancialBundle) model.MetricsRecord {
	if bundle == nil {
		return model.MetricsRecord{}
	}
	return model.MetricsRecord{
		Profitability:   deriveProfitability(bundle.IncomeStatements, bundle.BalanceSheets),
		Growth:          deriveGrowth(bundle.IncomeStatements),
		Value:           deriveValue(bundle.Profile, bundle.KeyMetrics),
		Quality:         deriveQuality(bundle.BalanceSheets, bundle.CashFlows, bundle.IncomeStatements),
		FinancialHealth: deriveFinancialHealth(bundle.BalanceSheets, bundle.IncomeStatements),

		MoatScore:             bundle.MoatScore,
		RiskFlags:             bundle.RiskFlags,
		ThesisBroken:          bundle.ThesisBroken,
		NetDebtToEBITDA:       bundle.NetDebtToEBITDA,
		ROICAboveSectorMedian: bundle.ROICAboveSectorMedian,
	}
}

func deriveProfitability(income []model.IncomeStatement, balance []model.BalanceSheet) *model.ProfitabilityMetrics {
	if len(income) == 0 || len(balance) == 0 {
		return nil
	}
	latest := income[0]
	latestBalance := balance[0]

	return &model.ProfitabilityMetrics{
		NetMargin:       ratioPct(latest.NetIncome, latest.Revenue),
		ROA:             ratioPct(latest.NetIncome, latestBalance.TotalAssets),
		ROE:             ratioPct(latest.NetIncome, latestBalance.TotalStockholdersEquity),
		GrossMargin:     ratioPct(latest.GrossProfit, latest.Revenue),
		OperatingMargin: ratioPct(latest.OperatingIncome, latest.Revenue),
	}
}

func deriveGrowth(income []model.IncomeStatement) *model.GrowthMetrics {
	if len(income) < 2 {
		return nil
	}
	current, previous := income[0], income[1]

	revenues := make([]float64, 0, 5)
	for i := 0; i < len(income) && i < 5; i++ {
		revenues = append(revenues, income[i].Revenue)
	}

	return &model.GrowthMetrics{
		RevenueGrowth:  GrowthRate(previous.Revenue, current.Revenue),
		EarningsGrowth: GrowthRate(previous.NetIncome, current.NetIncome),
		RevenueCAGR5Y:  CAGR(revenues),
	}
}

func deriveValue(profile model.CompanyProfile, keyMetrics []model.KeyMetricsSnapshot) *model.ValueMetrics {
	if len(keyMetrics) == 0 {
		return nil
	}
	latest := keyMetrics[0]

	return &model.ValueMetrics{
		PERatio:      latest.PERatio,
		PBRatio:      latest.PBRatio,
		PriceToSales: latest.PriceToSalesRatio,
		EVToEBITDA:   latest.EVToOperatingCF,
		MarketCap:    profile.MarketCap,
	}
}

func deriveQuality(balance []model.BalanceSheet, cashFlows []model.CashFlowStatement, income []model.IncomeStatement) *model.QualityMetrics {
	if len(balance) == 0 || len(cashFlows) == 0 || len(income) == 0 {
		return nil
	}
	latestBalance := balance[0]
	latestCF := cashFlows[0]
	latestIncome := income[0]

	// Net debt is not reported on every balance sheet; leave it absent
	// rather than fabricating a zero so the gate can fall back to
	// debt-to-EBITDA.
	var netDebtToEBITDA *float64
	if latestBalance.NetDebt != 0 {
		v := ratio(latestBalance.NetDebt, latestIncome.EBITDA)
		netDebtToEBITDA = &v
	}

	return &model.QualityMetrics{
		DebtToEquity:        ratio(latestBalance.TotalDebt, latestBalance.TotalStockholdersEquity),
		DebtToEBITDA:        ratio(latestBalance.TotalDebt, latestIncome.EBITDA),
		NetDebtToEBITDA:     netDebtToEBITDA,
		CashFlowToNetIncome: ratio(latestCF.OperatingCashFlow, latestIncome.NetIncome),
		FreeCashFlow:        latestCF.FreeCashFlow,
	}
}

func deriveFinancialHealth(balance []model.BalanceSheet, income []model.IncomeStatement) *model.FinancialHealthMetrics {
	if len(balance) == 0 || len(income) == 0 {
		return nil
	}
	latestBalance := balance[0]
	latestIncome := income[0]

	// A company with no debt service burden scores maximally on coverage.
	coverage := math.Inf(1)
	if latestIncome.InterestExpense != 0 {
		coverage = latestIncome.OperatingIncome / latestIncome.InterestExpense
	}

	return &model.FinancialHealthMetrics{
		CurrentRatio:     ratio(latestBalance.TotalCurrentAssets, latestBalance.TotalCurrentLiabilities),
		QuickRatio:       ratio(latestBalance.TotalCurrentAssets-latestBalance.Inventory, latestBalance.TotalCurrentLiabilities),
		InterestCoverage: coverage,
	}
}

// GrowthRate returns the percentage change from old to new. A zero base
// returns 0 rather than signalling infinite growth; downstream gate
// thresholds depend on this behavior.
func GrowthRate(old, new float64) float64 {
	if old == 0 {
		return 0
	}
	return (new - old) / old * 100
}

// CAGR computes the trailing compound annual growth rate over values ordered
// most-recent-first. Only strictly positive values participate; with fewer
// than two of them the result is 0.
func CAGR(values []float64) float64 {
	positive := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 {
			positive = append(positive, v)
		}
	}
	if len(positive) < 2 {
		return 0
	}

	ending := positive[0]
	beginning := positive[len(positive)-1]
	n := float64(len(positive) - 1)

	return (math.Pow(ending/beginning, 1/n) - 1) * 100
}

// ratio returns num/den, or 0 when the denominator is zero.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// ratioPct returns num/den as a percentage, or 0 when the denominator is zero.
func ratioPct(num, den float64) float64 {
	return ratio(num, den) * 100
}
