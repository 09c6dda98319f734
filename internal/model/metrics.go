package model

import (
	"encoding/json"
	"math"
)

// MetricsRecord holds the five derived metric groups. A nil group means its
// required source statements were missing; a group is never partially
// populated. This keeps "metric truly zero" distinguishable from "metric not
// computable".
type MetricsRecord struct {
	Profitability   *ProfitabilityMetrics   `json:"profitability,omitempty"`
	Growth          *GrowthMetrics          `json:"growth,omitempty"`
	Value           *ValueMetrics           `json:"value,omitempty"`
	Quality         *QualityMetrics         `json:"quality,omitempty"`
	FinancialHealth *FinancialHealthMetrics `json:"financial_health,omitempty"`

	// Carried through from the bundle for scoring and gate overrides.
	MoatScore             *float64 `json:"moat_score,omitempty"`
	RiskFlags             []string `json:"risk_flags,omitempty"`
	ThesisBroken          bool     `json:"thesis_broken"`
	NetDebtToEBITDA       *float64 `json:"net_debt_to_ebitda,omitempty"`
	ROICAboveSectorMedian *bool    `json:"roic_above_sector_median,omitempty"`
}

// ProfitabilityMetrics are percentages from the most recent period.
type ProfitabilityMetrics struct {
	NetMargin       float64 `json:"net_margin"`
	ROA             float64 `json:"roa"`
	ROE             float64 `json:"roe"`
	GrossMargin     float64 `json:"gross_margin"`
	OperatingMargin float64 `json:"operating_margin"`
}

// GrowthMetrics are period-over-period percentages plus a trailing CAGR.
type GrowthMetrics struct {
	RevenueGrowth  float64 `json:"revenue_growth"`
	EarningsGrowth float64 `json:"earnings_growth"`
	RevenueCAGR5Y  float64 `json:"revenue_cagr_5y"`
}

// ValueMetrics are valuation ratios passed through from the latest snapshot.
type ValueMetrics struct {
	PERatio      float64 `json:"pe_ratio"`
	PBRatio      float64 `json:"pb_ratio"`
	PriceToSales float64 `json:"price_to_sales"`
	EVToEBITDA   float64 `json:"ev_to_ebitda"`
	MarketCap    float64 `json:"market_cap"`
}

// QualityMetrics cover leverage and cash conversion. NetDebtToEBITDA is nil
// when the balance sheet does not report net debt; DebtToEBITDA serves as the
// gate's fallback in that case.
type QualityMetrics struct {
	DebtToEquity        float64  `json:"debt_to_equity"`
	DebtToEBITDA        float64  `json:"debt_to_ebitda"`
	NetDebtToEBITDA     *float64 `json:"net_debt_to_ebitda,omitempty"`
	CashFlowToNetIncome float64  `json:"cash_flow_to_net_income"`
	FreeCashFlow        float64  `json:"free_cash_flow"`
}

// FinancialHealthMetrics cover liquidity and debt service. InterestCoverage
// is +Inf when the latest period reports no interest expense.
type FinancialHealthMetrics struct {
	CurrentRatio     float64 `json:"current_ratio"`
	QuickRatio       float64 `json:"quick_ratio"`
	InterestCoverage float64 `json:"interest_coverage"`
}

// MarshalJSON renders a non-finite interest coverage as null, since
// encoding/json rejects infinities and NaN.
func (h FinancialHealthMetrics) MarshalJSON() ([]byte, error) {
	type plain FinancialHealthMetrics
	out := struct {
		plain
		InterestCoverage *float64 `json:"interest_coverage"`
	}{plain: plain(h)}
	if !math.IsInf(h.InterestCoverage, 0) && !math.IsNaN(h.InterestCoverage) {
		out.InterestCoverage = &h.InterestCoverage
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts null interest coverage as the infinite case, keeping
// Marshal and Unmarshal inverse.
func (h *FinancialHealthMetrics) UnmarshalJSON(data []byte) error {
	type plain FinancialHealthMetrics
	var in struct {
		plain
		InterestCoverage *float64 `json:"interest_coverage"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*h = FinancialHealthMetrics(in.plain)
	if in.InterestCoverage == nil {
		h.InterestCoverage = math.Inf(1)
	} else {
		h.InterestCoverage = *in.InterestCoverage
	}
	return nil
}
