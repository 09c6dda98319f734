// Package model defines the data types shared across the evaluation engine:
// raw financial bundles, derived metrics, scores, and ledger records.
package model

import "time"

// CompanyProfile holds descriptive and market data for a company.
type CompanyProfile struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	Price       float64 `json:"price"`
	YearHigh    float64 `json:"yearHigh"`
	YearLow     float64 `json:"yearLow"`
	MarketCap   float64 `json:"mktCap"`
	Sector      string  `json:"sector"`
	Industry    string  `json:"industry"`
	Currency    string  `json:"currency"`
	Exchange    string  `json:"exchangeShortName"`
}

// IncomeStatement is a single reporting period's income statement.
type IncomeStatement struct {
	Date             string  `json:"date"`
	Period           string  `json:"period"`
	Revenue          float64 `json:"revenue"`
	GrossProfit      float64 `json:"grossProfit"`
	OperatingIncome  float64 `json:"operatingIncome"`
	NetIncome        float64 `json:"netIncome"`
	EBITDA           float64 `json:"ebitda"`
	InterestExpense  float64 `json:"interestExpense"`
	EPS              float64 `json:"eps"`
	WeightedAvgShsOut float64 `json:"weightedAverageShsOut"`
}

// BalanceSheet is a single reporting period's balance sheet.
type BalanceSheet struct {
	Date                    string  `json:"date"`
	Period                  string  `json:"period"`
	TotalAssets             float64 `json:"totalAssets"`
	TotalCurrentAssets      float64 `json:"totalCurrentAssets"`
	TotalCurrentLiabilities float64 `json:"totalCurrentLiabilities"`
	Inventory               float64 `json:"inventory"`
	TotalDebt               float64 `json:"totalDebt"`
	NetDebt                 float64 `json:"netDebt"`
	CashAndEquivalents      float64 `json:"cashAndCashEquivalents"`
	TotalStockholdersEquity float64 `json:"totalStockholdersEquity"`
}

// CashFlowStatement is a single reporting period's cash flow statement.
type CashFlowStatement struct {
	Date               string  `json:"date"`
	Period             string  `json:"period"`
	OperatingCashFlow  float64 `json:"operatingCashFlow"`
	CapitalExpenditure float64 `json:"capitalExpenditure"`
	FreeCashFlow       float64 `json:"freeCashFlow"`
	DividendsPaid      float64 `json:"dividendsPaid"`
}

// KeyMetricsSnapshot is a single period's valuation snapshot.
type KeyMetricsSnapshot struct {
	Date              string  `json:"date"`
	Period            string  `json:"period"`
	PERatio           float64 `json:"peRatio"`
	PBRatio           float64 `json:"pbRatio"`
	PriceToSalesRatio float64 `json:"priceToSalesRatio"`
	EVToOperatingCF   float64 `json:"evToOperatingCashFlow"`
	ROIC              float64 `json:"roic"`
	DividendYield     float64 `json:"dividendYield"`
}

// FinancialBundle aggregates everything the deriver needs for one company.
// Statement slices are ordered most-recent-first and may be empty.
type FinancialBundle struct {
	Ticker           string               `json:"ticker"`
	Profile          CompanyProfile       `json:"profile"`
	IncomeStatements []IncomeStatement    `json:"income_statements"`
	BalanceSheets    []BalanceSheet       `json:"balance_sheets"`
	CashFlows        []CashFlowStatement  `json:"cash_flows"`
	KeyMetrics       []KeyMetricsSnapshot `json:"key_metrics"`
	FetchedAt        time.Time            `json:"fetched_at"`

	// Analyst-supplied overrides. When present they take precedence over
	// the derived estimates in scoring and gating.
	MoatScore             *float64 `json:"moat_score,omitempty"`
	RiskFlags             []string `json:"risk_flags,omitempty"`
	ThesisBroken          bool     `json:"thesis_broken,omitempty"`
	NetDebtToEBITDA       *float64 `json:"net_debt_to_ebitda,omitempty"`
	ROICAboveSectorMedian *bool    `json:"roic_above_sector_median,omitempty"`
}
