package model

// Subscores holds the five category scores, each clamped to [0, 100].
type Subscores struct {
	Profitability   float64 `json:"profitability"`
	Growth          float64 `json:"growth"`
	Value           float64 `json:"value"`
	Quality         float64 `json:"quality"`
	FinancialHealth float64 `json:"financial_health"`
}

// ScoreRecord is the full output of the scorer for one company.
type ScoreRecord struct {
	Total          float64   `json:"total"`
	Subscores      Subscores `json:"subscores"`
	MoatScore      int       `json:"moat_score"`
	RiskFlags      []string  `json:"risk_flags"`
	ThesisBroken   bool      `json:"thesis_broken"`
	Strengths      []string  `json:"strengths"`
	Concerns       []string  `json:"concerns"`
	Recommendation string    `json:"recommendation"`
}

// Recommendation tier strings. Tiers are exclusive and evaluated high to low;
// every total in [0, 100] maps to exactly one of them.
const (
	RecommendationStrongBuy = "STRONG BUY - Excellent investment opportunity"
	RecommendationBuy       = "BUY - Good investment with solid fundamentals"
	RecommendationHold      = "HOLD - Acceptable investment, monitor closely"
	RecommendationCautious  = "CAUTIOUS - Weak fundamentals, consider alternatives"
	RecommendationAvoid     = "AVOID - Poor investment metrics"
)
