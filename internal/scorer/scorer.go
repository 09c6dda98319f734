// Package scorer converts a derived metrics record into a weighted 0-100
// investment score with sub-scores, qualitative strengths and concerns, and a
// discrete recommendation tier. Scoring is pure and total.
package scorer

import (
	"math"

	"github.com/HanielK/Investor-Operating-System-AGENT/internal/model"
)

// Category weights. They sum to 1.0, so any combination of sub-scores in
// [0, 100] produces a total in [0, 100].
const (
	WeightProfitability   = 0.25
	WeightGrowth          = 0.20
	WeightValue           = 0.20
	WeightQuality         = 0.20
	WeightFinancialHealth = 0.15
)

// Score computes the full score record from a metrics record. A nil metric
// group contributes a sub-score of 0.
func Score(m model.MetricsRecord) model.ScoreRecord {
	sub := model.Subscores{
		Profitability:   scoreProfitability(m.Profitability),
		Growth:          scoreGrowth(m.Growth),
		Value:           scoreValue(m.Value),
		Quality:         scoreQuality(m.Quality),
		FinancialHealth: scoreFinancialHealth(m.FinancialHealth),
	}

	total := sub.Profitability*WeightProfitability +
		sub.Growth*WeightGrowth +
		sub.Value*WeightValue +
		sub.Quality*WeightQuality +
		sub.FinancialHealth*WeightFinancialHealth

	rec := model.ScoreRecord{
		Total:        round2(total),
		Subscores:    sub,
		MoatScore:    moatScore(m, sub.Profitability, sub.Quality),
		ThesisBroken: m.ThesisBroken,
		Strengths:    identifyStrengths(m),
		Concerns:     identifyConcerns(m),
	}
	rec.RiskFlags = riskFlags(m, rec.Concerns)
	rec.Recommendation = Recommendation(rec.Total)
	return rec
}

// Recommendation maps a total score to its tier. Tiers are exclusive and
// evaluated high to low.
func Recommendation(total float64) string {
	switch {
	case total >= 80:
		return model.RecommendationStrongBuy
	case total >= 70:
		return model.RecommendationBuy
	case total >= 60:
		return model.RecommendationHold
	case total >= 50:
		return model.RecommendationCautious
	default:
		return model.RecommendationAvoid
	}
}

// scoreProfitability awards net margin (30), ROE (40), gross margin (30).
func scoreProfitability(p *model.ProfitabilityMetrics) float64 {
	if p == nil {
		return 0
	}
	var score float64

	switch {
	case p.NetMargin > 20:
		score += 30
	case p.NetMargin > 10:
		score += 20
	case p.NetMargin > 5:
		score += 10
	}

	switch {
	case p.ROE > 20:
		score += 40
	case p.ROE > 15:
		score += 30
	case p.ROE > 10:
		score += 20
	}

	switch {
	case p.GrossMargin > 50:
		score += 30
	case p.GrossMargin > 30:
		score += 20
	case p.GrossMargin > 20:
		score += 10
	}

	return clamp100(score)
}

// scoreGrowth awards revenue growth (50) and earnings growth (50).
func scoreGrowth(g *model.GrowthMetrics) float64 {
	if g == nil {
		return 0
	}
	var score float64

	switch {
	case g.RevenueGrowth > 20:
		score += 50
	case g.RevenueGrowth > 10:
		score += 35
	case g.RevenueGrowth > 5:
		score += 20
	case g.RevenueGrowth > 0:
		score += 10
	}

	switch {
	case g.EarningsGrowth > 20:
		score += 50
	case g.EarningsGrowth > 10:
		score += 35
	case g.EarningsGrowth > 5:
		score += 20
	case g.EarningsGrowth > 0:
		score += 10
	}

	return clamp100(score)
}

// scoreValue awards P/E (50), P/B (30), P/S (20). Lower is better; a
// non-positive ratio scores nothing.
func scoreValue(v *model.ValueMetrics) float64 {
	if v == nil {
		return 0
	}
	var score float64

	switch {
	case v.PERatio > 0 && v.PERatio < 15:
		score += 50
	case v.PERatio >= 15 && v.PERatio < 25:
		score += 35
	case v.PERatio >= 25 && v.PERatio < 35:
		score += 20
	case v.PERatio >= 35:
		score += 10
	}

	switch {
	case v.PBRatio > 0 && v.PBRatio < 2:
		score += 30
	case v.PBRatio >= 2 && v.PBRatio < 4:
		score += 20
	case v.PBRatio >= 4 && v.PBRatio < 6:
		score += 10
	}

	switch {
	case v.PriceToSales > 0 && v.PriceToSales < 2:
		score += 20
	case v.PriceToSales >= 2 && v.PriceToSales < 4:
		score += 10
	}

	return clamp100(score)
}

// scoreQuality awards debt/equity (40, lower is better), cash flow to net
// income (40), and a positive free cash flow flag (20).
func scoreQuality(q *model.QualityMetrics) float64 {
	if q == nil {
		return 0
	}
	var score float64

	switch {
	case q.DebtToEquity < 0.5:
		score += 40
	case q.DebtToEquity < 1.0:
		score += 30
	case q.DebtToEquity < 2.0:
		score += 15
	}

	switch {
	case q.CashFlowToNetIncome > 1.2:
		score += 40
	case q.CashFlowToNetIncome > 1.0:
		score += 30
	case q.CashFlowToNetIncome > 0.8:
		score += 20
	}

	if q.FreeCashFlow > 0 {
		score += 20
	}

	return clamp100(score)
}

// scoreFinancialHealth awards current ratio (40), quick ratio (30), interest
// coverage (30).
func scoreFinancialHealth(h *model.FinancialHealthMetrics) float64 {
	if h == nil {
		return 0
	}
	var score float64

	switch {
	case h.CurrentRatio > 2.0:
		score += 40
	case h.CurrentRatio > 1.5:
		score += 30
	case h.CurrentRatio > 1.0:
		score += 20
	}

	switch {
	case h.QuickRatio > 1.5:
		score += 30
	case h.QuickRatio > 1.0:
		score += 20
	case h.QuickRatio > 0.75:
		score += 10
	}

	switch {
	case h.InterestCoverage > 10:
		score += 30
	case h.InterestCoverage > 5:
		score += 20
	case h.InterestCoverage > 2:
		score += 10
	}

	return clamp100(score)
}

// moatScore prefers an explicit analyst-supplied moat value, otherwise
// estimates a coarse proxy from the profitability and quality sub-scores.
// Either way the result is clamped to [0, 10].
func moatScore(m model.MetricsRecord, profitability, quality float64) int {
	if m.MoatScore != nil {
		return clampInt(int(math.Round(*m.MoatScore)), 0, 10)
	}
	estimated := (profitability + quality) / 20
	return clampInt(int(math.Round(estimated)), 0, 10)
}

// riskFlags uses the explicit analyst list verbatim when supplied, otherwise
// falls back to the derived concerns.
func riskFlags(m model.MetricsRecord, concerns []string) []string {
	if m.RiskFlags != nil {
		return m.RiskFlags
	}
	return concerns
}

func identifyStrengths(m model.MetricsRecord) []string {
	var strengths []string

	if p := m.Profitability; p != nil {
		if p.ROE > 20 {
			strengths = append(strengths, "Exceptional return on equity (>20%)")
		}
		if p.NetMargin > 15 {
			strengths = append(strengths, "Strong profit margins")
		}
	}
	if g := m.Growth; g != nil && g.RevenueGrowth > 15 {
		strengths = append(strengths, "High revenue growth rate")
	}
	if q := m.Quality; q != nil {
		if q.DebtToEquity < 0.5 {
			strengths = append(strengths, "Low debt levels")
		}
		if q.CashFlowToNetIncome > 1.2 {
			strengths = append(strengths, "Excellent cash flow generation")
		}
	}
	if h := m.FinancialHealth; h != nil && h.CurrentRatio > 2.0 {
		strengths = append(strengths, "Strong liquidity position")
	}

	return strengths
}

func identifyConcerns(m model.MetricsRecord) []string {
	var concerns []string

	if p := m.Profitability; p != nil && p.NetMargin < 0 {
		concerns = append(concerns, "Company is not profitable")
	}
	if g := m.Growth; g != nil && g.RevenueGrowth < 0 {
		concerns = append(concerns, "Declining revenues")
	}
	if q := m.Quality; q != nil {
		if q.DebtToEquity > 2.0 {
			concerns = append(concerns, "High debt levels relative to equity")
		}
		if q.FreeCashFlow < 0 {
			concerns = append(concerns, "Negative free cash flow")
		}
	}
	if h := m.FinancialHealth; h != nil && h.CurrentRatio < 1.0 {
		concerns = append(concerns, "Liquidity concerns (current ratio < 1.0)")
	}
	if v := m.Value; v != nil && v.PERatio > 50 {
		concerns = append(concerns, "High valuation (P/E > 50)")
	}

	return concerns
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp100(v float64) float64 {
	return math.Min(math.Max(v, 0), 100)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
