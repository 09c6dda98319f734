package reconciler

import (
	"fmt"
	"strings"

	"github.com/HanielK/Investor-Operating-System-AGENT/internal/config"
	"github.com/HanielK/Investor-Operating-System-AGENT/internal/model"
)

type gateResult struct {
	passed bool
	reason string
}

// evaluateGate applies the promotion rules in strict order, short-circuiting
// at the first failure so the reason names only the first failing rule.
func evaluateGate(cfg config.GateConfig, m model.MetricsRecord, s model.ScoreRecord) gateResult {
	// a. Score floor.
	if s.Total < cfg.PromoteThreshold {
		return gateResult{reason: fmt.Sprintf("score below threshold (%.2f < %.2f)", s.Total, cfg.PromoteThreshold)}
	}

	// b. Business quality: any one of moat, required positive FCF, or the
	// externally supplied ROIC-above-median flag is sufficient.
	if !businessQualityOK(cfg, m, s) {
		return gateResult{reason: "business quality gate failed"}
	}

	// c. Thesis intact.
	if cfg.RequireThesisIntact && s.ThesisBroken {
		return gateResult{reason: "investment thesis broken"}
	}

	// d. Risk flag ceiling.
	if len(s.RiskFlags) > cfg.MaxRiskFlags {
		return gateResult{reason: fmt.Sprintf("too many risk flags (%d > %d): %s",
			len(s.RiskFlags), cfg.MaxRiskFlags, strings.Join(s.RiskFlags, "; "))}
	}

	// e. Leverage ceiling.
	if lev := leverage(m); lev > cfg.NetDebtToEBITDAMax {
		return gateResult{reason: fmt.Sprintf("net debt to EBITDA above ceiling (%.2f > %.2f)", lev, cfg.NetDebtToEBITDAMax)}
	}

	return gateResult{
		passed: true,
		reason: fmt.Sprintf("gate passed: score %.2f >= %.2f, moat %d, risk flags %d, net debt/EBITDA %.2f",
			s.Total, cfg.PromoteThreshold, s.MoatScore, len(s.RiskFlags), leverage(m)),
	}
}

func businessQualityOK(cfg config.GateConfig, m model.MetricsRecord, s model.ScoreRecord) bool {
	if s.MoatScore >= cfg.MoatGate {
		return true
	}
	if cfg.RequireFCFPositive && m.Quality != nil && m.Quality.FreeCashFlow > 0 {
		return true
	}
	if cfg.RequireROICAboveMedian && m.ROICAboveSectorMedian != nil && *m.ROICAboveSectorMedian {
		return true
	}
	return false
}

// leverage resolves net-debt-to-EBITDA with a documented fallback chain: the
// explicit analyst metric, then the derived net-debt ratio, then plain
// debt-to-EBITDA. Without quality data it is 0, which passes any ceiling.
func leverage(m model.MetricsRecord) float64 {
	if m.NetDebtToEBITDA != nil {
		return *m.NetDebtToEBITDA
	}
	if m.Quality == nil {
		return 0
	}
	if m.Quality.NetDebtToEBITDA != nil {
		return *m.Quality.NetDebtToEBITDA
	}
	return m.Quality.DebtToEBITDA
}
