// Package workbook exports evaluation results to an XLSX workbook with
// Summary, Metrics, and Scores sheets.
package workbook

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/HanielK/Investor-Operating-System-AGENT/internal/evaluator"
	"github.com/HanielK/Investor-Operating-System-AGENT/internal/reconciler"
)

var summaryHeader = []string{
	"Ticker", "Company", "Price", "52w High", "Drawdown %",
	"Total Score", "Recommendation", "Moat", "Risk Flags", "Action",
}

var metricsHeader = []string{
	"Ticker",
	"Net Margin %", "ROA %", "ROE %", "Gross Margin %", "Operating Margin %",
	"Revenue Growth %", "Earnings Growth %", "Revenue CAGR 5y %",
	"P/E", "P/B", "P/S", "EV/EBITDA", "Market Cap",
	"Debt/Equity", "Debt/EBITDA", "Net Debt/EBITDA", "CF/Net Income", "FCF",
	"Current Ratio", "Quick Ratio", "Interest Coverage",
}

var scoresHeader = []string{
	"Ticker", "Profitability", "Growth", "Value", "Quality", "Financial Health",
	"Total", "Recommendation",
}

// Write renders results into a new workbook at path. Results are written in
// input order; uncomputable metric groups render as blank cells.
func Write(path string, results []*evaluator.Result) error {
	f := xlsx.NewFile()

	if err := writeSummary(f, results); err != nil {
		return err
	}
	if err := writeMetrics(f, results); err != nil {
		return err
	}
	if err := writeScores(f, results); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "workbook: save %s", path)
	}
	return nil
}

// DefaultFilename returns a timestamped workbook name like
// analysis_20260115_093000.xlsx.
func DefaultFilename(now time.Time) string {
	return fmt.Sprintf("analysis_%s.xlsx", now.Format("20060102_150405"))
}

func writeSummary(f *xlsx.File, results []*evaluator.Result) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "workbook: add summary sheet")
	}
	addStringRow(sheet, summaryHeader)

	for _, r := range results {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Ticker)
		row.AddCell().SetString(r.CompanyName)
		setFloat(row, r.Price)
		setFloat(row, r.YearHigh)
		setFloat(row, reconciler.DrawdownPct(r.Price, r.YearHigh))
		setFloat(row, r.Score.Total)
		row.AddCell().SetString(r.Score.Recommendation)
		row.AddCell().SetInt(r.Score.MoatScore)
		row.AddCell().SetString(strings.Join(r.Score.RiskFlags, "; "))
		action := ""
		if r.Outcome != nil {
			action = string(r.Outcome.Action)
		}
		row.AddCell().SetString(action)
	}
	return nil
}

func writeMetrics(f *xlsx.File, results []*evaluator.Result) error {
	sheet, err := f.AddSheet("Metrics")
	if err != nil {
		return eris.Wrap(err, "workbook: add metrics sheet")
	}
	addStringRow(sheet, metricsHeader)

	for _, r := range results {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Ticker)
		m := r.Metrics

		if p := m.Profitability; p != nil {
			setFloats(row, p.NetMargin, p.ROA, p.ROE, p.GrossMargin, p.OperatingMargin)
		} else {
			addBlanks(row, 5)
		}
		if g := m.Growth; g != nil {
			setFloats(row, g.RevenueGrowth, g.EarningsGrowth, g.RevenueCAGR5Y)
		} else {
			addBlanks(row, 3)
		}
		if v := m.Value; v != nil {
			setFloats(row, v.PERatio, v.PBRatio, v.PriceToSales, v.EVToEBITDA, v.MarketCap)
		} else {
			addBlanks(row, 5)
		}
		if q := m.Quality; q != nil {
			setFloats(row, q.DebtToEquity, q.DebtToEBITDA)
			if q.NetDebtToEBITDA != nil {
				setFloat(row, *q.NetDebtToEBITDA)
			} else {
				addBlanks(row, 1)
			}
			setFloats(row, q.CashFlowToNetIncome, q.FreeCashFlow)
		} else {
			addBlanks(row, 5)
		}
		if h := m.FinancialHealth; h != nil {
			setFloats(row, h.CurrentRatio, h.QuickRatio)
			if math.IsInf(h.InterestCoverage, 1) {
				row.AddCell().SetString("N/A (no interest expense)")
			} else {
				setFloat(row, h.InterestCoverage)
			}
		} else {
			addBlanks(row, 3)
		}
	}
	return nil
}

func writeScores(f *xlsx.File, results []*evaluator.Result) error {
	sheet, err := f.AddSheet("Scores")
	if err != nil {
		return eris.Wrap(err, "workbook: add scores sheet")
	}
	addStringRow(sheet, scoresHeader)

	for _, r := range results {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Ticker)
		s := r.Score.Subscores
		setFloats(row, s.Profitability, s.Growth, s.Value, s.Quality, s.FinancialHealth, r.Score.Total)
		row.AddCell().SetString(r.Score.Recommendation)
	}
	return nil
}

func addStringRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func setFloat(row *xlsx.Row, v float64) {
	row.AddCell().SetFloatWithFormat(v, "0.00")
}

func setFloats(row *xlsx.Row, vs ...float64) {
	for _, v := range vs {
		setFloat(row, v)
	}
}

func addBlanks(row *xlsx.Row, n int) {
	for i := 0; i < n; i++ {
		row.AddCell()
	}
}
