package ledger

import (
	"context"
	"strconv"
	"time"

	"github.com/HanielK/Investor-Operating-System-AGENT/internal/model"
)

// Dashboard tab columns. Column A holds the ticker; blank rows in the block
// are available capacity.
const (
	ColTicker         = 1
	ColPrice          = 2
	ColReferenceHigh  = 3
	ColDrawdownPct    = 4
	ColTotalScore     = 5
	ColRecommendation = 6
	ColUpdatedAt      = 7
)

// HeaderTicker is the literal header token skipped during row lookup.
const HeaderTicker = "Ticker"

// DashboardHeader is the dashboard tab's header row.
var DashboardHeader = []string{
	"Ticker", "Price", "52w High", "Drawdown %", "Score", "Recommendation", "Updated",
}

// LogHeader is the promotion-log tab's header row.
var LogHeader = []string{
	"Timestamp", "Ticker", "Company", "Score", "Recommendation", "Action", "Reason", "Run ID",
}

// DashboardValues renders a ledger row into dashboard cell values, ticker
// included. Numeric cells use two decimal places to keep sheet content
// stable across repeated writes.
func DashboardValues(row model.LedgerRow) []string {
	return []string{
		row.Ticker,
		formatFloat(row.Price),
		formatFloat(row.ReferenceHigh),
		formatFloat(row.DrawdownPct),
		formatFloat(row.TotalScore),
		row.Recommendation,
		row.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// LogValues renders a promotion-log entry into cell values matching LogHeader.
func LogValues(e model.PromotionLogEntry) []string {
	return []string{
		e.Timestamp.UTC().Format(time.RFC3339),
		e.Ticker,
		e.CompanyName,
		formatFloat(e.TotalScore),
		e.Recommendation,
		string(e.Action),
		e.Reason,
		e.RunID,
	}
}

// EnsureLogHeader writes the log header into row 1 if the tab has no header
// yet. Idempotent.
func EnsureLogHeader(ctx context.Context, s Store, tab string) error {
	cells, err := s.ReadColumn(ctx, tab, 1, 1, ColTicker)
	if err != nil {
		return err
	}
	if len(cells) > 0 && cells[0] != "" {
		return nil
	}
	return s.WriteRow(ctx, tab, 1, LogHeader)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
