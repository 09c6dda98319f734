package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HanielK/Investor-Operating-System-AGENT/internal/model"
)

func TestDashboardValues(t *testing.T) {
	row := model.LedgerRow{
		Row:            2,
		Ticker:         "AAPL",
		Price:          180.5,
		ReferenceHigh:  200,
		DrawdownPct:    9.75,
		TotalScore:     82.34,
		Recommendation: model.RecommendationStrongBuy,
		UpdatedAt:      time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC),
	}

	got := DashboardValues(row)
	assert.Equal(t, []string{
		"AAPL",
		"180.50",
		"200.00",
		"9.75",
		"82.34",
		model.RecommendationStrongBuy,
		"2026-01-15T09:30:00Z",
	}, got)
	assert.Len(t, got, len(DashboardHeader))
}

func TestLogValues(t *testing.T) {
	e := model.PromotionLogEntry{
		Timestamp:      time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC),
		Ticker:         "AAPL",
		CompanyName:    "Apple Inc.",
		TotalScore:     82.3,
		Recommendation: model.RecommendationStrongBuy,
		Action:         model.ActionPromoted,
		Reason:         "gate passed",
		RunID:          "run-1",
	}

	got := LogValues(e)
	assert.Equal(t, []string{
		"2026-01-15T09:30:00Z",
		"AAPL",
		"Apple Inc.",
		"82.30",
		model.RecommendationStrongBuy,
		"PROMOTED",
		"gate passed",
		"run-1",
	}, got)
	assert.Len(t, got, len(LogHeader))
}

func TestEnsureLogHeader(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	require.NoError(t, EnsureLogHeader(ctx, s, "Log"))
	assert.Equal(t, LogHeader, s.Row("Log", 1))

	// Second call leaves an existing header alone.
	require.NoError(t, s.WriteRow(ctx, "Log", 1, []string{"Custom"}))
	require.NoError(t, EnsureLogHeader(ctx, s, "Log"))
	assert.Equal(t, []string{"Custom"}, s.Row("Log", 1))
}
