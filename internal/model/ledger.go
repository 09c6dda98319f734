package model

import "time"

// PromotionAction is the terminal outcome of one reconciliation attempt.
type PromotionAction string

const (
	// ActionUpdated means the ticker already had a row and was rewritten in
	// place. No promotion-log entry is emitted for updates.
	ActionUpdated PromotionAction = "UPDATED"

	// ActionNotAppended means the gate was evaluated but the caller did not
	// enable auto-append, so no row was written.
	ActionNotAppended PromotionAction = "NOT_APPENDED_ALLOW_APPEND_FALSE"

	// ActionRejected means the promotion gate failed.
	ActionRejected PromotionAction = "REJECTED"

	// ActionNoCapacity means the gate passed but the row block is full.
	ActionNoCapacity PromotionAction = "FAILED_NO_CAPACITY"

	// ActionPromoted means a new row was written for the ticker.
	ActionPromoted PromotionAction = "PROMOTED"

	// ActionHighPriority is a promotion whose total score met the
	// high-priority threshold.
	ActionHighPriority PromotionAction = "HIGH_PRIORITY"
)

// LedgerRow is the dashboard row content for one tracked ticker.
type LedgerRow struct {
	Row            int       `json:"row"`
	Ticker         string    `json:"ticker"`
	Price          float64   `json:"price"`
	ReferenceHigh  float64   `json:"reference_high"`
	DrawdownPct    float64   `json:"drawdown_pct"`
	TotalScore     float64   `json:"total_score"`
	Recommendation string    `json:"recommendation"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PromotionLogEntry is one append-only audit record. Exactly one entry is
// produced per evaluation attempt that reaches gate evaluation, regardless of
// outcome.
type PromotionLogEntry struct {
	Timestamp      time.Time       `json:"timestamp"`
	Ticker         string          `json:"ticker"`
	CompanyName    string          `json:"company_name"`
	TotalScore     float64         `json:"total_score"`
	Recommendation string          `json:"recommendation"`
	Action         PromotionAction `json:"action"`
	Reason         string          `json:"reason"`
	RunID          string          `json:"run_id"`
}
