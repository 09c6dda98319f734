// Package reconciler decides how an evaluated ticker is merged into the
// ledger's bounded row block: update in place, reject, promote, promote with
// high priority, or fail for capacity. Every attempt that reaches gate
// evaluation produces exactly one promotion-log entry.
package reconciler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/HanielK/Investor-Operating-System-AGENT/internal/config"
	"github.com/HanielK/Investor-Operating-System-AGENT/internal/ledger"
	"github.com/HanielK/Investor-Operating-System-AGENT/internal/model"
)

// Checkpoint names the last completed step of a reconciliation attempt. It is
// attached to store errors so a mid-sequence failure is diagnosable.
type Checkpoint string

const (
	CheckpointStart         Checkpoint = "START"
	CheckpointTabEnsured    Checkpoint = "TAB_ENSURED"
	CheckpointRowLookedUp   Checkpoint = "ROW_LOOKED_UP"
	CheckpointGateEvaluated Checkpoint = "GATE_EVALUATED"
	CheckpointRowWritten    Checkpoint = "ROW_WRITTEN"
)

// Input is one evaluated ticker ready for reconciliation.
type Input struct {
	Ticker      string
	CompanyName string
	Price       float64
	YearHigh    float64
	Metrics     model.MetricsRecord
	Score       model.ScoreRecord
	AllowAppend bool
	DryRun      bool
	RunID       string
}

// Outcome is the terminal result of one reconciliation attempt. LogEntry is
// nil only for UPDATED; in dry-run mode it carries the entry that would have
// been appended.
type Outcome struct {
	Action   model.PromotionAction
	Row      int // dashboard row written, or that would be written; 0 when none
	Reason   string
	LogEntry *model.PromotionLogEntry
	DryRun   bool
}

// Reconciler runs the promotion protocol against a ledger store. It is not
// safe for concurrent use against the same row block from multiple processes;
// callers serialize promotion writes per ledger.
type Reconciler struct {
	store  ledger.Store
	ledger config.LedgerConfig
	gate   config.GateConfig
	now    func() time.Time
}

// New creates a Reconciler. The store and configuration are injected at
// composition time.
func New(store ledger.Store, ledgerCfg config.LedgerConfig, gate config.GateConfig) *Reconciler {
	return &Reconciler{
		store:  store,
		ledger: ledgerCfg,
		gate:   gate,
		now:    time.Now,
	}
}

// WithClock overrides the reconciler's clock. Used by tests and by callers
// that need reproducible log timestamps.
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// Reconcile runs the full protocol for one ticker. Store failures abort the
// attempt for this ticker only and carry the checkpoint reached. When the row
// write succeeds but the log append fails, the returned Outcome reflects the
// written row and the error reports the missing audit entry.
func (r *Reconciler) Reconcile(ctx context.Context, in Input) (*Outcome, error) {
	ticker := strings.ToUpper(strings.TrimSpace(in.Ticker))
	if ticker == "" {
		return nil, eris.New("reconciler: ticker is empty")
	}

	log := zap.L().With(
		zap.String("ticker", ticker),
		zap.String("run_id", in.RunID),
		zap.Bool("dry_run", in.DryRun),
	)

	checkpoint := CheckpointStart

	// Tabs and log header are created lazily; a dry run must not mutate the
	// ledger, so the ensures are skipped there.
	if !in.DryRun {
		if err := r.store.EnsureTab(ctx, r.ledger.DashboardTab); err != nil {
			return nil, r.storeErr(err, checkpoint, "ensure dashboard tab")
		}
		if err := r.store.EnsureTab(ctx, r.ledger.LogTab); err != nil {
			return nil, r.storeErr(err, checkpoint, "ensure log tab")
		}
		if err := ledger.EnsureLogHeader(ctx, r.store, r.ledger.LogTab); err != nil {
			return nil, r.storeErr(err, checkpoint, "ensure log header")
		}
	}
	checkpoint = CheckpointTabEnsured

	cells, err := r.store.ReadColumn(ctx, r.ledger.DashboardTab, r.ledger.BlockStart, r.ledger.BlockEnd, ledger.ColTicker)
	if err != nil {
		return nil, r.storeErr(err, checkpoint, "read ticker block")
	}
	checkpoint = CheckpointRowLookedUp

	// Already tracked: rewrite the dashboard columns in place. No gate, no
	// log entry. Repeated calls converge to the same row content.
	if row, ok := lookupRow(cells, r.ledger.BlockStart, ticker); ok {
		lrow := r.buildRow(row, ticker, in)
		if !in.DryRun {
			if err := r.store.WriteRow(ctx, r.ledger.DashboardTab, row, ledger.DashboardValues(lrow)); err != nil {
				return nil, r.storeErr(err, checkpoint, "update dashboard row")
			}
		}
		log.Info("reconciler: dashboard row updated in place",
			zap.Int("row", row),
			zap.Float64("score", in.Score.Total),
		)
		return &Outcome{
			Action: model.ActionUpdated,
			Row:    row,
			Reason: "already tracked; dashboard row updated",
			DryRun: in.DryRun,
		}, nil
	}

	gate := evaluateGate(r.gate, in.Metrics, in.Score)
	checkpoint = CheckpointGateEvaluated

	entry := func(action model.PromotionAction, reason string) *model.PromotionLogEntry {
		return &model.PromotionLogEntry{
			Timestamp:      r.now(),
			Ticker:         ticker,
			CompanyName:    in.CompanyName,
			TotalScore:     in.Score.Total,
			Recommendation: in.Score.Recommendation,
			Action:         action,
			Reason:         reason,
			RunID:          in.RunID,
		}
	}

	// Auto-append disabled: audit the decision without touching the block.
	if !in.AllowAppend {
		e := entry(model.ActionNotAppended, gate.reason)
		if err := r.appendLog(ctx, in.DryRun, e); err != nil {
			return nil, r.storeErr(err, checkpoint, "append log entry")
		}
		log.Info("reconciler: append disabled, decision logged only",
			zap.Bool("gate_passed", gate.passed),
			zap.String("reason", gate.reason),
		)
		return &Outcome{Action: model.ActionNotAppended, Reason: gate.reason, LogEntry: e, DryRun: in.DryRun}, nil
	}

	if !gate.passed {
		e := entry(model.ActionRejected, gate.reason)
		if err := r.appendLog(ctx, in.DryRun, e); err != nil {
			return nil, r.storeErr(err, checkpoint, "append log entry")
		}
		log.Info("reconciler: promotion rejected", zap.String("reason", gate.reason))
		return &Outcome{Action: model.ActionRejected, Reason: gate.reason, LogEntry: e, DryRun: in.DryRun}, nil
	}

	row := firstBlankRow(cells, r.ledger.BlockStart)
	if row == 0 {
		reason := fmt.Sprintf("gate passed but no blank row in block %d-%d", r.ledger.BlockStart, r.ledger.BlockEnd)
		e := entry(model.ActionNoCapacity, reason)
		if err := r.appendLog(ctx, in.DryRun, e); err != nil {
			return nil, r.storeErr(err, checkpoint, "append log entry")
		}
		log.Warn("reconciler: row block full, promotion dropped")
		return &Outcome{Action: model.ActionNoCapacity, Reason: reason, LogEntry: e, DryRun: in.DryRun}, nil
	}

	action := model.ActionPromoted
	if in.Score.Total >= r.gate.HighPriorityThreshold {
		action = model.ActionHighPriority
	}

	lrow := r.buildRow(row, ticker, in)
	if !in.DryRun {
		if err := r.store.WriteRow(ctx, r.ledger.DashboardTab, row, ledger.DashboardValues(lrow)); err != nil {
			return nil, r.storeErr(err, checkpoint, "write promoted row")
		}
	}
	checkpoint = CheckpointRowWritten

	e := entry(action, gate.reason)
	out := &Outcome{Action: action, Row: row, Reason: gate.reason, LogEntry: e, DryRun: in.DryRun}
	if err := r.appendLog(ctx, in.DryRun, e); err != nil {
		// The row stands; the missing audit entry is a documented
		// inconsistency window surfaced to the caller.
		return out, r.storeErr(err, checkpoint, "append log entry after row write")
	}

	log.Info("reconciler: ticker promoted",
		zap.Int("row", row),
		zap.String("action", string(action)),
		zap.Float64("score", in.Score.Total),
	)
	return out, nil
}

func (r *Reconciler) appendLog(ctx context.Context, dryRun bool, e *model.PromotionLogEntry) error {
	if dryRun {
		return nil
	}
	return r.store.AppendRow(ctx, r.ledger.LogTab, ledger.LogValues(*e))
}

func (r *Reconciler) buildRow(row int, ticker string, in Input) model.LedgerRow {
	return model.LedgerRow{
		Row:            row,
		Ticker:         ticker,
		Price:          in.Price,
		ReferenceHigh:  in.YearHigh,
		DrawdownPct:    DrawdownPct(in.Price, in.YearHigh),
		TotalScore:     in.Score.Total,
		Recommendation: in.Score.Recommendation,
		UpdatedAt:      r.now(),
	}
}

func (r *Reconciler) storeErr(err error, cp Checkpoint, action string) error {
	return eris.Wrapf(err, "reconciler: %s (checkpoint %s)", action, cp)
}

// lookupRow maps the normalized ticker to its absolute row index within the
// block, skipping blank cells and the literal header token. The first match
// wins.
func lookupRow(cells []string, blockStart int, ticker string) (int, bool) {
	for i, c := range cells {
		norm := strings.ToUpper(strings.TrimSpace(c))
		if norm == "" || norm == strings.ToUpper(ledger.HeaderTicker) {
			continue
		}
		if norm == ticker {
			return blockStart + i, true
		}
	}
	return 0, false
}

// firstBlankRow scans forward from the block start and returns the first
// available row, or 0 when the block is full. Interior rows blanked by manual
// deletion are reclaimed before the tail.
func firstBlankRow(cells []string, blockStart int) int {
	for i, c := range cells {
		if strings.TrimSpace(c) == "" {
			return blockStart + i
		}
	}
	return 0
}

// DrawdownPct returns the percentage decline from the reference high, or 0
// when the high is unknown.
func DrawdownPct(price, high float64) float64 {
	if high <= 0 {
		return 0
	}
	return (high - price) / high * 100
}
