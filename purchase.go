package progression

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/progression/bonus"
	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/entitlement"
	"github.com/xraph/progression/milestone"
	"github.com/xraph/progression/purchase"
	"github.com/xraph/progression/types"
	"github.com/xraph/progression/unlock"
	"github.com/xraph/progression/workflow"
)

// PurchaseResult describes what a recorded purchase changed.
type PurchaseResult struct {
	Record entitlement.Record `json:"record"`

	// Accepted is false when the transaction id was already recorded.
	Accepted  bool `json:"accepted"`
	Duplicate bool `json:"duplicate"`

	// Unresolved is true when the catalog does not know the item or
	// disagrees on its kind. The record is kept but unlocks nothing.
	Unresolved bool `json:"unresolved"`

	NewlyUnlocked []string              `json:"newly_unlocked,omitempty"`
	Milestones    []milestone.Milestone `json:"milestones,omitempty"`
	Bonuses       []bonus.Record        `json:"bonuses,omitempty"`
}

// IsUnknownItem reports whether the purchased item was not resolved
// against the catalog.
func (r *PurchaseResult) IsUnknownItem() bool {
	return r != nil && r.Unresolved
}

// Err returns ErrUnknownCatalogItem for unresolved purchases, nil otherwise.
func (r *PurchaseResult) Err() error {
	if r.IsUnknownItem() {
		return fmt.Errorf("%w: %s", ErrUnknownCatalogItem, r.Record.ItemID)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Purchase pipeline
// ──────────────────────────────────────────────────

// Purchase submits the item to the configured purchase provider and
// records the receipt.
func (l *Ledger) Purchase(ctx context.Context, itemID string, kind catalog.Kind, price types.Money) (*PurchaseResult, error) {
	if l.provider == nil {
		return nil, ErrNoPurchaseProvider
	}
	if err := l.checkRunning(); err != nil {
		return nil, err
	}

	receipt, err := l.provider.SubmitPurchase(ctx, itemID, kind, price)
	if err != nil {
		return nil, fmt.Errorf("progression: submit purchase %q: %w", itemID, err)
	}
	return l.ConfirmPurchase(ctx, receipt)
}

// ConfirmPurchase records a receipt from the checkout flow. Only confirmed
// receipts grant an entitlement.
func (l *Ledger) ConfirmPurchase(ctx context.Context, receipt *purchase.Receipt) (*PurchaseResult, error) {
	if !receipt.Confirmed() {
		return nil, ErrPurchaseNotConfirmed
	}
	return l.RecordPurchase(ctx, entitlement.Record{
		TransactionID: receipt.TransactionID,
		ItemID:        receipt.ItemID,
		Kind:          receipt.Kind,
		Price:         receipt.Price,
		AcquiredAt:    receipt.ProcessedAt,
	})
}

// RecordPurchase appends a confirmed purchase to the ledger. Repeating a
// transaction id is not an error: the original record is returned with
// Duplicate set and nothing else changes.
func (l *Ledger) RecordPurchase(ctx context.Context, rec entitlement.Record) (*PurchaseResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkRunningLocked(); err != nil {
		return nil, err
	}
	if rec.TransactionID == "" {
		return nil, ValidationError{Field: "transaction_id", Message: "required"}
	}
	if rec.Kind == "" {
		if item, ok := l.catalog.Get(rec.ItemID); ok {
			rec.Kind = item.Kind
		}
	}

	appended, err := l.entitlements.Append(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	result := &PurchaseResult{
		Record:     appended.Record,
		Accepted:   appended.Accepted,
		Duplicate:  !appended.Accepted,
		Unresolved: !l.resolves(appended.Record),
	}

	l.plugins.EmitPurchaseRecorded(ctx, appended.Record, appended.Accepted)

	if result.Duplicate {
		l.logger.Debug("duplicate transaction ignored",
			"learner_id", l.learnerID,
			"transaction_id", rec.TransactionID,
		)
		return result, nil
	}

	if result.Unresolved {
		l.logger.Warn("purchase references unknown catalog item",
			"learner_id", l.learnerID,
			"transaction_id", rec.TransactionID,
			"item_id", rec.ItemID,
			"kind", rec.Kind,
		)
		l.plugins.EmitUnknownItem(ctx, appended.Record)
		l.markDirty()
		return result, nil
	}

	next := unlock.Project(l.catalog, l.entitlements.List())
	result.NewlyUnlocked = next.Difference(l.projection)
	achieved := l.detector.Diff(l.projection, next, l.catalog)
	l.projection = next

	for _, m := range achieved {
		got, b, ok := l.achieve(ctx, m)
		if !ok {
			continue
		}
		result.Milestones = append(result.Milestones, got)
		if b != nil {
			result.Bonuses = append(result.Bonuses, *b)
		}
		l.celebrate(got, b)
	}

	// After celebrate: a cue queued behind a busy sequencer fires no
	// transition, so nothing else marks it dirty.
	l.markDirty()

	l.logger.Debug("purchase recorded",
		"learner_id", l.learnerID,
		"transaction_id", rec.TransactionID,
		"item_id", rec.ItemID,
		"unlocked", len(result.NewlyUnlocked),
		"milestones", len(result.Milestones),
	)

	return result, nil
}

// achieve records the milestone and issues its bonus. b is nil when the
// bonus had already been issued. Callers hold l.mu.
func (l *Ledger) achieve(ctx context.Context, m milestone.Milestone) (milestone.Milestone, *bonus.Record, bool) {
	if !l.milestones.Record(m) {
		return m, nil, false
	}

	l.logger.Info("milestone achieved",
		"learner_id", l.learnerID,
		"milestone_id", m.ID,
		"kind", m.Kind,
	)

	b, issued := l.emitter.Issue(ctx, m)
	l.milestones.MarkRewarded(m.ID)
	m.RewardIssued = true

	l.publish(hookMilestoneAchieved, m)
	if !issued {
		return m, nil, true
	}

	l.logger.Info("reward issued",
		"learner_id", l.learnerID,
		"milestone_id", m.ID,
		"bonus_id", b.ID.String(),
		"amount", b.Amount,
	)
	l.publish(hookRewardIssued, *b)
	return m, b, true
}

// celebrate queues the follow-up workflow for a rewarded milestone.
func (l *Ledger) celebrate(m milestone.Milestone, b *bonus.Record) {
	if b == nil {
		return
	}
	c := workflow.Cue{MilestoneID: m.ID, Kind: m.Kind, BonusAmount: b.Amount}
	if err := l.sequencer.Enqueue(c); err != nil {
		l.logger.Warn("failed to queue celebration",
			"learner_id", l.learnerID,
			"milestone_id", m.ID,
			"error", err,
		)
	}
}

// resolves reports whether the record matches a catalog item of the same kind.
func (l *Ledger) resolves(r entitlement.Record) bool {
	item, ok := l.catalog.Get(r.ItemID)
	return ok && item.Kind == r.Kind
}

func (l *Ledger) checkRunning() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.checkRunningLocked()
}

func (l *Ledger) checkRunningLocked() error {
	if l.stopped {
		return ErrStopped
	}
	if !l.started {
		return ErrNotStarted
	}
	return nil
}

// ──────────────────────────────────────────────────
// Replay
// ──────────────────────────────────────────────────

// replay rebuilds in-memory state from the store. Unlocks and milestones
// are re-derived from the ledger. A milestone without a persisted bonus is
// rewarded now. Callers hold l.mu.
func (l *Ledger) replay(ctx context.Context) error {
	start := time.Now()

	records, err := l.store.LoadLedger(ctx, l.learnerID)
	if err != nil {
		return fmt.Errorf("progression: load ledger: %w", err)
	}
	bonuses, err := l.store.LoadBonuses(ctx, l.learnerID)
	if err != nil {
		return fmt.Errorf("progression: load bonuses: %w", err)
	}
	cp, err := l.store.LoadWorkflow(ctx, l.learnerID)
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("progression: load workflow: %w", err)
	}

	l.entitlements.Restore(records)
	l.emitter.Restore(bonuses)
	l.persistedRecords = l.entitlements.Len()
	l.persistedBonuses = len(l.emitter.List())

	l.projection = unlock.Project(l.catalog, l.entitlements.List())
	for _, txn := range l.projection.Unresolved() {
		l.logger.Warn("ledger record does not resolve against catalog",
			"learner_id", l.learnerID,
			"transaction_id", txn,
		)
	}

	var healed []milestone.Milestone
	var healedBonuses []*bonus.Record
	achieved := l.detector.Diff(unlock.Empty(), l.projection, l.catalog)
	for _, m := range achieved {
		if b, ok := l.emitter.Get(m.ID); ok {
			m.AchievedAt = b.IssuedAt
			l.milestones.Record(m)
			l.milestones.MarkRewarded(m.ID)
			continue
		}
		if at := l.ownedSince(m); !at.IsZero() {
			m.AchievedAt = at
		}
		got, b, ok := l.achieve(ctx, m)
		if ok {
			healed = append(healed, got)
			healedBonuses = append(healedBonuses, b)
		}
	}

	l.restoreWorkflow(cp)
	for i, m := range healed {
		l.celebrate(m, healedBonuses[i])
	}
	if len(healed) > 0 {
		l.markDirty()
	}

	elapsed := time.Since(start)
	l.plugins.EmitLedgerReplayed(ctx, len(records), len(achieved), elapsed)

	l.logger.Info("ledger replayed",
		"learner_id", l.learnerID,
		"records", len(records),
		"milestones", len(achieved),
		"healed", len(healed),
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return nil
}

// ownedSince returns when the ledger first satisfied the milestone's
// containment: the latest first grant among a course's lessons, or among a
// pack's courses. Callers hold l.mu.
func (l *Ledger) ownedSince(m milestone.Milestone) time.Time {
	if m.Kind == catalog.KindCourse {
		return l.courseOwnedSince(m.ID)
	}
	courses := l.catalog.Courses(m.ID)
	if len(courses) == 0 {
		return l.firstGrant(m.ID)
	}
	var at time.Time
	for _, courseID := range courses {
		if t := l.courseOwnedSince(courseID); t.After(at) {
			at = t
		}
	}
	return at
}

func (l *Ledger) courseOwnedSince(courseID string) time.Time {
	lessons := l.catalog.Lessons(courseID)
	if len(lessons) == 0 {
		return l.firstGrant(courseID)
	}
	var at time.Time
	for _, lessonID := range lessons {
		if t := l.firstGrant(lessonID); t.After(at) {
			at = t
		}
	}
	return at
}

// firstGrant returns the earliest acquisition among the records unlocking itemID.
func (l *Ledger) firstGrant(itemID string) time.Time {
	var first time.Time
	for _, g := range l.projection.Provenance(itemID) {
		r, ok := l.entitlements.Get(g.TransactionID)
		if !ok {
			continue
		}
		if first.IsZero() || r.AcquiredAt.Before(first) {
			first = r.AcquiredAt
		}
	}
	return first
}

// restoreWorkflow resumes the checkpoint or, when resuming is disabled,
// starts idle and queues the cues the checkpoint still owed.
func (l *Ledger) restoreWorkflow(cp *workflow.Checkpoint) {
	if cp == nil {
		return
	}

	if l.resumeWorkflow {
		err := l.sequencer.Restore(*cp)
		if err == nil {
			return
		}
		l.logger.Warn("discarding unusable workflow checkpoint",
			"learner_id", l.learnerID,
			"state", cp.State,
			"error", err,
		)
	}

	var owed []workflow.Cue
	if cp.Current != nil {
		owed = append(owed, *cp.Current)
	}
	owed = append(owed, cp.Queue...)
	for _, c := range owed {
		if err := l.sequencer.Enqueue(c); err != nil {
			l.logger.Warn("failed to queue celebration",
				"learner_id", l.learnerID,
				"milestone_id", c.MilestoneID,
				"error", err,
			)
		}
	}
	if len(owed) > 0 || cp.State != workflow.StateIdle {
		l.markDirty()
	}
}
