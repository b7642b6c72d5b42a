// Package audithook bridges progression ledger events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not import an
// audit backend directly. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/progression/bonus"
	"github.com/xraph/progression/entitlement"
	"github.com/xraph/progression/milestone"
	"github.com/xraph/progression/plugin"
	"github.com/xraph/progression/workflow"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnInit                 = (*Extension)(nil)
	_ plugin.OnLedgerReplayed       = (*Extension)(nil)
	_ plugin.OnPurchaseRecorded     = (*Extension)(nil)
	_ plugin.OnUnknownItem          = (*Extension)(nil)
	_ plugin.OnMilestoneAchieved    = (*Extension)(nil)
	_ plugin.OnRewardIssued         = (*Extension)(nil)
	_ plugin.OnWorkflowStageChanged = (*Extension)(nil)
	_ plugin.OnPersistFailed        = (*Extension)(nil)
)

// learnerSource is implemented by the ledger handed to OnInit.
type learnerSource interface {
	LearnerID() string
}

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	LearnerID  string         `json:"learner_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges ledger events to an audit trail backend.
type Extension struct {
	recorder  Recorder
	enabled   map[string]bool // nil = all enabled
	logger    *slog.Logger
	learnerID string
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// OnInit implements plugin.OnInit.
func (e *Extension) OnInit(_ context.Context, l interface{}) error {
	if src, ok := l.(learnerSource); ok {
		e.learnerID = src.LearnerID()
	}
	return nil
}

// OnLedgerReplayed implements plugin.OnLedgerReplayed.
func (e *Extension) OnLedgerReplayed(ctx context.Context, records, milestones int, elapsed time.Duration) error {
	return e.record(ctx, ActionLedgerReplayed, SeverityInfo, OutcomeSuccess,
		ResourceLedger, e.learnerID, CategoryStorage, nil,
		"records", records,
		"milestones", milestones,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Purchase hooks
// ──────────────────────────────────────────────────

// OnPurchaseRecorded implements plugin.OnPurchaseRecorded.
func (e *Extension) OnPurchaseRecorded(ctx context.Context, v interface{}, accepted bool) error {
	rec, _ := v.(entitlement.Record)

	action, severity := ActionPurchaseRecorded, SeverityInfo
	if !accepted {
		action, severity = ActionPurchaseDuplicate, SeverityWarning
	}
	return e.record(ctx, action, severity, OutcomeSuccess,
		ResourceEntitlement, rec.TransactionID, CategoryPurchase, nil,
		"item_id", rec.ItemID,
		"kind", string(rec.Kind),
		"price", rec.Price.String(),
	)
}

// OnUnknownItem implements plugin.OnUnknownItem.
func (e *Extension) OnUnknownItem(ctx context.Context, v interface{}) error {
	rec, _ := v.(entitlement.Record)
	return e.record(ctx, ActionPurchaseUnknown, SeverityWarning, OutcomePartial,
		ResourceEntitlement, rec.TransactionID, CategoryPurchase, nil,
		"item_id", rec.ItemID,
		"kind", string(rec.Kind),
	)
}

// ──────────────────────────────────────────────────
// Progression hooks
// ──────────────────────────────────────────────────

// OnMilestoneAchieved implements plugin.OnMilestoneAchieved.
func (e *Extension) OnMilestoneAchieved(ctx context.Context, v interface{}) error {
	m, _ := v.(milestone.Milestone)
	return e.record(ctx, ActionMilestoneAchieved, SeverityInfo, OutcomeSuccess,
		ResourceMilestone, m.ID, CategoryProgression, nil,
		"kind", string(m.Kind),
	)
}

// OnRewardIssued implements plugin.OnRewardIssued.
func (e *Extension) OnRewardIssued(ctx context.Context, v interface{}) error {
	b, _ := v.(bonus.Record)
	return e.record(ctx, ActionRewardIssued, SeverityInfo, OutcomeSuccess,
		ResourceBonus, b.ID.String(), CategoryReward, nil,
		"milestone_id", b.MilestoneID,
		"amount", b.Amount,
	)
}

// OnWorkflowStageChanged implements plugin.OnWorkflowStageChanged.
func (e *Extension) OnWorkflowStageChanged(ctx context.Context, v interface{}) error {
	t, ok := v.(workflow.Transition)
	if !ok {
		return nil
	}
	action := ActionWorkflowChanged
	if t.Postponed {
		action = ActionOnboardingPostponed
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceWorkflow, t.MilestoneID, CategoryWorkflow, nil,
		"from", string(t.From),
		"to", string(t.To),
	)
}

// OnPersistFailed implements plugin.OnPersistFailed.
func (e *Extension) OnPersistFailed(ctx context.Context, attempts int, err error) error {
	return e.record(ctx, ActionPersistFailed, SeverityCritical, OutcomeFailure,
		ResourceLedger, e.learnerID, CategoryStorage, err,
		"attempts", attempts,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		LearnerID:  e.learnerID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
