// Package observability provides a metrics extension for the progression
// ledger that records purchase, milestone and persistence counts via a
// MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/progression/bonus"
	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/milestone"
	"github.com/xraph/progression/plugin"
	"github.com/xraph/progression/workflow"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnLedgerReplayed       = (*MetricsExtension)(nil)
	_ plugin.OnPurchaseRecorded     = (*MetricsExtension)(nil)
	_ plugin.OnUnknownItem          = (*MetricsExtension)(nil)
	_ plugin.OnMilestoneAchieved    = (*MetricsExtension)(nil)
	_ plugin.OnRewardIssued         = (*MetricsExtension)(nil)
	_ plugin.OnWorkflowStageChanged = (*MetricsExtension)(nil)
	_ plugin.OnLedgerPersisted      = (*MetricsExtension)(nil)
	_ plugin.OnPersistFailed        = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger metrics.
// Register it as a ledger plugin to track progression activity.
type MetricsExtension struct {
	factory MetricFactory

	// Purchase metrics
	PurchasesRecorded  Counter
	PurchaseDuplicates Counter
	UnknownItems       Counter

	// Progression metrics
	CoursesCompleted Counter
	PacksCompleted   Counter
	RewardsIssued    Counter
	RewardAmount     Histogram

	// Workflow metrics
	WorkflowTransitions Counter
	OnboardingPostponed Counter

	// Persistence metrics
	PersistSuccess  Counter
	PersistFailure  Counter
	PersistLatency  Histogram
	PersistAttempts Histogram

	// Replay metrics
	ReplayRecords Histogram
	ReplayLatency Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		PurchasesRecorded:  factory.Counter("progression.purchase.recorded"),
		PurchaseDuplicates: factory.Counter("progression.purchase.duplicates"),
		UnknownItems:       factory.Counter("progression.purchase.unknown_items"),

		CoursesCompleted: factory.Counter("progression.milestone.course"),
		PacksCompleted:   factory.Counter("progression.milestone.pack"),
		RewardsIssued:    factory.Counter("progression.reward.issued"),
		RewardAmount:     factory.Histogram("progression.reward.amount"),

		WorkflowTransitions: factory.Counter("progression.workflow.transitions"),
		OnboardingPostponed: factory.Counter("progression.workflow.onboarding_postponed"),

		PersistSuccess:  factory.Counter("progression.persist.success"),
		PersistFailure:  factory.Counter("progression.persist.failure"),
		PersistLatency:  factory.Histogram("progression.persist.latency_ms"),
		PersistAttempts: factory.Histogram("progression.persist.attempts"),

		ReplayRecords: factory.Histogram("progression.replay.records"),
		ReplayLatency: factory.Histogram("progression.replay.latency_ms"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// OnLedgerReplayed implements plugin.OnLedgerReplayed.
func (m *MetricsExtension) OnLedgerReplayed(_ context.Context, records, _ int, elapsed time.Duration) error {
	m.ReplayRecords.Observe(float64(records))
	m.ReplayLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// ──────────────────────────────────────────────────
// Purchase hooks
// ──────────────────────────────────────────────────

// OnPurchaseRecorded implements plugin.OnPurchaseRecorded.
func (m *MetricsExtension) OnPurchaseRecorded(_ context.Context, _ interface{}, accepted bool) error {
	if accepted {
		m.PurchasesRecorded.Inc()
	} else {
		m.PurchaseDuplicates.Inc()
	}
	return nil
}

// OnUnknownItem implements plugin.OnUnknownItem.
func (m *MetricsExtension) OnUnknownItem(_ context.Context, _ interface{}) error {
	m.UnknownItems.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Progression hooks
// ──────────────────────────────────────────────────

// OnMilestoneAchieved implements plugin.OnMilestoneAchieved.
func (m *MetricsExtension) OnMilestoneAchieved(_ context.Context, v interface{}) error {
	ms, ok := v.(milestone.Milestone)
	if !ok {
		return nil
	}
	switch ms.Kind {
	case catalog.KindCourse:
		m.CoursesCompleted.Inc()
	case catalog.KindPack:
		m.PacksCompleted.Inc()
	}
	return nil
}

// OnRewardIssued implements plugin.OnRewardIssued.
func (m *MetricsExtension) OnRewardIssued(_ context.Context, v interface{}) error {
	m.RewardsIssued.Inc()
	if b, ok := v.(bonus.Record); ok {
		m.RewardAmount.Observe(float64(b.Amount))
	}
	return nil
}

// OnWorkflowStageChanged implements plugin.OnWorkflowStageChanged.
func (m *MetricsExtension) OnWorkflowStageChanged(_ context.Context, v interface{}) error {
	m.WorkflowTransitions.Inc()
	if t, ok := v.(workflow.Transition); ok && t.Postponed {
		m.OnboardingPostponed.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Persistence hooks
// ──────────────────────────────────────────────────

// OnLedgerPersisted implements plugin.OnLedgerPersisted.
func (m *MetricsExtension) OnLedgerPersisted(_ context.Context, _ int, elapsed time.Duration) error {
	m.PersistSuccess.Inc()
	m.PersistLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// OnPersistFailed implements plugin.OnPersistFailed.
func (m *MetricsExtension) OnPersistFailed(_ context.Context, attempts int, _ error) error {
	m.PersistFailure.Inc()
	m.PersistAttempts.Observe(float64(attempts))
	return nil
}
