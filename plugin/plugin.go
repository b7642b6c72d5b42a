// Package plugin provides an extensible plugin system for the progression
// ledger. Plugins hook into purchase, milestone, reward and workflow events.
package plugin

import (
	"context"
	"time"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l interface{}) error
}

// OnShutdown is called when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// OnLedgerReplayed is called after the persisted ledger has been replayed
// on start.
type OnLedgerReplayed interface {
	Plugin
	OnLedgerReplayed(ctx context.Context, records, milestones int, elapsed time.Duration) error
}

// ──────────────────────────────────────────────────
// Purchase hooks
// ──────────────────────────────────────────────────

// OnPurchaseRecorded is called for every confirmed purchase handed to the
// ledger. accepted is false for duplicate transaction ids.
type OnPurchaseRecorded interface {
	Plugin
	OnPurchaseRecorded(ctx context.Context, rec interface{}, accepted bool) error
}

// OnUnknownItem is called when a recorded purchase references an item the
// catalog does not know.
type OnUnknownItem interface {
	Plugin
	OnUnknownItem(ctx context.Context, rec interface{}) error
}

// ──────────────────────────────────────────────────
// Progression hooks
// ──────────────────────────────────────────────────

// OnMilestoneAchieved is called once per newly completed course or pack.
type OnMilestoneAchieved interface {
	Plugin
	OnMilestoneAchieved(ctx context.Context, m interface{}) error
}

// OnRewardIssued is called once per issued bonus.
type OnRewardIssued interface {
	Plugin
	OnRewardIssued(ctx context.Context, b interface{}) error
}

// OnWorkflowStageChanged is called for every sequencer transition.
type OnWorkflowStageChanged interface {
	Plugin
	OnWorkflowStageChanged(ctx context.Context, t interface{}) error
}

// ──────────────────────────────────────────────────
// Persistence hooks
// ──────────────────────────────────────────────────

// OnLedgerPersisted is called after state was written to the store.
type OnLedgerPersisted interface {
	Plugin
	OnLedgerPersisted(ctx context.Context, records int, elapsed time.Duration) error
}

// OnPersistFailed is called when every retry of a write failed.
type OnPersistFailed interface {
	Plugin
	OnPersistFailed(ctx context.Context, attempts int, err error) error
}
