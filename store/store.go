// Package store defines the persistence boundary of the progression ledger.
//
// Every method is keyed by learner id. Saves are idempotent: the engine
// retries writes with backoff and may resend records that were already
// stored, so backends insert-or-ignore ledger and bonus rows by their
// natural keys and upsert the workflow checkpoint.
package store

import (
	"context"

	"github.com/xraph/progression/bonus"
	"github.com/xraph/progression/entitlement"
	"github.com/xraph/progression/workflow"
)

// Store is the unified storage interface for ledger state.
type Store interface {
	// Ledger methods. LoadLedger returns records in append order.
	LoadLedger(ctx context.Context, learnerID string) ([]entitlement.Record, error)
	SaveLedger(ctx context.Context, learnerID string, records []entitlement.Record) error

	// Bonus methods. SaveBonuses ignores milestones already rewarded.
	LoadBonuses(ctx context.Context, learnerID string) ([]bonus.Record, error)
	SaveBonuses(ctx context.Context, learnerID string, bonuses []bonus.Record) error

	// Workflow methods. LoadWorkflow returns progression.ErrCheckpointNotFound
	// when nothing was saved for the learner.
	LoadWorkflow(ctx context.Context, learnerID string) (*workflow.Checkpoint, error)
	SaveWorkflow(ctx context.Context, learnerID string, cp workflow.Checkpoint) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
