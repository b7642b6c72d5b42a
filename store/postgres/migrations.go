package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the progression store.
var Migrations = migrate.NewGroup("progression")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_progression_entitlements",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS progression_entitlements (
    id             TEXT PRIMARY KEY,
    learner_id     TEXT NOT NULL,
    transaction_id TEXT NOT NULL,
    position       BIGINT NOT NULL DEFAULT 0,
    item_id        TEXT NOT NULL DEFAULT '',
    kind           TEXT NOT NULL DEFAULT '',
    price_amount   BIGINT NOT NULL DEFAULT 0,
    price_currency TEXT NOT NULL DEFAULT '',
    acquired_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_progression_ent_txn ON progression_entitlements (learner_id, transaction_id);
CREATE INDEX IF NOT EXISTS idx_progression_ent_position ON progression_entitlements (learner_id, position);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS progression_entitlements`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_progression_bonuses",
			Version: "20260101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS progression_bonuses (
    id           TEXT PRIMARY KEY,
    learner_id   TEXT NOT NULL,
    milestone_id TEXT NOT NULL,
    kind         TEXT NOT NULL DEFAULT '',
    amount       BIGINT NOT NULL DEFAULT 0,
    issued_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_progression_bonus_milestone ON progression_bonuses (learner_id, milestone_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS progression_bonuses`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_progression_workflow",
			Version: "20260101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS progression_workflow (
    learner_id TEXT PRIMARY KEY,
    state      TEXT NOT NULL DEFAULT 'idle',
    current    JSONB,
    queue      JSONB NOT NULL DEFAULT '[]',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS progression_workflow`)
				return err
			},
		},
	)
}
