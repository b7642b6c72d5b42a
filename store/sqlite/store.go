package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/progression"
	"github.com/xraph/progression/bonus"
	"github.com/xraph/progression/entitlement"
	progressionstore "github.com/xraph/progression/store"
	"github.com/xraph/progression/workflow"
)

// compile-time interface check
var _ progressionstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("progression/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("progression/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Ledger ====================

func (s *Store) LoadLedger(ctx context.Context, learnerID string) ([]entitlement.Record, error) {
	var models []entitlementModel
	err := s.sdb.NewSelect(&models).
		Where("learner_id = ?", learnerID).
		OrderExpr("position ASC, created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("progression/sqlite: load ledger: %w", err)
	}

	records := make([]entitlement.Record, 0, len(models))
	for i := range models {
		r, err := fromEntitlementModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("progression/sqlite: %w", err)
		}
		records = append(records, r)
	}
	return records, nil
}

// SaveLedger appends records after the learner's existing rows. Transaction
// ids already stored are skipped.
func (s *Store) SaveLedger(ctx context.Context, learnerID string, records []entitlement.Record) error {
	if len(records) == 0 {
		return nil
	}

	var next int64
	err := s.sdb.NewRaw(`
		SELECT COALESCE(MAX(position) + 1, 0) FROM progression_entitlements
		WHERE learner_id = ?
	`, learnerID).Scan(ctx, &next)
	if err != nil {
		return fmt.Errorf("progression/sqlite: next position: %w", err)
	}

	models := make([]entitlementModel, len(records))
	for i, r := range records {
		models[i] = toEntitlementModel(learnerID, next+int64(i), r)
	}
	_, err = s.sdb.NewInsert(&models).
		OnConflict("(learner_id, transaction_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("progression/sqlite: save ledger: %w", err)
	}
	return nil
}

// ==================== Bonuses ====================

func (s *Store) LoadBonuses(ctx context.Context, learnerID string) ([]bonus.Record, error) {
	var models []bonusModel
	err := s.sdb.NewSelect(&models).
		Where("learner_id = ?", learnerID).
		OrderExpr("issued_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("progression/sqlite: load bonuses: %w", err)
	}

	bonuses := make([]bonus.Record, 0, len(models))
	for i := range models {
		b, err := fromBonusModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("progression/sqlite: %w", err)
		}
		bonuses = append(bonuses, b)
	}
	return bonuses, nil
}

func (s *Store) SaveBonuses(ctx context.Context, learnerID string, bonuses []bonus.Record) error {
	if len(bonuses) == 0 {
		return nil
	}
	models := make([]bonusModel, len(bonuses))
	for i, b := range bonuses {
		models[i] = toBonusModel(learnerID, b)
	}
	_, err := s.sdb.NewInsert(&models).
		OnConflict("(learner_id, milestone_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("progression/sqlite: save bonuses: %w", err)
	}
	return nil
}

// ==================== Workflow ====================

func (s *Store) LoadWorkflow(ctx context.Context, learnerID string) (*workflow.Checkpoint, error) {
	m := new(workflowModel)
	err := s.sdb.NewSelect(m).
		Where("learner_id = ?", learnerID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, progression.ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("progression/sqlite: load workflow: %w", err)
	}
	cp, err := fromWorkflowModel(m)
	if err != nil {
		return nil, fmt.Errorf("progression/sqlite: %w", err)
	}
	return cp, nil
}

func (s *Store) SaveWorkflow(ctx context.Context, learnerID string, cp workflow.Checkpoint) error {
	m, err := toWorkflowModel(learnerID, cp)
	if err != nil {
		return fmt.Errorf("progression/sqlite: encode workflow: %w", err)
	}
	_, err = s.sdb.NewInsert(m).
		OnConflict("(learner_id) DO UPDATE").
		Set("state = EXCLUDED.state").
		Set("current = EXCLUDED.current").
		Set("queue = EXCLUDED.queue").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("progression/sqlite: save workflow: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
