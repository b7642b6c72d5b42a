package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/progression"
	"github.com/xraph/progression/bonus"
	"github.com/xraph/progression/entitlement"
	progressionstore "github.com/xraph/progression/store"
	"github.com/xraph/progression/workflow"
)

// Collection name constants.
const (
	colEntitlements = "progression_entitlements"
	colBonuses      = "progression_bonuses"
	colWorkflow     = "progression_workflow"
)

// compile-time interface check
var _ progressionstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all progression collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("progression/mongo: migrate %s indexes: %w", col, err)
		}
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
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"learner_id": learnerID}).
		Sort(bson.D{{Key: "position", Value: 1}, {Key: "created_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("progression/mongo: load ledger: %w", err)
	}

	records := make([]entitlement.Record, 0, len(models))
	for i := range models {
		r, err := fromEntitlementModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("progression/mongo: %w", err)
		}
		records = append(records, r)
	}
	return records, nil
}

// SaveLedger appends records after the learner's existing documents.
// Transaction ids already stored are skipped.
func (s *Store) SaveLedger(ctx context.Context, learnerID string, records []entitlement.Record) error {
	if len(records) == 0 {
		return nil
	}

	next, err := s.mdb.Collection(colEntitlements).CountDocuments(ctx, bson.M{"learner_id": learnerID})
	if err != nil {
		return fmt.Errorf("progression/mongo: count ledger: %w", err)
	}

	for _, r := range records {
		m := toEntitlementModel(learnerID, next, r)
		_, err := s.mdb.NewInsert(m).Exec(ctx)
		if err != nil {
			// Skip duplicates for idempotency
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return fmt.Errorf("progression/mongo: save ledger: %w", err)
		}
		next++
	}
	return nil
}

// ==================== Bonuses ====================

func (s *Store) LoadBonuses(ctx context.Context, learnerID string) ([]bonus.Record, error) {
	var models []bonusModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"learner_id": learnerID}).
		Sort(bson.D{{Key: "issued_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("progression/mongo: load bonuses: %w", err)
	}

	bonuses := make([]bonus.Record, 0, len(models))
	for i := range models {
		b, err := fromBonusModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("progression/mongo: %w", err)
		}
		bonuses = append(bonuses, b)
	}
	return bonuses, nil
}

func (s *Store) SaveBonuses(ctx context.Context, learnerID string, bonuses []bonus.Record) error {
	for _, b := range bonuses {
		_, err := s.mdb.NewInsert(toBonusModel(learnerID, b)).Exec(ctx)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return fmt.Errorf("progression/mongo: save bonus: %w", err)
		}
	}
	return nil
}

// ==================== Workflow ====================

func (s *Store) LoadWorkflow(ctx context.Context, learnerID string) (*workflow.Checkpoint, error) {
	var m workflowModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": learnerID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, progression.ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("progression/mongo: load workflow: %w", err)
	}
	return fromWorkflowModel(&m), nil
}

func (s *Store) SaveWorkflow(ctx context.Context, learnerID string, cp workflow.Checkpoint) error {
	m := toWorkflowModel(learnerID, cp)

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.LearnerID}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":        m.LearnerID,
			"state":      m.State,
			"current":    m.Current,
			"queue":      m.Queue,
			"updated_at": m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("progression/mongo: save workflow: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all progression collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colEntitlements: {
			{
				Keys:    bson.D{{Key: "learner_id", Value: 1}, {Key: "transaction_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "learner_id", Value: 1}, {Key: "position", Value: 1}}},
		},
		colBonuses: {
			{
				Keys:    bson.D{{Key: "learner_id", Value: 1}, {Key: "milestone_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colWorkflow: {},
	}
}
