package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/progression/bonus"
	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/entitlement"
	"github.com/xraph/progression/id"
	"github.com/xraph/progression/types"
	"github.com/xraph/progression/workflow"
)

// ==================== Entitlement models ====================

type entitlementModel struct {
	grove.BaseModel `grove:"table:progression_entitlements"`

	ID            string      `grove:"id,pk"          bson:"_id"`
	LearnerID     string      `grove:"learner_id"     bson:"learner_id"`
	TransactionID string      `grove:"transaction_id" bson:"transaction_id"`
	Position      int64       `grove:"position"       bson:"position"`
	ItemID        string      `grove:"item_id"        bson:"item_id"`
	Kind          string      `grove:"kind"           bson:"kind"`
	Price         types.Money `grove:"price"          bson:"price"`
	AcquiredAt    time.Time   `grove:"acquired_at"    bson:"acquired_at"`
	CreatedAt     time.Time   `grove:"created_at"     bson:"created_at"`
}

func toEntitlementModel(learnerID string, position int64, r entitlement.Record) *entitlementModel {
	return &entitlementModel{
		ID:            r.ID.String(),
		LearnerID:     learnerID,
		TransactionID: r.TransactionID,
		Position:      position,
		ItemID:        r.ItemID,
		Kind:          string(r.Kind),
		Price:         r.Price,
		AcquiredAt:    r.AcquiredAt,
		CreatedAt:     now(),
	}
}

func fromEntitlementModel(m *entitlementModel) (entitlement.Record, error) {
	entID, err := id.ParseEntitlementID(m.ID)
	if err != nil {
		return entitlement.Record{}, fmt.Errorf("entitlement %s: %w", m.TransactionID, err)
	}
	return entitlement.Record{
		ID:            entID,
		TransactionID: m.TransactionID,
		ItemID:        m.ItemID,
		Kind:          catalog.Kind(m.Kind),
		Price:         m.Price,
		AcquiredAt:    m.AcquiredAt,
	}, nil
}

// ==================== Bonus models ====================

type bonusModel struct {
	grove.BaseModel `grove:"table:progression_bonuses"`

	ID          string    `grove:"id,pk"        bson:"_id"`
	LearnerID   string    `grove:"learner_id"   bson:"learner_id"`
	MilestoneID string    `grove:"milestone_id" bson:"milestone_id"`
	Kind        string    `grove:"kind"         bson:"kind"`
	Amount      int64     `grove:"amount"       bson:"amount"`
	IssuedAt    time.Time `grove:"issued_at"    bson:"issued_at"`
}

func toBonusModel(learnerID string, b bonus.Record) *bonusModel {
	return &bonusModel{
		ID:          b.ID.String(),
		LearnerID:   learnerID,
		MilestoneID: b.MilestoneID,
		Kind:        string(b.Kind),
		Amount:      b.Amount,
		IssuedAt:    b.IssuedAt,
	}
}

func fromBonusModel(m *bonusModel) (bonus.Record, error) {
	bonusID, err := id.ParseBonusID(m.ID)
	if err != nil {
		return bonus.Record{}, fmt.Errorf("bonus %s: %w", m.MilestoneID, err)
	}
	return bonus.Record{
		ID:          bonusID,
		MilestoneID: m.MilestoneID,
		Kind:        catalog.Kind(m.Kind),
		Amount:      m.Amount,
		IssuedAt:    m.IssuedAt,
	}, nil
}

// ==================== Workflow models ====================

type workflowModel struct {
	grove.BaseModel `grove:"table:progression_workflow"`

	LearnerID string         `grove:"learner_id,pk" bson:"_id"`
	State     string         `grove:"state"         bson:"state"`
	Current   *workflow.Cue  `grove:"current"       bson:"current,omitempty"`
	Queue     []workflow.Cue `grove:"queue"         bson:"queue"`
	UpdatedAt time.Time      `grove:"updated_at"    bson:"updated_at"`
}

func toWorkflowModel(learnerID string, cp workflow.Checkpoint) *workflowModel {
	queue := cp.Queue
	if queue == nil {
		queue = []workflow.Cue{}
	}
	return &workflowModel{
		LearnerID: learnerID,
		State:     string(cp.State),
		Current:   cp.Current,
		Queue:     queue,
		UpdatedAt: now(),
	}
}

func fromWorkflowModel(m *workflowModel) *workflow.Checkpoint {
	return &workflow.Checkpoint{
		State:   workflow.State(m.State),
		Current: m.Current,
		Queue:   m.Queue,
	}
}
