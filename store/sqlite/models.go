package sqlite

import (
	"encoding/json"
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

	ID            string    `grove:"id,pk"`
	LearnerID     string    `grove:"learner_id"`
	TransactionID string    `grove:"transaction_id"`
	Position      int64     `grove:"position"`
	ItemID        string    `grove:"item_id"`
	Kind          string    `grove:"kind"`
	PriceAmount   int64     `grove:"price_amount"`
	PriceCurrency string    `grove:"price_currency"`
	AcquiredAt    time.Time `grove:"acquired_at"`
	CreatedAt     time.Time `grove:"created_at"`
}

func toEntitlementModel(learnerID string, position int64, r entitlement.Record) entitlementModel {
	return entitlementModel{
		ID:            r.ID.String(),
		LearnerID:     learnerID,
		TransactionID: r.TransactionID,
		Position:      position,
		ItemID:        r.ItemID,
		Kind:          string(r.Kind),
		PriceAmount:   r.Price.Amount,
		PriceCurrency: r.Price.Currency,
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
		Price:         types.Of(m.PriceAmount, m.PriceCurrency),
		AcquiredAt:    m.AcquiredAt,
	}, nil
}

// ==================== Bonus models ====================

type bonusModel struct {
	grove.BaseModel `grove:"table:progression_bonuses"`

	ID          string    `grove:"id,pk"`
	LearnerID   string    `grove:"learner_id"`
	MilestoneID string    `grove:"milestone_id"`
	Kind        string    `grove:"kind"`
	Amount      int64     `grove:"amount"`
	IssuedAt    time.Time `grove:"issued_at"`
}

func toBonusModel(learnerID string, b bonus.Record) bonusModel {
	return bonusModel{
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

	LearnerID string          `grove:"learner_id,pk"`
	State     string          `grove:"state"`
	Current   json.RawMessage `grove:"current"`
	Queue     json.RawMessage `grove:"queue"`
	UpdatedAt time.Time       `grove:"updated_at"`
}

func toWorkflowModel(learnerID string, cp workflow.Checkpoint) (*workflowModel, error) {
	current, err := json.Marshal(cp.Current)
	if err != nil {
		return nil, err
	}
	queue := cp.Queue
	if queue == nil {
		queue = []workflow.Cue{}
	}
	q, err := json.Marshal(queue)
	if err != nil {
		return nil, err
	}
	return &workflowModel{
		LearnerID: learnerID,
		State:     string(cp.State),
		Current:   current,
		Queue:     q,
		UpdatedAt: now(),
	}, nil
}

func fromWorkflowModel(m *workflowModel) (*workflow.Checkpoint, error) {
	cp := &workflow.Checkpoint{State: workflow.State(m.State)}
	if len(m.Current) > 0 && string(m.Current) != "null" {
		cp.Current = new(workflow.Cue)
		if err := json.Unmarshal(m.Current, cp.Current); err != nil {
			return nil, fmt.Errorf("decode current cue: %w", err)
		}
	}
	if len(m.Queue) > 0 {
		if err := json.Unmarshal(m.Queue, &cp.Queue); err != nil {
			return nil, fmt.Errorf("decode queue: %w", err)
		}
	}
	return cp, nil
}
