package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/entitlement"
	"github.com/xraph/progression/id"
	"github.com/xraph/progression/types"
	"github.com/xraph/progression/workflow"
)

func TestWorkflowModel_IdleCheckpoint(t *testing.T) {
	m, err := toWorkflowModel("learner-1", workflow.Checkpoint{State: workflow.StateIdle})
	require.NoError(t, err)
	assert.Equal(t, "null", string(m.Current))
	assert.Equal(t, "[]", string(m.Queue))

	cp, err := fromWorkflowModel(m)
	require.NoError(t, err)
	assert.True(t, cp.Empty())
	assert.Nil(t, cp.Current)
}

func TestWorkflowModel_PendingCheckpoint(t *testing.T) {
	in := workflow.Checkpoint{
		State:   workflow.StateCelebrationShown,
		Current: &workflow.Cue{MilestoneID: "c-a", Kind: catalog.KindCourse, BonusAmount: 100},
		Queue:   []workflow.Cue{{MilestoneID: "p-sci", Kind: catalog.KindPack, BonusAmount: 500}},
	}
	m, err := toWorkflowModel("learner-1", in)
	require.NoError(t, err)

	out, err := fromWorkflowModel(m)
	require.NoError(t, err)
	assert.Equal(t, in, *out)
}

func TestEntitlementModel_RejectsForeignID(t *testing.T) {
	r := entitlement.Record{
		ID:            id.NewEntitlementID(),
		TransactionID: "txn-1",
		ItemID:        "l-a1",
		Kind:          catalog.KindLesson,
		Price:         types.USD(199),
		AcquiredAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	m := toEntitlementModel("learner-1", 7, r)
	assert.Equal(t, int64(7), m.Position)

	got, err := fromEntitlementModel(&m)
	require.NoError(t, err)
	assert.Equal(t, r.ID.String(), got.ID.String())
	assert.Equal(t, r.TransactionID, got.TransactionID)
	assert.Equal(t, r.Kind, got.Kind)
	assert.True(t, r.Price.Equal(got.Price))
	assert.True(t, r.AcquiredAt.Equal(got.AcquiredAt))

	m.ID = id.NewBonusID().String()
	_, err = fromEntitlementModel(&m)
	assert.Error(t, err)
}
