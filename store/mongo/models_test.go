package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/id"
	"github.com/xraph/progression/workflow"
)

func TestWorkflowModel_NilQueueStoredEmpty(t *testing.T) {
	m := toWorkflowModel("learner-1", workflow.Checkpoint{State: workflow.StateIdle})
	assert.Equal(t, "learner-1", m.LearnerID)
	assert.NotNil(t, m.Queue)
	assert.True(t, fromWorkflowModel(m).Empty())
}

func TestMigrationIndexes_UniqueNaturalKeys(t *testing.T) {
	idx := migrationIndexes()
	require.Len(t, idx[colEntitlements], 2)
	require.Len(t, idx[colBonuses], 1)
	assert.NotNil(t, idx[colEntitlements][0].Options)
	assert.NotNil(t, idx[colBonuses][0].Options)
}

func TestBonusModel_RejectsForeignID(t *testing.T) {
	m := &bonusModel{ID: id.NewEventID().String(), MilestoneID: "c-a", Kind: string(catalog.KindCourse)}
	_, err := fromBonusModel(m)
	assert.Error(t, err)
}
