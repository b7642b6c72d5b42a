package milestone_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/milestone"
)

func TestRegistryRecordOnce(t *testing.T) {
	r := milestone.NewRegistry()

	assert.True(t, r.Record(milestone.Milestone{ID: "c-101", Kind: catalog.KindCourse}))
	assert.False(t, r.Record(milestone.Milestone{ID: "c-101", Kind: catalog.KindCourse}))
	assert.Equal(t, 1, r.Len())
}

func TestRegistryRewardIsOneWay(t *testing.T) {
	r := milestone.NewRegistry()
	r.Record(milestone.Milestone{ID: "p-sci", Kind: catalog.KindPack, RewardIssued: true})

	m, ok := r.Get("p-sci")
	require.True(t, ok)
	assert.False(t, m.RewardIssued, "recording must start unrewarded")

	assert.True(t, r.MarkRewarded("p-sci"))
	assert.False(t, r.MarkRewarded("p-sci"))
	assert.False(t, r.MarkRewarded("unknown"))

	m, _ = r.Get("p-sci")
	assert.True(t, m.RewardIssued)

	r.Record(milestone.Milestone{ID: "p-sci"})
	m, _ = r.Get("p-sci")
	assert.True(t, m.RewardIssued)
}

func TestRegistryListOrder(t *testing.T) {
	r := milestone.NewRegistry()
	r.Record(milestone.Milestone{ID: "c-b"})
	r.Record(milestone.Milestone{ID: "c-a"})

	assert.Equal(t, []string{"c-b", "c-a"}, milestone.IDs(r.List()))
}
