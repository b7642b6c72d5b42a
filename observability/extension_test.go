package observability_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/progression/bonus"
	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/milestone"
	"github.com/xraph/progression/observability"
	"github.com/xraph/progression/workflow"
)

type fakeMetric struct {
	mu       sync.Mutex
	total    float64
	observed []float64
}

func (f *fakeMetric) Inc() { f.Add(1) }

func (f *fakeMetric) Add(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.total += v
}

func (f *fakeMetric) Observe(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observed = append(f.observed, v)
}

type fakeFactory struct {
	metrics map[string]*fakeMetric
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{metrics: make(map[string]*fakeMetric)}
}

func (f *fakeFactory) get(name string) *fakeMetric {
	m, ok := f.metrics[name]
	if !ok {
		m = &fakeMetric{}
		f.metrics[name] = m
	}
	return m
}

func (f *fakeFactory) Counter(name string) observability.Counter     { return f.get(name) }
func (f *fakeFactory) Histogram(name string) observability.Histogram { return f.get(name) }

func TestMetricsExtension_Purchases(t *testing.T) {
	f := newFakeFactory()
	m := observability.NewMetricsExtension(f)
	ctx := context.Background()

	assert.NoError(t, m.OnPurchaseRecorded(ctx, nil, true))
	assert.NoError(t, m.OnPurchaseRecorded(ctx, nil, true))
	assert.NoError(t, m.OnPurchaseRecorded(ctx, nil, false))
	assert.NoError(t, m.OnUnknownItem(ctx, nil))

	assert.Equal(t, 2.0, f.get("progression.purchase.recorded").total)
	assert.Equal(t, 1.0, f.get("progression.purchase.duplicates").total)
	assert.Equal(t, 1.0, f.get("progression.purchase.unknown_items").total)
}

func TestMetricsExtension_Milestones(t *testing.T) {
	f := newFakeFactory()
	m := observability.NewMetricsExtension(f)
	ctx := context.Background()

	assert.NoError(t, m.OnMilestoneAchieved(ctx, milestone.Milestone{ID: "c-a", Kind: catalog.KindCourse}))
	assert.NoError(t, m.OnMilestoneAchieved(ctx, milestone.Milestone{ID: "p-sci", Kind: catalog.KindPack}))
	assert.NoError(t, m.OnMilestoneAchieved(ctx, "not a milestone"))
	assert.NoError(t, m.OnRewardIssued(ctx, bonus.Record{MilestoneID: "c-a", Amount: 100}))

	assert.Equal(t, 1.0, f.get("progression.milestone.course").total)
	assert.Equal(t, 1.0, f.get("progression.milestone.pack").total)
	assert.Equal(t, 1.0, f.get("progression.reward.issued").total)
	assert.Equal(t, []float64{100}, f.get("progression.reward.amount").observed)
}

func TestMetricsExtension_Workflow(t *testing.T) {
	f := newFakeFactory()
	m := observability.NewMetricsExtension(f)
	ctx := context.Background()

	assert.NoError(t, m.OnWorkflowStageChanged(ctx, workflow.Transition{
		From: workflow.StateIdle, To: workflow.StateCelebrationPending,
	}))
	assert.NoError(t, m.OnWorkflowStageChanged(ctx, workflow.Transition{
		From: workflow.StateOnboardingShown, To: workflow.StateIdle, Postponed: true,
	}))

	assert.Equal(t, 2.0, f.get("progression.workflow.transitions").total)
	assert.Equal(t, 1.0, f.get("progression.workflow.onboarding_postponed").total)
}

func TestMetricsExtension_Persistence(t *testing.T) {
	f := newFakeFactory()
	m := observability.NewMetricsExtension(f)
	ctx := context.Background()

	assert.NoError(t, m.OnLedgerPersisted(ctx, 3, 12*time.Millisecond))
	assert.NoError(t, m.OnPersistFailed(ctx, 5, errors.New("disk full")))
	assert.NoError(t, m.OnLedgerReplayed(ctx, 7, 2, 4*time.Millisecond))

	assert.Equal(t, 1.0, f.get("progression.persist.success").total)
	assert.Equal(t, []float64{12}, f.get("progression.persist.latency_ms").observed)
	assert.Equal(t, 1.0, f.get("progression.persist.failure").total)
	assert.Equal(t, []float64{5}, f.get("progression.persist.attempts").observed)
	assert.Equal(t, []float64{7}, f.get("progression.replay.records").observed)
	assert.Equal(t, []float64{4}, f.get("progression.replay.latency_ms").observed)
}
