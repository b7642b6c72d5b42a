package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/progression/notify"
)

type learner string

func (l learner) LearnerID() string { return string(l) }

func TestChannelSinkNeverBlocks(t *testing.T) {
	s := notify.NewChannelSink(1)
	ctx := context.Background()

	require.NoError(t, s.Emit(ctx, notify.Event{Type: notify.TypeRewardIssued}))
	assert.ErrorIs(t, s.Emit(ctx, notify.Event{Type: notify.TypeRewardIssued}), notify.ErrSinkFull)

	e := <-s.Events()
	assert.Equal(t, notify.TypeRewardIssued, e.Type)
}

func TestPluginForwardsHooks(t *testing.T) {
	s := notify.NewChannelSink(8)
	p := notify.NewPlugin(s)
	ctx := context.Background()

	require.NoError(t, p.OnInit(ctx, learner("learner-7")))
	require.NoError(t, p.OnMilestoneAchieved(ctx, "c-101"))
	require.NoError(t, p.OnRewardIssued(ctx, "bonus"))
	require.NoError(t, p.OnWorkflowStageChanged(ctx, "idle"))

	want := []notify.Type{notify.TypeMilestoneAchieved, notify.TypeRewardIssued, notify.TypeWorkflowStageChanged}
	for _, typ := range want {
		e := <-s.Events()
		assert.Equal(t, typ, e.Type)
		assert.Equal(t, "learner-7", e.LearnerID)
		assert.False(t, e.ID.IsNil())
	}
	assert.Equal(t, "notify", p.Name())
}

func TestFanoutJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	var hits int
	ok := notify.SinkFunc(func(context.Context, notify.Event) error { hits++; return nil })
	bad := notify.SinkFunc(func(context.Context, notify.Event) error { return boom })

	err := notify.Fanout(ok, bad, ok).Emit(context.Background(), notify.Event{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, hits)
}
