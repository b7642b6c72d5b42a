package plugin_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/progression/plugin"
)

type spy struct {
	name string

	mu         sync.Mutex
	milestones []interface{}
	failures   []error
	accepted   []bool
}

func (s *spy) Name() string { return s.name }

func (s *spy) OnMilestoneAchieved(_ context.Context, m interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.milestones = append(s.milestones, m)
	return nil
}

func (s *spy) OnPersistFailed(_ context.Context, _ int, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, err)
	return nil
}

func (s *spy) OnPurchaseRecorded(_ context.Context, _ interface{}, accepted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accepted = append(s.accepted, accepted)
	return errors.New("ignored")
}

type slow struct{}

func (slow) Name() string { return "slow" }

func (slow) OnRewardIssued(ctx context.Context, _ interface{}) error {
	time.Sleep(time.Second)
	return nil
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := plugin.NewRegistry().WithLogger(quiet())

	require.NoError(t, r.Register(&spy{name: "a"}))
	require.Error(t, r.Register(&spy{name: "a"}))
	assert.Equal(t, 1, r.Count())
	assert.NotNil(t, r.Get("a"))
	assert.Nil(t, r.Get("b"))
	assert.Len(t, r.List(), 1)
}

func TestDispatchOnlyToImplementers(t *testing.T) {
	r := plugin.NewRegistry().WithLogger(quiet())
	s := &spy{name: "spy"}
	require.NoError(t, r.Register(s))

	ctx := context.Background()
	r.EmitMilestoneAchieved(ctx, "c-101")
	r.EmitPersistFailed(ctx, 3, errors.New("down"))
	r.EmitPurchaseRecorded(ctx, "txn", false)
	r.EmitRewardIssued(ctx, "bonus")

	assert.Equal(t, []interface{}{"c-101"}, s.milestones)
	assert.Len(t, s.failures, 1)
	assert.Equal(t, []bool{false}, s.accepted)
}

func TestSlowPluginTimesOut(t *testing.T) {
	r := plugin.NewRegistry().WithLogger(quiet()).WithTimeout(20 * time.Millisecond)
	require.NoError(t, r.Register(slow{}))

	start := time.Now()
	r.EmitRewardIssued(context.Background(), "bonus")
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
