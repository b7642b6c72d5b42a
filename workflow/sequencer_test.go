package workflow_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/workflow"
)

const shortDelay = 10 * time.Millisecond

type recorder struct {
	mu  sync.Mutex
	log []workflow.Transition
}

func (r *recorder) listen(t workflow.Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, t)
}

func (r *recorder) states() []workflow.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]workflow.State, len(r.log))
	for i, t := range r.log {
		out[i] = t.To
	}
	return out
}

func cue(id string) workflow.Cue {
	return workflow.Cue{MilestoneID: id, Kind: catalog.KindCourse, BonusAmount: 100}
}

func waitFor(t *testing.T, s *workflow.Sequencer, want workflow.State) {
	t.Helper()
	require.Eventually(t, func() bool { return s.State() == want }, time.Second, time.Millisecond)
}

func runCycle(t *testing.T, s *workflow.Sequencer, postponed bool) {
	t.Helper()
	require.NoError(t, s.AcknowledgeCelebration())
	waitFor(t, s, workflow.StateOnboardingPending)
	require.NoError(t, s.OnboardingDisplayed())
	require.NoError(t, s.ResolveOnboarding(postponed))
}

func TestFullCycle(t *testing.T) {
	rec := &recorder{}
	s := workflow.NewSequencer(workflow.WithMinimumDelay(shortDelay), workflow.WithListener(rec.listen))
	defer s.Close()

	require.NoError(t, s.Enqueue(cue("c-101")))
	assert.Equal(t, workflow.StateCelebrationPending, s.State())

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "c-101", cur.MilestoneID)

	runCycle(t, s, false)

	assert.Equal(t, workflow.StateIdle, s.State())
	assert.Equal(t, []workflow.State{
		workflow.StateCelebrationPending,
		workflow.StateCelebrationShown,
		workflow.StateOnboardingPending,
		workflow.StateOnboardingShown,
		workflow.StateIdle,
	}, rec.states())
}

func TestOnboardingWaitsForDelay(t *testing.T) {
	s := workflow.NewSequencer(workflow.WithMinimumDelay(time.Hour))
	defer s.Close()

	require.NoError(t, s.Enqueue(cue("c-101")))
	require.NoError(t, s.AcknowledgeCelebration())

	assert.Equal(t, workflow.StateCelebrationShown, s.State())
	assert.ErrorIs(t, s.OnboardingDisplayed(), workflow.ErrInvalidTransition)
}

func TestQueueIsFIFO(t *testing.T) {
	rec := &recorder{}
	s := workflow.NewSequencer(workflow.WithMinimumDelay(shortDelay), workflow.WithListener(rec.listen))
	defer s.Close()

	require.NoError(t, s.Enqueue(cue("c-a")))
	require.NoError(t, s.Enqueue(cue("c-b")))
	require.NoError(t, s.Enqueue(cue("p-sci")))

	assert.Len(t, s.Queue(), 2)

	var seen []string
	for range 3 {
		cur, ok := s.Current()
		require.True(t, ok)
		seen = append(seen, cur.MilestoneID)
		runCycle(t, s, true)
	}

	assert.Equal(t, []string{"c-a", "c-b", "p-sci"}, seen)
	assert.Equal(t, workflow.StateIdle, s.State())
	assert.Empty(t, s.Queue())
}

func TestSecondMilestoneWhileBusy(t *testing.T) {
	s := workflow.NewSequencer(workflow.WithMinimumDelay(shortDelay))
	defer s.Close()

	require.NoError(t, s.Enqueue(cue("c-a")))
	require.NoError(t, s.AcknowledgeCelebration())
	require.NoError(t, s.Enqueue(cue("c-b")))

	cur, _ := s.Current()
	assert.Equal(t, "c-a", cur.MilestoneID, "a queued cue never preempts the current one")

	waitFor(t, s, workflow.StateOnboardingPending)
	require.NoError(t, s.OnboardingDisplayed())
	require.NoError(t, s.ResolveOnboarding(false))

	assert.Equal(t, workflow.StateCelebrationPending, s.State())
	cur, _ = s.Current()
	assert.Equal(t, "c-b", cur.MilestoneID)
}

func TestInvalidTransitions(t *testing.T) {
	s := workflow.NewSequencer()
	defer s.Close()

	assert.ErrorIs(t, s.AcknowledgeCelebration(), workflow.ErrInvalidTransition)
	assert.ErrorIs(t, s.OnboardingDisplayed(), workflow.ErrInvalidTransition)
	assert.ErrorIs(t, s.ResolveOnboarding(false), workflow.ErrInvalidTransition)
}

func TestCloseCancelsTimer(t *testing.T) {
	s := workflow.NewSequencer(workflow.WithMinimumDelay(shortDelay))

	require.NoError(t, s.Enqueue(cue("c-a")))
	require.NoError(t, s.AcknowledgeCelebration())
	s.Close()

	time.Sleep(5 * shortDelay)
	assert.Equal(t, workflow.StateCelebrationShown, s.State())
	assert.ErrorIs(t, s.Enqueue(cue("c-b")), workflow.ErrClosed)
}

func TestCheckpointRestore(t *testing.T) {
	s := workflow.NewSequencer(workflow.WithMinimumDelay(time.Hour))
	require.NoError(t, s.Enqueue(cue("c-a")))
	require.NoError(t, s.Enqueue(cue("c-b")))
	require.NoError(t, s.AcknowledgeCelebration())
	cp := s.Checkpoint()
	s.Close()

	assert.Equal(t, workflow.StateCelebrationShown, cp.State)
	require.NotNil(t, cp.Current)
	assert.Equal(t, "c-a", cp.Current.MilestoneID)
	assert.Len(t, cp.Queue, 1)

	resumed := workflow.NewSequencer(workflow.WithMinimumDelay(shortDelay))
	defer resumed.Close()
	require.NoError(t, resumed.Restore(cp))

	waitFor(t, resumed, workflow.StateOnboardingPending)
	assert.Equal(t, []workflow.Cue{cue("c-b")}, resumed.Queue())
}

func TestRestoreIdleStartsQueued(t *testing.T) {
	s := workflow.NewSequencer()
	defer s.Close()

	require.NoError(t, s.Restore(workflow.Checkpoint{State: workflow.StateIdle, Queue: []workflow.Cue{cue("c-a")}}))
	assert.Equal(t, workflow.StateCelebrationPending, s.State())
}

func TestRestoreRejectsInconsistentCheckpoint(t *testing.T) {
	s := workflow.NewSequencer()
	defer s.Close()

	assert.ErrorIs(t, s.Restore(workflow.Checkpoint{State: "bogus"}), workflow.ErrInvalidTransition)
	assert.ErrorIs(t, s.Restore(workflow.Checkpoint{State: workflow.StateOnboardingShown}), workflow.ErrInvalidTransition)
}

func TestReset(t *testing.T) {
	s := workflow.NewSequencer(workflow.WithMinimumDelay(shortDelay))
	defer s.Close()

	require.NoError(t, s.Enqueue(cue("c-a")))
	require.NoError(t, s.Enqueue(cue("c-b")))
	require.NoError(t, s.AcknowledgeCelebration())
	s.Reset()

	time.Sleep(5 * shortDelay)
	assert.Equal(t, workflow.StateIdle, s.State())
	assert.Empty(t, s.Queue())
	assert.True(t, s.Checkpoint().Empty())
}
