// Package workflow orders the celebration and onboarding prompts that
// follow a milestone.
package workflow

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrInvalidTransition is returned when an event does not apply to the
	// current state.
	ErrInvalidTransition = errors.New("workflow: invalid transition")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("workflow: sequencer closed")
)

// DefaultMinimumDelay separates an acknowledged celebration from the
// onboarding prompt.
const DefaultMinimumDelay = 1500 * time.Millisecond

// Listener observes transitions. It runs with the sequencer lock held and
// must not block or call back into the sequencer.
type Listener func(Transition)

// Sequencer is a single-session state machine:
//
//	Idle → CelebrationPending → CelebrationShown → OnboardingPending → OnboardingShown → Idle
//
// Cues arriving while a cycle is in progress wait in a FIFO queue.
type Sequencer struct {
	mu       sync.Mutex
	state    State
	current  *Cue
	queue    []Cue
	delay    time.Duration
	listener Listener
	now      func() time.Time

	timer *time.Timer
	// gen invalidates timers that fire after a state change.
	gen    uint64
	closed bool
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithMinimumDelay sets the delay between CelebrationShown and
// OnboardingPending.
func WithMinimumDelay(d time.Duration) Option {
	return func(s *Sequencer) { s.delay = d }
}

// WithListener registers a transition listener.
func WithListener(l Listener) Option {
	return func(s *Sequencer) { s.listener = l }
}

// WithClock overrides the time source stamped on transitions.
func WithClock(now func() time.Time) Option {
	return func(s *Sequencer) { s.now = now }
}

// NewSequencer creates an idle sequencer.
func NewSequencer(opts ...Option) *Sequencer {
	s := &Sequencer{
		state: StateIdle,
		delay: DefaultMinimumDelay,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue schedules a celebration. From Idle it starts a cycle at once,
// otherwise the cue waits behind the current one.
func (s *Sequencer) Enqueue(c Cue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.queue = append(s.queue, c)
	if s.state == StateIdle {
		s.advanceLocked()
	}
	return nil
}

// AcknowledgeCelebration records that the celebration for the current cue
// was displayed. OnboardingPending follows after the minimum delay.
func (s *Sequencer) AcknowledgeCelebration() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expectLocked(StateCelebrationPending); err != nil {
		return err
	}
	s.transitionLocked(StateCelebrationShown, false)
	s.armLocked()
	return nil
}

// OnboardingDisplayed records that the onboarding prompt is on screen.
func (s *Sequencer) OnboardingDisplayed() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expectLocked(StateOnboardingPending); err != nil {
		return err
	}
	s.transitionLocked(StateOnboardingShown, false)
	return nil
}

// ResolveOnboarding completes or postpones the onboarding prompt and ends
// the cycle. The next queued cue, if any, starts immediately.
func (s *Sequencer) ResolveOnboarding(postponed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expectLocked(StateOnboardingShown); err != nil {
		return err
	}
	s.transitionLocked(StateIdle, postponed)
	s.current = nil
	s.advanceLocked()
	return nil
}

// State returns the current state.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the cue of the cycle in progress.
func (s *Sequencer) Current() (Cue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Cue{}, false
	}
	return *s.current, true
}

// Queue returns a copy of the cues waiting behind the current cycle.
func (s *Sequencer) Queue() []Cue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Cue(nil), s.queue...)
}

// Checkpoint captures the sequencer for persistence.
func (s *Sequencer) Checkpoint() Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := Checkpoint{State: s.state, Queue: append([]Cue{}, s.queue...)}
	if s.current != nil {
		c := *s.current
		cp.Current = &c
	}
	return cp
}

// Restore resumes from a checkpoint. A checkpoint taken in
// CelebrationShown re-arms the delay timer.
func (s *Sequencer) Restore(cp Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if !cp.State.Valid() {
		return fmt.Errorf("%w: unknown state %q", ErrInvalidTransition, cp.State)
	}
	if cp.State != StateIdle && cp.Current == nil {
		return fmt.Errorf("%w: state %q without a current cue", ErrInvalidTransition, cp.State)
	}

	s.cancelLocked()
	s.state = cp.State
	s.current = nil
	if cp.Current != nil && cp.State != StateIdle {
		c := *cp.Current
		s.current = &c
	}
	s.queue = append([]Cue(nil), cp.Queue...)

	switch s.state {
	case StateIdle:
		s.advanceLocked()
	case StateCelebrationShown:
		s.armLocked()
	}
	return nil
}

// Reset returns to Idle and discards the current and queued cues.
func (s *Sequencer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	s.current = nil
	s.queue = nil
	if s.state != StateIdle {
		s.transitionLocked(StateIdle, false)
	}
}

// Close cancels any pending timer. The state is left as is so that it
// can be checkpointed.
func (s *Sequencer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.closed = true
}

// ──────────────────────────────────────────────────
// Internals
// ──────────────────────────────────────────────────

func (s *Sequencer) expectLocked(want State) error {
	if s.closed {
		return ErrClosed
	}
	if s.state != want {
		return fmt.Errorf("%w: in %s, want %s", ErrInvalidTransition, s.state, want)
	}
	return nil
}

// advanceLocked starts the next queued cue when idle.
func (s *Sequencer) advanceLocked() {
	if s.state != StateIdle || len(s.queue) == 0 {
		return
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	s.current = &next
	s.transitionLocked(StateCelebrationPending, false)
}

func (s *Sequencer) armLocked() {
	s.cancelLocked()
	gen := s.gen
	s.timer = time.AfterFunc(s.delay, func() { s.fire(gen) })
}

func (s *Sequencer) cancelLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Sequencer) fire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.gen || s.state != StateCelebrationShown {
		return
	}
	s.timer = nil
	s.transitionLocked(StateOnboardingPending, false)
}

func (s *Sequencer) transitionLocked(to State, postponed bool) {
	t := Transition{From: s.state, To: to, Postponed: postponed, At: s.now()}
	if s.current != nil {
		t.MilestoneID = s.current.MilestoneID
	}
	s.state = to
	if s.listener != nil {
		s.listener(t)
	}
}
