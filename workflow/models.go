package workflow

import (
	"time"

	"github.com/xraph/progression/catalog"
)

// State is a stage of the post-milestone follow-up cycle.
type State string

const (
	StateIdle               State = "idle"
	StateCelebrationPending State = "celebration_pending"
	StateCelebrationShown   State = "celebration_shown"
	StateOnboardingPending  State = "onboarding_pending"
	StateOnboardingShown    State = "onboarding_shown"
)

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case StateIdle, StateCelebrationPending, StateCelebrationShown,
		StateOnboardingPending, StateOnboardingShown:
		return true
	}
	return false
}

// Cue is one milestone waiting to be celebrated.
type Cue struct {
	MilestoneID string       `json:"milestone_id" bson:"milestone_id"`
	Kind        catalog.Kind `json:"kind" bson:"kind"`
	BonusAmount int64        `json:"bonus_amount" bson:"bonus_amount"`
}

// Transition describes a single state change.
type Transition struct {
	From        State     `json:"from"`
	To          State     `json:"to"`
	MilestoneID string    `json:"milestone_id,omitempty"`
	Postponed   bool      `json:"postponed,omitempty"`
	At          time.Time `json:"at"`
}

// Checkpoint is the persisted form of a sequencer.
type Checkpoint struct {
	State   State `json:"state" bson:"state"`
	Current *Cue  `json:"current,omitempty" bson:"current,omitempty"`
	Queue   []Cue `json:"queue" bson:"queue"`
}

// Empty reports whether the checkpoint holds no work.
func (c Checkpoint) Empty() bool {
	return c.Current == nil && len(c.Queue) == 0
}
