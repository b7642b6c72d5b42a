// Package milestone detects courses and packs that become fully owned and
// tracks the milestones a learner has achieved.
package milestone

import (
	"time"

	"github.com/xraph/progression/catalog"
)

// Milestone marks a course or pack becoming fully owned. It is identified by
// the completed entity's id.
type Milestone struct {
	ID           string       `json:"id"`
	Kind         catalog.Kind `json:"kind"`
	AchievedAt   time.Time    `json:"achieved_at"`
	RewardIssued bool         `json:"reward_issued"`
}
