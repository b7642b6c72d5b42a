package bonus

import (
	"time"

	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/id"
)

// Record is a reward issued for a single milestone.
type Record struct {
	ID          id.BonusID   `json:"id"`
	MilestoneID string       `json:"milestone_id"`
	Kind        catalog.Kind `json:"kind"`
	Amount      int64        `json:"amount"`
	IssuedAt    time.Time    `json:"issued_at"`
}

// Policy maps milestone kinds to reward amounts in credits.
type Policy struct {
	Course int64 `json:"course" yaml:"course"`
	Pack   int64 `json:"pack" yaml:"pack"`
}

// DefaultPolicy returns the default reward amounts.
func DefaultPolicy() Policy {
	return Policy{Course: 100, Pack: 500}
}

// Amount returns the reward for a milestone of the given kind.
func (p Policy) Amount(kind catalog.Kind) int64 {
	switch kind {
	case catalog.KindCourse:
		return p.Course
	case catalog.KindPack:
		return p.Pack
	default:
		return 0
	}
}
