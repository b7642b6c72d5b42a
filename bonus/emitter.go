// Package bonus issues one reward per achieved milestone.
package bonus

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/progression/id"
	"github.com/xraph/progression/milestone"
)

// Emitter issues bonuses with an atomic check-and-set keyed by milestone
// id. Issue is safe to call any number of times for the same milestone.
type Emitter struct {
	mu      sync.Mutex
	policy  Policy
	now     func() time.Time
	issued  map[string]*Record
	ordered []string
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithPolicy sets the reward amounts.
func WithPolicy(p Policy) Option {
	return func(e *Emitter) { e.policy = p }
}

// WithClock overrides the time source used for IssuedAt when the milestone
// carries no AchievedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Emitter) { e.now = now }
}

// NewEmitter creates an emitter using DefaultPolicy.
func NewEmitter(opts ...Option) *Emitter {
	e := &Emitter{
		policy: DefaultPolicy(),
		now:    func() time.Time { return time.Now().UTC() },
		issued: make(map[string]*Record),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Issue grants the bonus for m, stamped with m.AchievedAt or the clock when
// that is zero. The second return value is true only for the call that
// actually issued it; later calls return the existing record.
func (e *Emitter) Issue(_ context.Context, m milestone.Milestone) (*Record, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.issued[m.ID]; ok {
		cp := *existing
		return &cp, false
	}

	issuedAt := m.AchievedAt
	if issuedAt.IsZero() {
		issuedAt = e.now()
	}
	r := &Record{
		ID:          id.NewBonusID(),
		MilestoneID: m.ID,
		Kind:        m.Kind,
		Amount:      e.policy.Amount(m.Kind),
		IssuedAt:    issuedAt,
	}
	e.issued[m.ID] = r
	e.ordered = append(e.ordered, m.ID)

	cp := *r
	return &cp, true
}

// Restore loads previously issued bonuses. Records whose milestone is
// already known are skipped. It returns the number restored.
func (e *Emitter) Restore(records []Record) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for i := range records {
		r := records[i]
		if _, ok := e.issued[r.MilestoneID]; ok {
			continue
		}
		e.issued[r.MilestoneID] = &r
		e.ordered = append(e.ordered, r.MilestoneID)
		n++
	}
	return n
}

// Issued reports whether a bonus exists for the milestone.
func (e *Emitter) Issued(milestoneID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.issued[milestoneID]
	return ok
}

// Get returns the bonus issued for the milestone.
func (e *Emitter) Get(milestoneID string) (Record, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.issued[milestoneID]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// List returns all bonuses in issue order.
func (e *Emitter) List() []Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Record, 0, len(e.ordered))
	for _, mid := range e.ordered {
		out = append(out, *e.issued[mid])
	}
	return out
}

// Total returns the sum of all issued amounts.
func (e *Emitter) Total() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	var sum int64
	for _, r := range e.issued {
		sum += r.Amount
	}
	return sum
}

// MilestoneIDs returns the sorted ids of rewarded milestones.
func (e *Emitter) MilestoneIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.issued))
	for mid := range e.issued {
		out = append(out, mid)
	}
	sort.Strings(out)
	return out
}
