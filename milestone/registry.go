package milestone

import "sync"

// Registry holds achieved milestones. RewardIssued moves from false to true at
// most once per milestone and never back.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]*Milestone
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Milestone)}
}

// Record stores m if its id is new and reports whether it was added.
func (r *Registry) Record(m Milestone) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[m.ID]; ok {
		return false
	}
	m.RewardIssued = false
	r.byID[m.ID] = &m
	r.order = append(r.order, m.ID)
	return true
}

// MarkRewarded flips RewardIssued to true. It reports false when the
// milestone is unknown or was already rewarded.
func (r *Registry) MarkRewarded(milestoneID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[milestoneID]
	if !ok || m.RewardIssued {
		return false
	}
	m.RewardIssued = true
	return true
}

// Get returns a copy of the milestone.
func (r *Registry) Get(milestoneID string) (Milestone, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[milestoneID]
	if !ok {
		return Milestone{}, false
	}
	return *m, true
}

// List returns all milestones in the order they were achieved.
func (r *Registry) List() []Milestone {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Milestone, 0, len(r.order))
	for _, milestoneID := range r.order {
		out = append(out, *r.byID[milestoneID])
	}
	return out
}

// Len returns the number of achieved milestones.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
