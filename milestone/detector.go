package milestone

import (
	"sort"
	"time"

	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/unlock"
)

// Scope selects which entities the detector evaluates on each diff.
type Scope int

const (
	// ScopeAll evaluates every course and pack in the catalog.
	ScopeAll Scope = iota
	// ScopeAncestors evaluates only courses and packs above items that
	// changed between the two projections. It yields the same result as
	// ScopeAll.
	ScopeAncestors
)

// String implements fmt.Stringer.
func (s Scope) String() string {
	if s == ScopeAncestors {
		return "ancestors"
	}
	return "all"
}

// ParseScope maps "ancestors" to ScopeAncestors and anything else to ScopeAll.
func ParseScope(s string) Scope {
	if s == "ancestors" {
		return ScopeAncestors
	}
	return ScopeAll
}

// Detector compares successive projections to find newly completed entities.
type Detector struct {
	scope Scope
	now   func() time.Time
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithScope sets the evaluation scope.
func WithScope(s Scope) DetectorOption {
	return func(d *Detector) { d.scope = s }
}

// WithClock overrides the time source used for AchievedAt.
func WithClock(now func() time.Time) DetectorOption {
	return func(d *Detector) { d.now = now }
}

// NewDetector creates a detector evaluating ScopeAll by default.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{scope: ScopeAll, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Scope returns the configured evaluation scope.
func (d *Detector) Scope() Scope { return d.scope }

// Diff returns milestones satisfied by curr but not by prev: courses whose
// lessons are all unlocked, then packs whose courses are all owned. Each
// group follows catalog order.
func (d *Detector) Diff(prev, curr *unlock.Set, c *catalog.Catalog) []Milestone {
	if prev == nil {
		prev = unlock.Empty()
	}

	courses, packs := d.candidates(prev, curr, c)
	at := d.now()

	var out []Milestone
	for _, courseID := range courses {
		if unlock.CourseOwned(c, curr, courseID) && !unlock.CourseOwned(c, prev, courseID) {
			out = append(out, Milestone{ID: courseID, Kind: catalog.KindCourse, AchievedAt: at})
		}
	}
	for _, packID := range packs {
		if unlock.PackOwned(c, curr, packID) && !unlock.PackOwned(c, prev, packID) {
			out = append(out, Milestone{ID: packID, Kind: catalog.KindPack, AchievedAt: at})
		}
	}
	return out
}

// IDs returns the ids of the given milestones.
func IDs(ms []Milestone) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

func (d *Detector) candidates(prev, curr *unlock.Set, c *catalog.Catalog) (courses, packs []string) {
	if d.scope == ScopeAll {
		for _, it := range c.ItemsOfKind(catalog.KindCourse) {
			courses = append(courses, it.ID)
		}
		for _, it := range c.ItemsOfKind(catalog.KindPack) {
			packs = append(packs, it.ID)
		}
		return courses, packs
	}

	seen := make(map[string]bool)
	for _, changed := range curr.Difference(prev) {
		for _, ancestor := range c.Ancestors(changed) {
			if seen[ancestor] {
				continue
			}
			seen[ancestor] = true

			it, _ := c.Get(ancestor)
			switch it.Kind {
			case catalog.KindCourse:
				courses = append(courses, ancestor)
			case catalog.KindPack:
				packs = append(packs, ancestor)
			}
		}
	}
	byCatalog := func(ids []string) {
		sort.Slice(ids, func(i, j int) bool { return c.Index(ids[i]) < c.Index(ids[j]) })
	}
	byCatalog(courses)
	byCatalog(packs)
	return courses, packs
}
