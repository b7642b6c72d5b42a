package catalog

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidCatalog is returned when the item set does not form a valid hierarchy.
var ErrInvalidCatalog = errors.New("catalog: invalid catalog")

// Catalog is an immutable, indexed view of the item hierarchy.
// It is safe for concurrent use.
type Catalog struct {
	items map[string]Item
	order []string
	index map[string]int

	lessonsByCourse map[string][]string
	coursesByPack   map[string][]string
	packsByCourse   map[string][]string
}

// New validates items and builds the lookup indexes.
//
// Pack membership is the union of the pack's MemberIDs and every course whose
// ParentID names the pack.
func New(items []Item) (*Catalog, error) {
	c := &Catalog{
		items:           make(map[string]Item, len(items)),
		order:           make([]string, 0, len(items)),
		index:           make(map[string]int, len(items)),
		lessonsByCourse: make(map[string][]string),
		coursesByPack:   make(map[string][]string),
		packsByCourse:   make(map[string][]string),
	}

	for _, it := range items {
		if it.ID == "" {
			return nil, fmt.Errorf("%w: item with empty id", ErrInvalidCatalog)
		}
		if !it.Kind.Valid() {
			return nil, fmt.Errorf("%w: item %q has unknown kind %q", ErrInvalidCatalog, it.ID, it.Kind)
		}
		if _, dup := c.items[it.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate item id %q", ErrInvalidCatalog, it.ID)
		}
		it.MemberIDs = append([]string(nil), it.MemberIDs...)
		c.items[it.ID] = it
		c.index[it.ID] = len(c.order)
		c.order = append(c.order, it.ID)
	}

	membership := make(map[string]map[string]bool)
	addMember := func(packID, courseID string) {
		if membership[packID] == nil {
			membership[packID] = make(map[string]bool)
		}
		if membership[packID][courseID] {
			return
		}
		membership[packID][courseID] = true
		c.coursesByPack[packID] = append(c.coursesByPack[packID], courseID)
		c.packsByCourse[courseID] = append(c.packsByCourse[courseID], packID)
	}

	for _, itemID := range c.order {
		it := c.items[itemID]
		switch it.Kind {
		case KindLesson:
			parent, ok := c.items[it.ParentID]
			if !ok || parent.Kind != KindCourse {
				return nil, fmt.Errorf("%w: lesson %q must belong to a course, got parent %q", ErrInvalidCatalog, it.ID, it.ParentID)
			}
			c.lessonsByCourse[it.ParentID] = append(c.lessonsByCourse[it.ParentID], it.ID)
		case KindCourse:
			if it.ParentID == "" {
				continue
			}
			parent, ok := c.items[it.ParentID]
			if !ok || parent.Kind != KindPack {
				return nil, fmt.Errorf("%w: course %q has parent %q which is not a pack", ErrInvalidCatalog, it.ID, it.ParentID)
			}
			addMember(it.ParentID, it.ID)
		case KindPack:
			if it.ParentID != "" {
				return nil, fmt.Errorf("%w: pack %q cannot have a parent", ErrInvalidCatalog, it.ID)
			}
			for _, member := range it.MemberIDs {
				course, ok := c.items[member]
				if !ok || course.Kind != KindCourse {
					return nil, fmt.Errorf("%w: pack %q member %q is not a course", ErrInvalidCatalog, it.ID, member)
				}
				addMember(it.ID, member)
			}
		}
	}

	return c, nil
}

// MustNew is like New but panics on error. Use for fixtures.
func MustNew(items []Item) *Catalog {
	c, err := New(items)
	if err != nil {
		panic(err)
	}
	return c
}

// Get returns the item with the given id.
func (c *Catalog) Get(itemID string) (Item, bool) {
	it, ok := c.items[itemID]
	return it, ok
}

// Len returns the number of items.
func (c *Catalog) Len() int { return len(c.order) }

// Items returns all items in declaration order.
func (c *Catalog) Items() []Item {
	out := make([]Item, 0, len(c.order))
	for _, itemID := range c.order {
		out = append(out, c.items[itemID])
	}
	return out
}

// Index returns the item's position in catalog order, or -1 if unknown.
func (c *Catalog) Index(itemID string) int {
	if i, ok := c.index[itemID]; ok {
		return i
	}
	return -1
}

// ItemsOfKind returns items of one kind in declaration order.
func (c *Catalog) ItemsOfKind(kind Kind) []Item {
	var out []Item
	for _, itemID := range c.order {
		if it := c.items[itemID]; it.Kind == kind {
			out = append(out, it)
		}
	}
	return out
}

// Lessons returns the lesson ids of a course.
func (c *Catalog) Lessons(courseID string) []string {
	return append([]string(nil), c.lessonsByCourse[courseID]...)
}

// Courses returns the member course ids of a pack.
func (c *Catalog) Courses(packID string) []string {
	return append([]string(nil), c.coursesByPack[packID]...)
}

// Packs returns the ids of every pack that contains the course.
func (c *Catalog) Packs(courseID string) []string {
	return append([]string(nil), c.packsByCourse[courseID]...)
}

// Ancestors returns the course and pack ids whose completion may change when
// itemID is unlocked, including itemID itself when it is a course or pack.
// The result is sorted.
func (c *Catalog) Ancestors(itemID string) []string {
	it, ok := c.items[itemID]
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	var courses []string

	switch it.Kind {
	case KindLesson:
		courses = append(courses, it.ParentID)
	case KindCourse:
		courses = append(courses, it.ID)
	case KindPack:
		seen[it.ID] = true
		courses = append(courses, c.coursesByPack[it.ID]...)
	}

	for _, courseID := range courses {
		seen[courseID] = true
		for _, packID := range c.packsByCourse[courseID] {
			seen[packID] = true
		}
	}

	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
