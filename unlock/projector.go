package unlock

import (
	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/entitlement"
)

// Project computes the unlocked set for the given ledger. It is pure and
// deterministic.
//
// A lesson purchase unlocks the lesson. A course purchase unlocks the course
// and its lessons. A pack purchase unlocks the pack, its courses and their
// lessons. Records naming an item absent from the catalog, or whose kind
// disagrees with the catalog, unlock nothing and are reported by Unresolved.
func Project(c *catalog.Catalog, records []entitlement.Record) *Set {
	s := Empty()

	for _, r := range records {
		item, ok := c.Get(r.ItemID)
		if !ok || item.Kind != r.Kind {
			s.unresolved = append(s.unresolved, r.TransactionID)
			continue
		}

		g := Grant{TransactionID: r.TransactionID, ItemID: r.ItemID}
		switch item.Kind {
		case catalog.KindLesson:
			s.add(item.ID, g)
		case catalog.KindCourse:
			s.addCourse(c, item.ID, g)
		case catalog.KindPack:
			s.add(item.ID, g)
			for _, courseID := range c.Courses(item.ID) {
				s.addCourse(c, courseID, g)
			}
		}
	}

	return s
}

func (s *Set) addCourse(c *catalog.Catalog, courseID string, g Grant) {
	s.add(courseID, g)
	for _, lessonID := range c.Lessons(courseID) {
		s.add(lessonID, g)
	}
}

func (s *Set) add(itemID string, g Grant) {
	for _, existing := range s.grants[itemID] {
		if existing == g {
			return
		}
	}
	s.grants[itemID] = append(s.grants[itemID], g)
}

// CourseOwned reports whether the course is fully owned: every lesson is
// unlocked. A course without lessons is owned when its own id is unlocked.
// Ownership is decided by containment only, never by purchase path.
func CourseOwned(c *catalog.Catalog, s *Set, courseID string) bool {
	lessons := c.Lessons(courseID)
	if len(lessons) == 0 {
		return s.Has(courseID)
	}
	return s.HasAll(lessons...)
}

// PackOwned reports whether every member course of the pack is owned.
// A pack without courses is owned when its own id is unlocked.
func PackOwned(c *catalog.Catalog, s *Set, packID string) bool {
	courses := c.Courses(packID)
	if len(courses) == 0 {
		return s.Has(packID)
	}
	for _, courseID := range courses {
		if !CourseOwned(c, s, courseID) {
			return false
		}
	}
	return true
}

// Progress returns how many of the course's lessons are unlocked.
func Progress(c *catalog.Catalog, s *Set, courseID string) (owned, total int) {
	lessons := c.Lessons(courseID)
	for _, lessonID := range lessons {
		if s.Has(lessonID) {
			owned++
		}
	}
	return owned, len(lessons)
}
