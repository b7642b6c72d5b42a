// Package catalogtest provides catalog fixtures for tests.
package catalogtest

import "github.com/xraph/progression/catalog"

// Fixture ids.
const (
	Course101 = "c-101"
	PackSci   = "p-sci"
	CourseA   = "c-a"
	CourseB   = "c-b"
	Unknown   = "ghost-404"
)

// Items returns the fixture hierarchy:
//
//	c-101: l1 l2 l3
//	p-sci: c-a (a1 a2), c-b (b1 b2 b3)
//	c-solo: s1 (not in any pack)
func Items() []catalog.Item {
	return []catalog.Item{
		{ID: Course101, Kind: catalog.KindCourse, Title: "Intro"},
		{ID: "l1", Kind: catalog.KindLesson, ParentID: Course101},
		{ID: "l2", Kind: catalog.KindLesson, ParentID: Course101},
		{ID: "l3", Kind: catalog.KindLesson, ParentID: Course101},

		{ID: PackSci, Kind: catalog.KindPack, Title: "Science", MemberIDs: []string{CourseA, CourseB}},
		{ID: CourseA, Kind: catalog.KindCourse, Title: "Astronomy"},
		{ID: "a1", Kind: catalog.KindLesson, ParentID: CourseA},
		{ID: "a2", Kind: catalog.KindLesson, ParentID: CourseA},
		{ID: CourseB, Kind: catalog.KindCourse, Title: "Biology", ParentID: PackSci},
		{ID: "b1", Kind: catalog.KindLesson, ParentID: CourseB},
		{ID: "b2", Kind: catalog.KindLesson, ParentID: CourseB},
		{ID: "b3", Kind: catalog.KindLesson, ParentID: CourseB},

		{ID: "c-solo", Kind: catalog.KindCourse},
		{ID: "s1", Kind: catalog.KindLesson, ParentID: "c-solo"},
	}
}

// Catalog builds the fixture catalog.
func Catalog() *catalog.Catalog {
	return catalog.MustNew(Items())
}

// Source serves the fixture catalog.
func Source() catalog.Source {
	return catalog.NewStatic(Catalog())
}
