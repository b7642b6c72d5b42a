package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/catalog/catalogtest"
)

func TestNewIndexes(t *testing.T) {
	c := catalogtest.Catalog()

	assert.Equal(t, []string{"l1", "l2", "l3"}, c.Lessons(catalogtest.Course101))
	assert.Equal(t, []string{catalogtest.CourseA, catalogtest.CourseB}, c.Courses(catalogtest.PackSci))
	assert.Equal(t, []string{catalogtest.PackSci}, c.Packs(catalogtest.CourseB))
	assert.Empty(t, c.Packs(catalogtest.Course101))

	it, ok := c.Get("a2")
	require.True(t, ok)
	assert.Equal(t, catalog.KindLesson, it.Kind)

	_, ok = c.Get(catalogtest.Unknown)
	assert.False(t, ok)

	assert.Equal(t, 0, c.Index(catalogtest.Course101))
	assert.Less(t, c.Index(catalogtest.PackSci), c.Index(catalogtest.CourseA))
	assert.Equal(t, -1, c.Index(catalogtest.Unknown))
}

func TestMembershipFromParentAndMembers(t *testing.T) {
	c, err := catalog.New([]catalog.Item{
		{ID: "p", Kind: catalog.KindPack, MemberIDs: []string{"x"}},
		{ID: "x", Kind: catalog.KindCourse, ParentID: "p"},
		{ID: "y", Kind: catalog.KindCourse, ParentID: "p"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, c.Courses("p"))
}

func TestAncestors(t *testing.T) {
	c := catalogtest.Catalog()

	tests := []struct {
		item string
		want []string
	}{
		{"l2", []string{catalogtest.Course101}},
		{"b1", []string{catalogtest.CourseB, catalogtest.PackSci}},
		{catalogtest.CourseA, []string{catalogtest.CourseA, catalogtest.PackSci}},
		{catalogtest.PackSci, []string{catalogtest.CourseA, catalogtest.CourseB, catalogtest.PackSci}},
		{catalogtest.Unknown, nil},
	}

	for _, tt := range tests {
		t.Run(tt.item, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Ancestors(tt.item))
		})
	}
}

func TestNewRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		items []catalog.Item
	}{
		{"empty id", []catalog.Item{{Kind: catalog.KindCourse}}},
		{"unknown kind", []catalog.Item{{ID: "x", Kind: "video"}}},
		{"duplicate", []catalog.Item{{ID: "x", Kind: catalog.KindCourse}, {ID: "x", Kind: catalog.KindCourse}}},
		{"orphan lesson", []catalog.Item{{ID: "l", Kind: catalog.KindLesson, ParentID: "nope"}}},
		{"lesson under pack", []catalog.Item{
			{ID: "p", Kind: catalog.KindPack},
			{ID: "l", Kind: catalog.KindLesson, ParentID: "p"},
		}},
		{"pack member is lesson", []catalog.Item{
			{ID: "c", Kind: catalog.KindCourse},
			{ID: "l", Kind: catalog.KindLesson, ParentID: "c"},
			{ID: "p", Kind: catalog.KindPack, MemberIDs: []string{"l"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.New(tt.items)
			require.ErrorIs(t, err, catalog.ErrInvalidCatalog)
		})
	}
}

const fixtureYAML = `
packs:
  - id: p-sci
    title: Science
    courses: [c-a]
courses:
  - id: c-a
    lessons:
      - id: a1
      - id: a2
  - id: c-b
    pack: p-sci
    lessons:
      - id: b1
`

func TestDecode(t *testing.T) {
	c, err := catalog.Decode(strings.NewReader(fixtureYAML))
	require.NoError(t, err)

	assert.Equal(t, 6, c.Len())
	assert.Equal(t, []string{"c-a", "c-b"}, c.Courses("p-sci"))
	assert.Equal(t, []string{"a1", "a2"}, c.Lessons("c-a"))
	assert.Len(t, c.ItemsOfKind(catalog.KindLesson), 3)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0o600))

	c, err := catalog.File{Path: path}.GetCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, c.Lessons("c-b"))

	_, err = catalog.File{Path: filepath.Join(t.TempDir(), "missing.yaml")}.GetCatalog(context.Background())
	assert.Error(t, err)
}
