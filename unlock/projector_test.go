package unlock_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/catalog/catalogtest"
	"github.com/xraph/progression/entitlement"
	"github.com/xraph/progression/unlock"
)

func rec(txn, item string, kind catalog.Kind) entitlement.Record {
	return entitlement.Record{TransactionID: txn, ItemID: item, Kind: kind}
}

func TestProjectLesson(t *testing.T) {
	c := catalogtest.Catalog()
	s := unlock.Project(c, []entitlement.Record{rec("t1", "l1", catalog.KindLesson)})

	assert.Equal(t, []string{"l1"}, s.Items())
	assert.Equal(t, []unlock.Grant{{TransactionID: "t1", ItemID: "l1"}}, s.Provenance("l1"))
}

func TestProjectCourse(t *testing.T) {
	c := catalogtest.Catalog()
	s := unlock.Project(c, []entitlement.Record{rec("t1", catalogtest.Course101, catalog.KindCourse)})

	assert.Equal(t, []string{catalogtest.Course101, "l1", "l2", "l3"}, s.Items())
	assert.Equal(t, catalogtest.Course101, s.Provenance("l2")[0].ItemID)
}

func TestProjectPack(t *testing.T) {
	c := catalogtest.Catalog()
	s := unlock.Project(c, []entitlement.Record{rec("t1", catalogtest.PackSci, catalog.KindPack)})

	assert.Equal(t, []string{"a1", "a2", "b1", "b2", "b3", catalogtest.CourseA, catalogtest.CourseB, catalogtest.PackSci}, s.Items())
	assert.True(t, unlock.PackOwned(c, s, catalogtest.PackSci))
	assert.False(t, s.Has(catalogtest.Course101))
}

func TestProjectUnknownAndMismatchedItems(t *testing.T) {
	c := catalogtest.Catalog()
	s := unlock.Project(c, []entitlement.Record{
		rec("t1", catalogtest.Unknown, catalog.KindLesson),
		rec("t2", catalogtest.Course101, catalog.KindLesson),
		rec("t3", "l1", catalog.KindLesson),
	})

	assert.Equal(t, []string{"l1"}, s.Items())
	assert.Equal(t, []string{"t1", "t2"}, s.Unresolved())
	assert.False(t, s.Has(catalogtest.Unknown))
}

func TestProvenanceAccumulates(t *testing.T) {
	c := catalogtest.Catalog()
	s := unlock.Project(c, []entitlement.Record{
		rec("t1", "l1", catalog.KindLesson),
		rec("t2", catalogtest.Course101, catalog.KindCourse),
	})

	assert.Equal(t, []unlock.Grant{
		{TransactionID: "t1", ItemID: "l1"},
		{TransactionID: "t2", ItemID: catalogtest.Course101},
	}, s.Provenance("l1"))
}

func TestPathEquivalence(t *testing.T) {
	c := catalogtest.Catalog()

	byLessons := unlock.Project(c, []entitlement.Record{
		rec("t1", "l1", catalog.KindLesson),
		rec("t2", "l2", catalog.KindLesson),
		rec("t3", "l3", catalog.KindLesson),
	})
	byCourse := unlock.Project(c, []entitlement.Record{rec("t4", catalogtest.Course101, catalog.KindCourse)})

	assert.True(t, unlock.CourseOwned(c, byLessons, catalogtest.Course101))
	assert.True(t, unlock.CourseOwned(c, byCourse, catalogtest.Course101))
	assert.True(t, byCourse.Contains(byLessons))

	partial := unlock.Project(c, []entitlement.Record{rec("t1", "l1", catalog.KindLesson)})
	assert.False(t, unlock.CourseOwned(c, partial, catalogtest.Course101))

	owned, total := unlock.Progress(c, partial, catalogtest.Course101)
	assert.Equal(t, 1, owned)
	assert.Equal(t, 3, total)
}

func TestEmptyCourseOwnership(t *testing.T) {
	c := catalog.MustNew([]catalog.Item{
		{ID: "p", Kind: catalog.KindPack, MemberIDs: []string{"empty"}},
		{ID: "empty", Kind: catalog.KindCourse},
	})

	assert.False(t, unlock.CourseOwned(c, unlock.Empty(), "empty"))
	assert.False(t, unlock.PackOwned(c, unlock.Empty(), "p"))

	s := unlock.Project(c, []entitlement.Record{rec("t1", "empty", catalog.KindCourse)})
	assert.True(t, unlock.CourseOwned(c, s, "empty"))
	assert.True(t, unlock.PackOwned(c, s, "p"))
}

func TestMonotonicity(t *testing.T) {
	c := catalogtest.Catalog()
	rng := rand.New(rand.NewSource(42))

	items := c.Items()
	for trial := range 20 {
		var records []entitlement.Record
		prev := unlock.Empty()
		for n := range 15 {
			it := items[rng.Intn(len(items))]
			records = append(records, rec(fmt.Sprintf("t%d-%d", trial, n), it.ID, it.Kind))

			curr := unlock.Project(c, records)
			require.True(t, curr.Contains(prev), "trial %d step %d shrank the set", trial, n)
			prev = curr
		}
	}
}

func TestDeterminism(t *testing.T) {
	c := catalogtest.Catalog()
	records := []entitlement.Record{
		rec("t1", "a1", catalog.KindLesson),
		rec("t2", catalogtest.CourseB, catalog.KindCourse),
	}

	a := unlock.Project(c, records)
	b := unlock.Project(c, records)
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Items(), b.Items())
}

func TestDifference(t *testing.T) {
	c := catalogtest.Catalog()
	prev := unlock.Project(c, []entitlement.Record{rec("t1", "l1", catalog.KindLesson)})
	curr := unlock.Project(c, []entitlement.Record{
		rec("t1", "l1", catalog.KindLesson),
		rec("t2", catalogtest.Course101, catalog.KindCourse),
	})

	assert.Equal(t, []string{catalogtest.Course101, "l2", "l3"}, curr.Difference(prev))
	assert.Empty(t, prev.Difference(curr))
}
