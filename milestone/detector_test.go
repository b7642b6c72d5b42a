package milestone_test

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/catalog/catalogtest"
	"github.com/xraph/progression/entitlement"
	"github.com/xraph/progression/milestone"
	"github.com/xraph/progression/unlock"
)

func rec(txn, item string, kind catalog.Kind) entitlement.Record {
	return entitlement.Record{TransactionID: txn, ItemID: item, Kind: kind}
}

// replay feeds records one at a time and collects every milestone the
// detector reports.
func replay(d *milestone.Detector, c *catalog.Catalog, records []entitlement.Record) []string {
	var got []string
	prev := unlock.Empty()
	for i := range records {
		curr := unlock.Project(c, records[:i+1])
		got = append(got, milestone.IDs(d.Diff(prev, curr, c))...)
		prev = curr
	}
	return got
}

func TestLessonsCompleteCourse(t *testing.T) {
	c := catalogtest.Catalog()
	d := milestone.NewDetector()

	records := []entitlement.Record{
		rec("t1", "l1", catalog.KindLesson),
		rec("t2", "l2", catalog.KindLesson),
	}
	assert.Empty(t, replay(d, c, records))

	records = append(records, rec("t3", "l3", catalog.KindLesson))
	assert.Equal(t, []string{catalogtest.Course101}, replay(d, c, records))
}

func TestCoursePurchaseEquivalentToLessons(t *testing.T) {
	c := catalogtest.Catalog()
	d := milestone.NewDetector()

	byCourse := replay(d, c, []entitlement.Record{rec("t1", catalogtest.Course101, catalog.KindCourse)})
	byLessons := replay(d, c, []entitlement.Record{
		rec("t1", "l1", catalog.KindLesson),
		rec("t2", "l2", catalog.KindLesson),
		rec("t3", "l3", catalog.KindLesson),
	})
	assert.Equal(t, byCourse, byLessons)
}

func TestPackPurchaseYieldsCoursesThenPack(t *testing.T) {
	c := catalogtest.Catalog()
	d := milestone.NewDetector()

	curr := unlock.Project(c, []entitlement.Record{rec("t1", catalogtest.PackSci, catalog.KindPack)})
	ms := d.Diff(unlock.Empty(), curr, c)

	require.Len(t, ms, 3)
	assert.Equal(t, []string{catalogtest.CourseA, catalogtest.CourseB, catalogtest.PackSci}, milestone.IDs(ms))
	assert.Equal(t, catalog.KindPack, ms[2].Kind)
}

func TestPackCompletedAcrossPaths(t *testing.T) {
	c := catalogtest.Catalog()
	d := milestone.NewDetector()

	got := replay(d, c, []entitlement.Record{
		rec("t1", catalogtest.CourseA, catalog.KindCourse),
		rec("t2", "b1", catalog.KindLesson),
		rec("t3", "b2", catalog.KindLesson),
		rec("t4", "b3", catalog.KindLesson),
	})
	assert.Equal(t, []string{catalogtest.CourseA, catalogtest.CourseB, catalogtest.PackSci}, got)
}

func TestDiffIsNotRepeated(t *testing.T) {
	c := catalogtest.Catalog()
	d := milestone.NewDetector()

	curr := unlock.Project(c, []entitlement.Record{rec("t1", catalogtest.Course101, catalog.KindCourse)})
	require.Len(t, d.Diff(unlock.Empty(), curr, c), 1)
	assert.Empty(t, d.Diff(curr, curr, c))
	assert.Empty(t, d.Diff(nil, unlock.Empty(), c))
}

func TestClockOption(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := catalogtest.Catalog()
	d := milestone.NewDetector(milestone.WithClock(func() time.Time { return at }))

	curr := unlock.Project(c, []entitlement.Record{rec("t1", catalogtest.Course101, catalog.KindCourse)})
	ms := d.Diff(unlock.Empty(), curr, c)
	require.Len(t, ms, 1)
	assert.Equal(t, at, ms[0].AchievedAt)
	assert.False(t, ms[0].RewardIssued)
}

func TestScopesAgree(t *testing.T) {
	c := catalogtest.Catalog()
	all := milestone.NewDetector(milestone.WithScope(milestone.ScopeAll))
	ancestors := milestone.NewDetector(milestone.WithScope(milestone.ScopeAncestors))

	items := c.Items()
	rng := rand.New(rand.NewSource(7))

	for trial := range 50 {
		var records []entitlement.Record
		for n := range 1 + rng.Intn(12) {
			it := items[rng.Intn(len(items))]
			records = append(records, rec(fmt.Sprintf("t%d-%d", trial, n), it.ID, it.Kind))
		}
		require.Equal(t, replay(all, c, records), replay(ancestors, c, records), "trial %d", trial)
	}
}

func TestDiffFollowsCatalogOrder(t *testing.T) {
	c := catalog.MustNew([]catalog.Item{
		{ID: "z-pack", Kind: catalog.KindPack, MemberIDs: []string{"z-course", "a-course"}},
		{ID: "z-course", Kind: catalog.KindCourse},
		{ID: "z1", Kind: catalog.KindLesson, ParentID: "z-course"},
		{ID: "a-course", Kind: catalog.KindCourse},
		{ID: "a1", Kind: catalog.KindLesson, ParentID: "a-course"},
	})
	records := []entitlement.Record{rec("t1", "z-pack", catalog.KindPack)}
	want := []string{"z-course", "a-course", "z-pack"}

	for _, scope := range []milestone.Scope{milestone.ScopeAll, milestone.ScopeAncestors} {
		d := milestone.NewDetector(milestone.WithScope(scope))
		assert.Equal(t, want, replay(d, c, records), scope.String())
	}
}

func TestParseScope(t *testing.T) {
	assert.Equal(t, milestone.ScopeAncestors, milestone.ParseScope("ancestors"))
	assert.Equal(t, milestone.ScopeAll, milestone.ParseScope("all"))
	assert.Equal(t, milestone.ScopeAll, milestone.ParseScope(""))
	assert.Equal(t, "ancestors", milestone.ScopeAncestors.String())
}
