// Package progression records what a learner has bought and derives what
// they own from it.
//
// Progression is a library, not a service. One Ledger instance is the
// single writer for one learner's session. It provides:
//
//   - An append-only entitlement ledger deduplicated by transaction id
//   - A pure projection from purchases to unlocked lessons, courses and packs
//   - Course and pack completion milestones detected exactly once
//   - One bonus per milestone, guarded against concurrent duplicates
//   - A celebration then onboarding workflow that never overlaps
//   - At-least-once persistence with backoff and replay on start
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/progression"
//	    "github.com/xraph/progression/catalog"
//	    "github.com/xraph/progression/store/postgres"
//	)
//
//	l := progression.New(postgres.New(db), catalog.File{Path: "catalog.yaml"},
//	    progression.WithLearner("learner_42"),
//	)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Purchase Paths
//
// A lesson, a course and a pack are all valid ways to reach the same
// content. Ownership is decided by containment, so buying l1, l2 and l3
// one by one completes course c-101 exactly as buying c-101 would:
//
//	res, err := l.RecordPurchase(ctx, entitlement.Record{
//	    TransactionID: receipt.TransactionID,
//	    ItemID:        "l3",
//	    Kind:          catalog.KindLesson,
//	    Price:         types.USD(500),
//	})
//	for _, m := range res.Milestones {
//	    // c-101 completed, bonus issued, celebration queued
//	}
//
// Repeating a transaction id returns the original record with Duplicate set.
// A purchase naming an item the catalog does not know is kept for audit
// but unlocks nothing.
//
// # Workflow
//
// Each rewarded milestone queues a celebration. The presentation layer
// drives the sequencer returned by Workflow:
//
//	seq := l.Workflow()
//	seq.AcknowledgeCelebration() // onboarding follows after the minimum delay
//	seq.OnboardingDisplayed()
//	seq.ResolveOnboarding(false)
//
// # Persistence
//
// State is written in the background after every mutation and retried with
// exponential backoff. Only the ledger, issued bonuses and the workflow
// checkpoint are stored. On Start the unlocked set and milestones are
// re-derived from the ledger, and a milestone whose bonus was never written
// is rewarded then.
package progression
