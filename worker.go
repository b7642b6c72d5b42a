package progression

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/xraph/progression/workflow"
)

// ──────────────────────────────────────────────────
// Persistence
// ──────────────────────────────────────────────────

// Flush writes pending state now, retrying with backoff.
func (l *Ledger) Flush(ctx context.Context) error {
	return l.persist(ctx)
}

func (l *Ledger) markDirty() {
	l.dirty.Store(true)
	select {
	case l.persistSignal <- struct{}{}:
	default:
	}
}

// persistWorker writes dirty state after each mutation and on a ticker
// so that a failed write is attempted again.
func (l *Ledger) persistWorker(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.persistInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			// Final flush
			_ = l.persist(ctx) //nolint:errcheck // failure is logged and reported to plugins
			return

		case <-l.persistSignal:
			_ = l.persist(ctx) //nolint:errcheck // failure is logged and retried on the next tick

		case <-ticker.C:
			if l.dirty.Load() {
				_ = l.persist(ctx) //nolint:errcheck // failure is logged and retried on the next tick
			}
		}
	}
}

// persist writes records and bonuses added since the last successful
// write, then the workflow checkpoint. Saves are idempotent, so a retry
// after a partial write is safe. The snapshot is taken under l.mu so it
// never splits a purchase. Callers must not hold l.mu.
func (l *Ledger) persist(ctx context.Context) error {
	l.persistMu.Lock()
	defer l.persistMu.Unlock()

	start := time.Now()
	l.mu.Lock()
	if !l.dirty.Swap(false) {
		l.mu.Unlock()
		return nil
	}
	records := l.entitlements.List()[l.persistedRecords:]
	bonuses := l.emitter.List()[l.persistedBonuses:]
	cp := l.sequencer.Checkpoint()
	l.mu.Unlock()

	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		if err := l.store.SaveLedger(ctx, l.learnerID, records); err != nil {
			return struct{}{}, fmt.Errorf("save ledger: %w", err)
		}
		if err := l.store.SaveBonuses(ctx, l.learnerID, bonuses); err != nil {
			return struct{}{}, fmt.Errorf("save bonuses: %w", err)
		}
		if err := l.store.SaveWorkflow(ctx, l.learnerID, cp); err != nil {
			return struct{}{}, fmt.Errorf("save workflow: %w", err)
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(l.newBackOff()),
		backoff.WithMaxTries(l.persistMaxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			l.logger.Warn("persist attempt failed",
				"learner_id", l.learnerID,
				"attempt", attempts,
				"retry_in", next,
				"error", err,
			)
		}),
	)
	if err != nil {
		l.dirty.Store(true)
		l.logger.Error("failed to persist ledger",
			"learner_id", l.learnerID,
			"attempts", attempts,
			"error", err,
		)
		l.plugins.EmitPersistFailed(ctx, attempts, err)
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	l.persistedRecords += len(records)
	l.persistedBonuses += len(bonuses)

	elapsed := time.Since(start)
	l.plugins.EmitLedgerPersisted(ctx, len(records), elapsed)

	l.logger.Debug("persisted ledger",
		"learner_id", l.learnerID,
		"records", len(records),
		"bonuses", len(bonuses),
		"workflow_state", cp.State,
		"attempts", attempts,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return nil
}

func (l *Ledger) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = l.persistBackoff
	if l.persistMaxBackoff > b.InitialInterval {
		b.MaxInterval = l.persistMaxBackoff
	}
	return b
}

// ──────────────────────────────────────────────────
// Notifications
// ──────────────────────────────────────────────────

type hookKind int

const (
	hookMilestoneAchieved hookKind = iota
	hookRewardIssued
	hookWorkflowStageChanged
)

type hookEvent struct {
	kind    hookKind
	payload interface{}
}

// publish queues an event for the notification worker without blocking.
// A full queue drops the event: notifications are presentation only and
// ledger state is unaffected.
func (l *Ledger) publish(kind hookKind, payload interface{}) {
	select {
	case l.events <- hookEvent{kind: kind, payload: payload}:
	default:
		l.logger.Warn("notification queue full, dropping event",
			"learner_id", l.learnerID,
			"kind", int(kind),
		)
	}
}

// onTransition is the sequencer listener. It runs under the sequencer lock.
func (l *Ledger) onTransition(t workflow.Transition) {
	l.markDirty()
	l.publish(hookWorkflowStageChanged, t)
}

// notifyWorker delivers queued events to plugins in order.
func (l *Ledger) notifyWorker(ctx context.Context) {
	defer l.wg.Done()

	for {
		select {
		case ev := <-l.events:
			l.dispatch(ctx, ev)

		case <-l.stopChan:
			for {
				select {
				case ev := <-l.events:
					l.dispatch(ctx, ev)
				default:
					return
				}
			}
		}
	}
}

func (l *Ledger) dispatch(ctx context.Context, ev hookEvent) {
	switch ev.kind {
	case hookMilestoneAchieved:
		l.plugins.EmitMilestoneAchieved(ctx, ev.payload)
	case hookRewardIssued:
		l.plugins.EmitRewardIssued(ctx, ev.payload)
	case hookWorkflowStageChanged:
		l.plugins.EmitWorkflowStageChanged(ctx, ev.payload)
	}
}
