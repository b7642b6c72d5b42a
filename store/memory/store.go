// Package memory provides an in-process store for tests and development.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/xraph/progression"
	"github.com/xraph/progression/bonus"
	"github.com/xraph/progression/entitlement"
	progressionstore "github.com/xraph/progression/store"
	"github.com/xraph/progression/workflow"
)

// compile-time interface check
var _ progressionstore.Store = (*Store)(nil)

// ErrInjected is returned by saves while failures are injected.
var ErrInjected = errors.New("memory: injected write failure")

type learnerState struct {
	records  []entitlement.Record
	txns     map[string]bool
	bonuses  []bonus.Record
	rewarded map[string]bool
	workflow *workflow.Checkpoint
}

// Store keeps per-learner state in maps guarded by a single mutex. Data
// survives Close so a test can start a second ledger on the same store.
type Store struct {
	mu       sync.RWMutex
	learners map[string]*learnerState

	failSaves int
	saves     int
}

// New creates an empty store.
func New() *Store {
	return &Store{learners: make(map[string]*learnerState)}
}

// FailSaves makes the next n save calls fail with ErrInjected.
func (s *Store) FailSaves(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSaves = n
}

// Saves returns the number of successful save calls.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func (s *Store) learner(learnerID string) *learnerState {
	st, ok := s.learners[learnerID]
	if !ok {
		st = &learnerState{txns: make(map[string]bool), rewarded: make(map[string]bool)}
		s.learners[learnerID] = st
	}
	return st
}

// beginSave reports whether a save may proceed. Callers hold the lock.
func (s *Store) beginSave() error {
	if s.failSaves > 0 {
		s.failSaves--
		return ErrInjected
	}
	s.saves++
	return nil
}

// ==================== Ledger ====================

func (s *Store) LoadLedger(_ context.Context, learnerID string) ([]entitlement.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.learners[learnerID]
	if !ok {
		return nil, nil
	}
	return append([]entitlement.Record(nil), st.records...), nil
}

func (s *Store) SaveLedger(_ context.Context, learnerID string, records []entitlement.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.beginSave(); err != nil {
		return err
	}
	st := s.learner(learnerID)
	for _, r := range records {
		if st.txns[r.TransactionID] {
			continue
		}
		st.txns[r.TransactionID] = true
		st.records = append(st.records, r)
	}
	return nil
}

// ==================== Bonuses ====================

func (s *Store) LoadBonuses(_ context.Context, learnerID string) ([]bonus.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.learners[learnerID]
	if !ok {
		return nil, nil
	}
	return append([]bonus.Record(nil), st.bonuses...), nil
}

func (s *Store) SaveBonuses(_ context.Context, learnerID string, bonuses []bonus.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.beginSave(); err != nil {
		return err
	}
	st := s.learner(learnerID)
	for _, b := range bonuses {
		if st.rewarded[b.MilestoneID] {
			continue
		}
		st.rewarded[b.MilestoneID] = true
		st.bonuses = append(st.bonuses, b)
	}
	return nil
}

// ==================== Workflow ====================

func (s *Store) LoadWorkflow(_ context.Context, learnerID string) (*workflow.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.learners[learnerID]
	if !ok || st.workflow == nil {
		return nil, progression.ErrCheckpointNotFound
	}
	cp := copyCheckpoint(*st.workflow)
	return &cp, nil
}

func (s *Store) SaveWorkflow(_ context.Context, learnerID string, cp workflow.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.beginSave(); err != nil {
		return err
	}
	c := copyCheckpoint(cp)
	s.learner(learnerID).workflow = &c
	return nil
}

func copyCheckpoint(cp workflow.Checkpoint) workflow.Checkpoint {
	out := workflow.Checkpoint{State: cp.State, Queue: append([]workflow.Cue(nil), cp.Queue...)}
	if cp.Current != nil {
		c := *cp.Current
		out.Current = &c
	}
	return out
}

// ==================== Core ====================

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Close() error { return nil }
