package entitlement

import (
	"errors"
	"sync"
	"time"

	"github.com/xraph/progression/id"
)

// ErrMissingTransactionID is returned when a record has no transaction id.
var ErrMissingTransactionID = errors.New("entitlement: missing transaction id")

// Store is the in-memory, append-only ledger deduplicated by transaction id.
// It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records []Record
	byTxn   map[string]int
}

// NewStore creates an empty ledger.
func NewStore() *Store {
	return &Store{byTxn: make(map[string]int)}
}

// Append adds r unless its transaction id is already recorded, in which case
// the existing record is returned unchanged with Accepted false.
// A missing ID or AcquiredAt is filled in.
func (s *Store) Append(r Record) (AppendResult, error) {
	if r.TransactionID == "" {
		return AppendResult{}, ErrMissingTransactionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.byTxn[r.TransactionID]; ok {
		return AppendResult{Accepted: false, Record: s.records[idx]}, nil
	}

	if r.ID.IsNil() {
		r.ID = id.NewEntitlementID()
	}
	if r.AcquiredAt.IsZero() {
		r.AcquiredAt = time.Now().UTC()
	}

	s.byTxn[r.TransactionID] = len(s.records)
	s.records = append(s.records, r)

	return AppendResult{Accepted: true, Record: r}, nil
}

// Restore appends previously persisted records in order, skipping duplicates.
// It returns the number of records added.
func (s *Store) Restore(records []Record) int {
	added := 0
	for _, r := range records {
		res, err := s.Append(r)
		if err == nil && res.Accepted {
			added++
		}
	}
	return added
}

// Get returns the record for a transaction id.
func (s *Store) Get(transactionID string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byTxn[transactionID]
	if !ok {
		return Record{}, false
	}
	return s.records[idx], true
}

// List returns all records in insertion order.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Snapshot returns an immutable view of the ledger at this instant.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{records: s.List()}
}

// Snapshot is a point-in-time copy of the ledger. Later appends do not affect it.
type Snapshot struct {
	records []Record
}

// Len returns the number of records in the snapshot.
func (s Snapshot) Len() int { return len(s.records) }

// At returns the i-th record.
func (s Snapshot) At(i int) Record { return s.records[i] }

// Records returns a copy of the snapshot's records in insertion order.
func (s Snapshot) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}
