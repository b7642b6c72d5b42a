package purchase

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/id"
	"github.com/xraph/progression/types"
)

// Simulated confirms every purchase immediately with a fresh transaction
// id. Items listed in Decline fail with ErrDeclined.
type Simulated struct {
	mu       sync.Mutex
	declined map[string]bool
	receipts []Receipt
	now      func() time.Time
}

// NewSimulated creates a provider that declines the given item ids.
func NewSimulated(decline ...string) *Simulated {
	s := &Simulated{
		declined: make(map[string]bool, len(decline)),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, itemID := range decline {
		s.declined[itemID] = true
	}
	return s
}

// SubmitPurchase implements Provider.
func (s *Simulated) SubmitPurchase(ctx context.Context, itemID string, kind catalog.Kind, price types.Money) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := Receipt{
		TransactionID: id.NewTransactionID().String(),
		ItemID:        itemID,
		Kind:          kind,
		Price:         price,
		Status:        StatusConfirmed,
		ProcessedAt:   s.now(),
	}
	if s.declined[itemID] {
		r.Status = StatusFailed
		s.receipts = append(s.receipts, r)
		return &r, ErrDeclined
	}
	s.receipts = append(s.receipts, r)
	return &r, nil
}

// Receipts returns every receipt issued so far.
func (s *Simulated) Receipts() []Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Receipt(nil), s.receipts...)
}
