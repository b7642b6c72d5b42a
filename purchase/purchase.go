// Package purchase defines the boundary to the checkout flow. The ledger
// never processes payments itself; it consumes receipts.
package purchase

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/types"
)

// ErrDeclined is returned by providers when checkout did not complete.
var ErrDeclined = errors.New("purchase: declined")

// Status is the outcome of a checkout.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
)

// Receipt is what the checkout flow returns for a submitted purchase.
type Receipt struct {
	TransactionID string       `json:"transaction_id" yaml:"transaction_id"`
	ItemID        string       `json:"item_id" yaml:"item_id"`
	Kind          catalog.Kind `json:"kind" yaml:"kind"`
	Price         types.Money  `json:"price" yaml:"price"`
	Status        Status       `json:"status" yaml:"status"`
	ProcessedAt   time.Time    `json:"processed_at" yaml:"processed_at"`
}

// Confirmed reports whether the receipt grants an entitlement.
func (r *Receipt) Confirmed() bool {
	return r != nil && r.Status == StatusConfirmed && r.TransactionID != ""
}

// Provider submits purchases to the checkout flow.
type Provider interface {
	SubmitPurchase(ctx context.Context, itemID string, kind catalog.Kind, price types.Money) (*Receipt, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, itemID string, kind catalog.Kind, price types.Money) (*Receipt, error)

// SubmitPurchase implements Provider.
func (f ProviderFunc) SubmitPurchase(ctx context.Context, itemID string, kind catalog.Kind, price types.Money) (*Receipt, error) {
	return f(ctx, itemID, kind, price)
}
