// Package entitlement holds the append-only ledger of confirmed purchases.
package entitlement

import (
	"time"

	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/id"
	"github.com/xraph/progression/types"
)

// Record is a confirmed purchase. Records are never mutated or deleted;
// corrections are new records.
type Record struct {
	ID            id.EntitlementID `json:"id"`
	TransactionID string           `json:"transaction_id"`
	ItemID        string           `json:"item_id"`
	Kind          catalog.Kind     `json:"kind"`
	Price         types.Money      `json:"price"`
	AcquiredAt    time.Time        `json:"acquired_at"`
}

// AppendResult reports the outcome of Store.Append. When Accepted is false the
// transaction id was already present and Record is the stored original.
type AppendResult struct {
	Accepted bool   `json:"accepted"`
	Record   Record `json:"record"`
}
