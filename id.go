package progression

import "github.com/xraph/progression/id"

// ID is the identifier type for ledger records, bonuses and events.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
