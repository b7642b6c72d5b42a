// Package unlock derives the set of accessible catalog items from the
// entitlement ledger.
package unlock

import "sort"

// Grant records which entitlement made an item accessible.
type Grant struct {
	TransactionID string `json:"transaction_id"`
	// ItemID is the purchased item, which may be an ancestor of the unlocked one.
	ItemID string `json:"item_id"`
}

// Set is an immutable set of unlocked item ids with provenance.
type Set struct {
	grants     map[string][]Grant
	unresolved []string
}

// Empty returns a set with no unlocked items.
func Empty() *Set {
	return &Set{grants: map[string][]Grant{}}
}

// Has reports whether the item is unlocked.
func (s *Set) Has(itemID string) bool {
	if s == nil {
		return false
	}
	_, ok := s.grants[itemID]
	return ok
}

// HasAll reports whether every id is unlocked. It is true for no ids.
func (s *Set) HasAll(itemIDs ...string) bool {
	for _, itemID := range itemIDs {
		if !s.Has(itemID) {
			return false
		}
	}
	return true
}

// Len returns the number of unlocked items.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.grants)
}

// Items returns the unlocked ids, sorted.
func (s *Set) Items() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.grants))
	for k := range s.grants {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Provenance returns the grants that unlocked the item, in ledger order.
func (s *Set) Provenance(itemID string) []Grant {
	if s == nil {
		return nil
	}
	return append([]Grant(nil), s.grants[itemID]...)
}

// Contains reports whether every item of other is also in s.
func (s *Set) Contains(other *Set) bool {
	for _, itemID := range other.Items() {
		if !s.Has(itemID) {
			return false
		}
	}
	return true
}

// Equal reports whether both sets unlock exactly the same ids.
// Provenance is ignored.
func (s *Set) Equal(other *Set) bool {
	return s.Len() == other.Len() && s.Contains(other)
}

// Difference returns the ids in s that are not in other, sorted.
func (s *Set) Difference(other *Set) []string {
	var out []string
	for _, itemID := range s.Items() {
		if !other.Has(itemID) {
			out = append(out, itemID)
		}
	}
	return out
}

// Unresolved returns transaction ids whose purchase granted nothing because
// the item is missing from the catalog or its kind disagrees with it.
func (s *Set) Unresolved() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.unresolved...)
}
