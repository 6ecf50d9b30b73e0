package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Inventory slot names
const (
	SlotBid   = "bid"
	SlotBonus = "bonus"
)

// Inventory maps named slots to JSON payloads. A missing key means the slot is not set.
type Inventory map[string]json.RawMessage

// Has reports whether a slot is set
func (inv Inventory) Has(slot string) bool {
	_, ok := inv[slot]
	return ok
}

// Set encodes v into the named slot
func (inv Inventory) Set(slot string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode inventory slot %q: %w", slot, err)
	}
	inv[slot] = data
	return nil
}

// Decode decodes the named slot into v. It returns false when the slot is not set.
func (inv Inventory) Decode(slot string, v any) (bool, error) {
	data, ok := inv[slot]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("failed to decode inventory slot %q: %w", slot, err)
	}
	return true, nil
}

// Bid returns the bid stored in the inventory, if any
func (inv Inventory) Bid() (Bid, bool) {
	var bid Bid
	ok, err := inv.Decode(SlotBid, &bid)
	if !ok || err != nil {
		return Bid{}, false
	}
	return bid, true
}

// BonusAt returns the time the last bonus was granted
func (inv Inventory) BonusAt() (time.Time, bool) {
	var ms int64
	ok, err := inv.Decode(SlotBonus, &ms)
	if !ok || err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// Clone returns a copy that shares no memory with inv
func (inv Inventory) Clone() Inventory {
	out := make(Inventory, len(inv))
	for k, v := range inv {
		cp := make(json.RawMessage, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}
