package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// LedgerEntry holds the score and inventory of a single user
type LedgerEntry struct {
	ID         string    `json:"-"`
	Tag        string    `json:"tag"`
	Score      int64     `json:"score"`
	Inventory  Inventory `json:"inventory"`
	LastUpdate time.Time `json:"update"`
}

// ledgerEntryJSON is the persisted shape: timestamps are epoch milliseconds
type ledgerEntryJSON struct {
	Tag       string    `json:"tag"`
	Score     float64   `json:"score"`
	Inventory Inventory `json:"inventory"`
	Update    int64     `json:"update"`
}

// Clone returns a deep copy of the entry
func (e LedgerEntry) Clone() LedgerEntry {
	e.Inventory = e.Inventory.Clone()
	return e
}

// IsEmpty reports whether the entry has no score and nothing in its inventory
func (e LedgerEntry) IsEmpty() bool {
	return e.Score == 0 && len(e.Inventory) == 0
}

func (e LedgerEntry) MarshalJSON() ([]byte, error) {
	inv := e.Inventory
	if inv == nil {
		inv = Inventory{}
	}
	return json.Marshal(ledgerEntryJSON{
		Tag:       e.Tag,
		Score:     float64(e.Score),
		Inventory: inv,
		Update:    e.LastUpdate.UnixMilli(),
	})
}

func (e *LedgerEntry) UnmarshalJSON(data []byte) error {
	var raw ledgerEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode ledger entry: %w", err)
	}

	score := raw.Score
	if math.IsNaN(score) {
		score = 0
	}

	e.Tag = raw.Tag
	e.Score = truncateScore(score)
	e.Inventory = raw.Inventory
	if e.Inventory == nil {
		e.Inventory = Inventory{}
	}
	e.LastUpdate = time.UnixMilli(raw.Update)
	return nil
}

// truncateScore keeps decoded scores inside the safe integer range
func truncateScore(v float64) int64 {
	switch {
	case v >= float64(MaxSafeInteger):
		return MaxSafeInteger
	case v <= float64(MinSafeInteger):
		return MinSafeInteger
	default:
		return int64(v)
	}
}

// Safe integer bounds for scores. Values outside are clamped before storage.
const (
	MaxSafeInteger int64 = 1<<53 - 1
	MinSafeInteger int64 = -MaxSafeInteger
)

// Millis drops sub-millisecond precision so that timestamps survive persistence unchanged
func Millis(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli())
}
