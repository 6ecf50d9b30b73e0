package testutil

import (
	"time"

	"engagebot/models"
)

// CreateTestEntry creates a ledger entry updated at a fixed millisecond time
func CreateTestEntry(id, tag string, score int64) models.LedgerEntry {
	return models.LedgerEntry{
		ID:         id,
		Tag:        tag,
		Score:      score,
		Inventory:  models.Inventory{},
		LastUpdate: time.UnixMilli(1_700_000_000_000),
	}
}

// CreateTestEntryWithBid creates an entry holding a bid
func CreateTestEntryWithBid(id, tag string, score, value int64, data string) models.LedgerEntry {
	entry := CreateTestEntry(id, tag, score)
	if err := entry.Inventory.Set(models.SlotBid, models.Bid{
		Value:    value,
		Data:     data,
		PlacedAt: time.UnixMilli(1_700_000_100_000),
	}); err != nil {
		panic(err)
	}
	return entry
}

// CreateTestSnapshot builds a snapshot from entries
func CreateTestSnapshot(blacklist []string, entries ...models.LedgerEntry) *models.Snapshot {
	scores := make(map[string]models.LedgerEntry, len(entries))
	for _, e := range entries {
		scores[e.ID] = e
	}
	return &models.Snapshot{Scores: scores, Blacklist: blacklist}
}
