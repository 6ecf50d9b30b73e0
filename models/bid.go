package models

import (
	"encoding/json"
	"time"
)

// Bid is a pending wager placed during an open bidding round
type Bid struct {
	Value    int64
	Data     string
	PlacedAt time.Time
}

type bidJSON struct {
	Value    int64  `json:"value"`
	Data     string `json:"data"`
	PlacedAt int64  `json:"placedAt"`
}

func (b Bid) MarshalJSON() ([]byte, error) {
	return json.Marshal(bidJSON{Value: b.Value, Data: b.Data, PlacedAt: b.PlacedAt.UnixMilli()})
}

func (b *Bid) UnmarshalJSON(data []byte) error {
	var raw bidJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Value = raw.Value
	b.Data = raw.Data
	b.PlacedAt = time.UnixMilli(raw.PlacedAt)
	return nil
}

// OwnedBid pairs a bid with the ledger entry that placed it
type OwnedBid struct {
	UserID string
	Tag    string
	Bid    Bid
}

// Outbids reports whether b beats other: higher value first, then the earlier placement
func (b OwnedBid) Outbids(other OwnedBid) bool {
	if b.Bid.Value != other.Bid.Value {
		return b.Bid.Value > other.Bid.Value
	}
	return b.Bid.PlacedAt.Before(other.Bid.PlacedAt)
}
