package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerEntry_UnmarshalJSON_LegacyFormat(t *testing.T) {
	data := []byte(`{"tag":"alice#0001","score":12.7,"inventory":{"bonus":1700000000000,"bid":{"value":5,"data":"x","placedAt":1700000000001}},"update":1700000000002}`)

	var e LedgerEntry
	require.NoError(t, json.Unmarshal(data, &e))

	assert.Equal(t, "alice#0001", e.Tag)
	assert.Equal(t, int64(12), e.Score)
	assert.Equal(t, time.UnixMilli(1700000000002), e.LastUpdate)

	at, ok := e.Inventory.BonusAt()
	require.True(t, ok)
	assert.Equal(t, time.UnixMilli(1700000000000), at)

	bid, ok := e.Inventory.Bid()
	require.True(t, ok)
	assert.Equal(t, int64(5), bid.Value)
	assert.Equal(t, time.UnixMilli(1700000000001), bid.PlacedAt)
}

func TestLedgerEntry_UnmarshalJSON_ClampsHugeScore(t *testing.T) {
	var e LedgerEntry
	require.NoError(t, json.Unmarshal([]byte(`{"tag":"a","score":1e300,"inventory":null,"update":0}`), &e))

	assert.Equal(t, MaxSafeInteger, e.Score)
	assert.NotNil(t, e.Inventory)
}

func TestLedgerEntry_MarshalJSON_NilInventory(t *testing.T) {
	data, err := json.Marshal(LedgerEntry{Tag: "a", Score: 3, LastUpdate: time.UnixMilli(10)})
	require.NoError(t, err)

	assert.JSONEq(t, `{"tag":"a","score":3,"inventory":{},"update":10}`, string(data))
}

func TestOwnedBid_Outbids(t *testing.T) {
	early := OwnedBid{UserID: "b", Bid: Bid{Value: 50, PlacedAt: time.UnixMilli(1)}}
	late := OwnedBid{UserID: "c", Bid: Bid{Value: 50, PlacedAt: time.UnixMilli(2)}}
	low := OwnedBid{UserID: "a", Bid: Bid{Value: 10, PlacedAt: time.UnixMilli(0)}}

	assert.True(t, early.Outbids(late))
	assert.False(t, late.Outbids(early))
	assert.True(t, late.Outbids(low))
}

func TestPrivilegeTier_Allows(t *testing.T) {
	assert.True(t, TierConsole.Allows(TierAdmin))
	assert.True(t, TierAdmin.Allows(TierAdmin))
	assert.False(t, TierGeneral.Allows(TierAdmin))
}
