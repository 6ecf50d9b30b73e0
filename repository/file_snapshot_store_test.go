package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"engagebot/models"
	"engagebot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertSameEntries(t *testing.T, expected, actual map[string]models.LedgerEntry) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for id, want := range expected {
		got, ok := actual[id]
		require.True(t, ok, "missing entry %s", id)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, want.Tag, got.Tag)
		assert.Equal(t, want.Score, got.Score)
		assert.Equal(t, want.LastUpdate.UnixMilli(), got.LastUpdate.UnixMilli())

		wantBid, wantOK := want.Inventory.Bid()
		gotBid, gotOK := got.Inventory.Bid()
		assert.Equal(t, wantOK, gotOK)
		assert.Equal(t, wantBid.Value, gotBid.Value)
		assert.Equal(t, wantBid.Data, gotBid.Data)
		assert.Equal(t, wantBid.PlacedAt.UnixMilli(), gotBid.PlacedAt.UnixMilli())
	}
}

func TestFileSnapshotStore_Load_Empty(t *testing.T) {
	store := NewFileSnapshotStore(t.TempDir())

	snapshot, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestFileSnapshotStore_Load_BlacklistWithoutScores(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.json"), []byte(`{"blacklist":["666"]}`), 0o644))
	store := NewFileSnapshotStore(dir)

	snapshot, err := store.Load(context.Background())

	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Empty(t, snapshot.Scores)
	assert.Equal(t, []string{"666"}, snapshot.Blacklist)
}

func TestFileSnapshotStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileSnapshotStore(filepath.Join(dir, "cache"))

	saved := testutil.CreateTestSnapshot([]string{"666"},
		testutil.CreateTestEntry("1", "alice#0001", 120),
		testutil.CreateTestEntryWithBid("2", "bob#0002", 80, 40, "red"),
	)
	require.NoError(t, store.Save(ctx, saved))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assertSameEntries(t, saved.Scores, loaded.Scores)
	assert.Equal(t, []string{"666"}, loaded.Blacklist)

	_, err = os.Stat(filepath.Join(dir, "cache", backupFile))
	assert.True(t, os.IsNotExist(err), "first save has nothing to back up")
}

func TestFileSnapshotStore_Backup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileSnapshotStore(dir)

	first := testutil.CreateTestSnapshot(nil, testutil.CreateTestEntry("1", "alice#0001", 10))
	second := testutil.CreateTestSnapshot(nil, testutil.CreateTestEntry("1", "alice#0001", 20))
	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))

	t.Run("primary wins", func(t *testing.T) {
		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(20), loaded.Scores["1"].Score)
	})

	t.Run("corrupt primary falls back to backup", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, scoresFile), []byte("{not json"), 0o644))

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(10), loaded.Scores["1"].Score)
	})

	t.Run("missing primary falls back to backup", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(dir, scoresFile)))

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(10), loaded.Scores["1"].Score)
	})
}

func TestFileSnapshotStore_Load_LegacyFormat(t *testing.T) {
	dir := t.TempDir()
	legacy := `{
 "1234": {
  "tag": "alice#0001",
  "score": 150.7,
  "inventory": {
   "bid": {"value": 50, "data": "blue", "placedAt": 1500000000123}
  },
  "update": 1500000000000
 },
 "5678": {
  "tag": "bob#0002",
  "score": 1e300,
  "inventory": null,
  "update": 1500000000500
 }
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, scoresFile), []byte(legacy), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, dataFile), []byte(`{"blacklist": ["42"]}`), 0o644))

	loaded, err := NewFileSnapshotStore(dir).Load(context.Background())
	require.NoError(t, err)

	alice := loaded.Scores["1234"]
	assert.Equal(t, "1234", alice.ID)
	assert.Equal(t, int64(150), alice.Score)
	assert.Equal(t, time.UnixMilli(1500000000000), alice.LastUpdate)
	bid, ok := alice.Inventory.Bid()
	require.True(t, ok)
	assert.Equal(t, int64(50), bid.Value)
	assert.Equal(t, "blue", bid.Data)

	bob := loaded.Scores["5678"]
	assert.Equal(t, models.MaxSafeInteger, bob.Score)
	assert.NotNil(t, bob.Inventory)

	assert.Equal(t, []string{"42"}, loaded.Blacklist)
}

func TestFileSnapshotStore_Save_EmptySnapshot(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileSnapshotStore(dir)

	require.NoError(t, store.Save(ctx, &models.Snapshot{}))

	raw, err := os.ReadFile(filepath.Join(dir, scoresFile))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(raw))

	raw, err = os.ReadFile(filepath.Join(dir, dataFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{"blacklist": []}`, string(raw))
}
