package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"engagebot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSnapshotService_Restore(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()
	blacklist := NewBlacklist()
	store := new(MockSnapshotStore)

	store.On("Load", ctx).Return(&models.Snapshot{
		Scores: map[string]models.LedgerEntry{
			"1": {Tag: "alice", Score: 42, Inventory: models.Inventory{}, LastUpdate: time.UnixMilli(5)},
		},
		Blacklist: []string{"troll"},
	}, nil)

	svc := NewSnapshotService(store, l, blacklist)
	require.NoError(t, svc.Restore(ctx))

	assert.Equal(t, int64(42), l.Score("1"))
	assert.True(t, blacklist.Contains("troll"))
	store.AssertExpectations(t)
}

func TestSnapshotService_Restore_Empty(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()
	store := new(MockSnapshotStore)
	store.On("Load", ctx).Return(nil, nil)

	svc := NewSnapshotService(store, l, nil)

	require.NoError(t, svc.Restore(ctx))
	assert.Equal(t, 0, l.Len())
}

func TestSnapshotService_Restore_Error(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()
	store := new(MockSnapshotStore)
	store.On("Load", ctx).Return(nil, errors.New("disk on fire"))

	err := NewSnapshotService(store, l, nil).Restore(ctx)

	assert.ErrorContains(t, err, "failed to load snapshot")
}

func TestSnapshotService_Save(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()
	l.SetScore("1", 7, "alice")
	blacklist := NewBlacklist("b", "a")
	store := new(MockSnapshotStore)

	store.On("Save", ctx, mock.MatchedBy(func(s *models.Snapshot) bool {
		return len(s.Scores) == 1 && s.Scores["1"].Score == 7 && s.Scores["1"].ID == "1" &&
			assert.ObjectsAreEqual([]string{"a", "b"}, s.Blacklist)
	})).Return(nil)

	require.NoError(t, NewSnapshotService(store, l, blacklist).Save(ctx))
	store.AssertExpectations(t)
}

func TestBlacklist(t *testing.T) {
	b := NewBlacklist("1", "", "1")

	assert.Equal(t, []string{"1"}, b.List())
	assert.True(t, b.Add("2"))
	assert.False(t, b.Add("2"))
	assert.True(t, b.Remove("1"))
	assert.False(t, b.Remove("1"))
	assert.Equal(t, []string{"2"}, b.List())
}
