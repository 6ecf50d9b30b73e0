package service

import (
	"testing"
	"time"

	"engagebot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultRules = ScoringRules{
	Message:       10,
	Typing:        1,
	Speaking:      20,
	Bonus:         100,
	BonusInterval: 24 * time.Hour,
}

var alice = models.PlatformUser{ID: "1", Tag: "alice#0001"}

func TestActivityScorer_Score_FirstMessageGetsBonus(t *testing.T) {
	l, clock := newTestLedger()
	s := NewActivityScorer(l, defaultRules)

	assert.True(t, s.Score(alice, ActivityMessage))

	assert.Equal(t, int64(110), l.Score(alice.ID))
	entry, _ := l.Get(alice.ID)
	at, ok := entry.Inventory.BonusAt()
	require.True(t, ok)
	assert.Equal(t, clock.now, at)
}

func TestActivityScorer_Score_BonusOncePerInterval(t *testing.T) {
	l, clock := newTestLedger()
	s := NewActivityScorer(l, defaultRules)

	s.Score(alice, ActivityMessage)
	clock.now = clock.now.Add(time.Hour)
	s.Score(alice, ActivityTyping)
	assert.Equal(t, int64(111), l.Score(alice.ID))

	clock.now = clock.now.Add(24 * time.Hour)
	s.Score(alice, ActivityMessage)
	assert.Equal(t, int64(221), l.Score(alice.ID))
}

func TestActivityScorer_Score_IgnoresBots(t *testing.T) {
	l, _ := newTestLedger()
	s := NewActivityScorer(l, defaultRules)

	assert.False(t, s.Score(models.PlatformUser{ID: "9", Tag: "bot", Bot: true}, ActivityMessage))
	_, ok := l.Get("9")
	assert.False(t, ok)
}

func TestActivityScorer_Score_ZeroPointKindDisabled(t *testing.T) {
	l, _ := newTestLedger()
	rules := defaultRules
	rules.Typing = 0
	s := NewActivityScorer(l, rules)

	assert.False(t, s.Score(alice, ActivityTyping))
	_, ok := l.Get(alice.ID)
	assert.False(t, ok)
}

func TestActivityScorer_Score_InvalidIntervalDisablesBonus(t *testing.T) {
	for name, interval := range map[string]time.Duration{
		"zero":     0,
		"negative": -time.Second,
		"too long": 30 * 24 * time.Hour,
	} {
		t.Run(name, func(t *testing.T) {
			l, _ := newTestLedger()
			rules := defaultRules
			rules.BonusInterval = interval
			s := NewActivityScorer(l, rules)

			s.Score(alice, ActivityMessage)

			assert.Equal(t, int64(10), l.Score(alice.ID))
			entry, _ := l.Get(alice.ID)
			assert.False(t, entry.Inventory.Has(models.SlotBonus))
		})
	}
}

func TestActivityScorer_NextBonus(t *testing.T) {
	l, clock := newTestLedger()
	s := NewActivityScorer(l, defaultRules)

	_, _, ok := s.NextBonus(alice.ID)
	assert.False(t, ok)

	s.Score(alice, ActivityMessage)
	last, next, ok := s.NextBonus(alice.ID)
	require.True(t, ok)
	assert.Equal(t, clock.now, last)
	assert.Equal(t, clock.now.Add(24*time.Hour), next)
}

func TestVoiceTracker_Tick_RequiresTwoOccupants(t *testing.T) {
	l, _ := newTestLedger()
	rules := defaultRules
	rules.Bonus = 0
	tracker := NewVoiceTracker(NewActivityScorer(l, rules))
	bob := models.PlatformUser{ID: "2", Tag: "bob"}

	tracker.Update(VoiceState{User: alice, ChannelID: "v1"})
	assert.Equal(t, 0, tracker.Tick())

	tracker.Update(VoiceState{User: bob, ChannelID: "v1"})
	assert.Equal(t, 2, tracker.Tick())
	assert.Equal(t, int64(20), l.Score(alice.ID))
	assert.Equal(t, int64(20), l.Score(bob.ID))
}

func TestVoiceTracker_Update_DeafenMoveLeave(t *testing.T) {
	l, _ := newTestLedger()
	tracker := NewVoiceTracker(NewActivityScorer(l, defaultRules))
	bob := models.PlatformUser{ID: "2", Tag: "bob"}
	botUser := models.PlatformUser{ID: "3", Tag: "bot", Bot: true}

	tracker.Update(VoiceState{User: alice, ChannelID: "v1"})
	tracker.Update(VoiceState{User: bob, ChannelID: "v1"})
	tracker.Update(VoiceState{User: botUser, ChannelID: "v1"})
	assert.Equal(t, map[string][]string{"v1": {"alice#0001", "bob"}}, tracker.Snapshot())

	tracker.Update(VoiceState{User: bob, ChannelID: "v1", Deafened: true})
	assert.Equal(t, map[string][]string{"v1": {"alice#0001"}}, tracker.Snapshot())

	tracker.Update(VoiceState{User: bob, ChannelID: "v2"})
	tracker.Update(VoiceState{User: alice, ChannelID: "v2"})
	assert.Equal(t, map[string][]string{"v2": {"bob", "alice#0001"}}, tracker.Snapshot())

	tracker.Update(VoiceState{User: alice})
	assert.Equal(t, map[string][]string{"v2": {"bob"}}, tracker.Snapshot())
}

func TestVoiceTracker_RemoveChannel(t *testing.T) {
	l, _ := newTestLedger()
	tracker := NewVoiceTracker(NewActivityScorer(l, defaultRules))
	bob := models.PlatformUser{ID: "2", Tag: "bob"}

	tracker.Update(VoiceState{User: alice, ChannelID: "v1"})
	tracker.Update(VoiceState{User: bob, ChannelID: "v1"})
	tracker.RemoveChannel("v1")

	assert.Empty(t, tracker.Snapshot())
	assert.Equal(t, 0, tracker.Tick())

	tracker.Update(VoiceState{User: alice, ChannelID: "v2"})
	assert.Equal(t, map[string][]string{"v2": {"alice#0001"}}, tracker.Snapshot())
}
