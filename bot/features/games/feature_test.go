package games

import (
	"context"
	"testing"

	"engagebot/command"
	"engagebot/config"
	"engagebot/ledger"
	"engagebot/models"
	"engagebot/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlots(t *testing.T) {
	l := ledger.New()
	l.SetScore("1", 100, "alice")
	slots := config.Slots{Wheel: []string{"X"}, ScoreFactor: 0.25, WheelCount: 3}
	registry := command.NewRegistry()
	New(service.NewGamblingService(l, slots, "points", func(int) int { return 0 })).Register(registry)
	cmd, ok := registry.Lookup("slots")
	require.True(t, ok)
	alice := models.PlatformUser{ID: "1", Tag: "alice"}

	resp, err := cmd.Handler(context.Background(), &command.Request{Args: "40", Caller: alice})
	require.NoError(t, err)
	assert.Equal(t, "\nRESULTS:\n\nX    X    X    \n\nYou won 60 points!", resp)
	assert.Equal(t, int64(120), l.Score("1"))

	_, err = cmd.Handler(context.Background(), &command.Request{Args: "", Caller: alice})
	assert.EqualError(t, err, "You must bet at least 1 points!")
}
