package scoring

import (
	"context"
	"testing"
	"time"

	"engagebot/command"
	"engagebot/config"
	"engagebot/ledger"
	"engagebot/models"
	"engagebot/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory map[string]string

func (d fakeDirectory) LookupUser(guildID, userID string) (string, bool) {
	tag, ok := d[userID]
	return tag, ok
}

var (
	alice = models.PlatformUser{ID: "1", Tag: "alice#0001"}
	admin = models.PlatformUser{ID: "99", Tag: "boss#0001"}
)

func setup(t *testing.T, displayErrors bool) (*command.Dispatcher, *ledger.Ledger) {
	t.Helper()
	cfg := config.Default()
	cfg.DisplayChatErrors = displayErrors

	l := ledger.New(ledger.WithClock(func() time.Time { return time.UnixMilli(1_700_000_000_000) }))
	scorer := service.NewActivityScorer(l, service.RulesFromConfig(cfg))
	registry := command.NewRegistry()
	New(l, scorer, fakeDirectory{"2": "bob#0002"}, cfg).Register(registry)

	resolver := service.NewPermissionResolver(service.AdminPolicy{UserIDs: []string{admin.ID}})
	d := command.NewDispatcher(registry, resolver, nil, command.DispatcherConfig{
		Prefix:                   cfg.CommandPrefix,
		DisplayErrors:            cfg.DisplayChatErrors,
		InvalidCommandMessage:    cfg.InvalidCommandMessage,
		InvalidPermissionMessage: cfg.InvalidPermissionMessage,
	})
	return d, l
}

func run(t *testing.T, d *command.Dispatcher, caller models.Caller, text string) string {
	t.Helper()
	resp, handled := d.Handle(context.Background(), text, command.Call{Caller: caller})
	require.True(t, handled, text)
	return resp
}

func TestScore_NoEntry(t *testing.T) {
	d, _ := setup(t, false)

	assert.Equal(t, "You currently have 0 points", run(t, d, alice, "--score"))
}

func TestScore_OtherUser(t *testing.T) {
	d, l := setup(t, false)
	l.SetScore("2", 15, "bob#0002")

	assert.Equal(t, "bob#0002 has 15 points", run(t, d, alice, "--score <@2>"))
	assert.Equal(t, "That user wasn't found or doesn't have a score yet!", run(t, d, alice, "--score <@3>"))
	assert.Equal(t, "The console doesn't have a score.", run(t, d, models.ConsoleOperator{}, "score"))
}

func TestUnknownCommand_Silent(t *testing.T) {
	d, _ := setup(t, false)

	resp, handled := d.Handle(context.Background(), "--frobnicate", command.Call{Caller: alice})

	assert.False(t, handled)
	assert.Empty(t, resp)
}

func TestAdd_RequiresAdmin(t *testing.T) {
	d, l := setup(t, true)

	assert.Equal(t, "Invalid Permission!", run(t, d, alice, "--add <@2> 5"))
	assert.Equal(t, 0, l.Len())
}

func TestAdd_Subtract_Set(t *testing.T) {
	d, l := setup(t, false)

	assert.Equal(t, "added 5 points to bob#0002", run(t, d, admin, "--add <@2> 5.7"))
	assert.Equal(t, "subtracted 2 points from bob#0002", run(t, d, admin, "--subtract <@!2> 2"))
	assert.Equal(t, int64(3), l.Score("2"))
	assert.Equal(t, "set bob#0002's points to 40", run(t, d, admin, "--set 2 40"))
	assert.Equal(t, int64(40), l.Score("2"))

	assert.Equal(t, "Can't add points to that user!", run(t, d, admin, "--add <@7> 5"))
	assert.Equal(t, "Can't set points for that user!", run(t, d, admin, "--set <@2> lots"))
	assert.Equal(t, "Can't subtract points from that user!", run(t, d, admin, "--subtract"))
}

func TestTop(t *testing.T) {
	d, l := setup(t, false)

	assert.Equal(t, "No scores yet!", run(t, d, alice, "--top"))

	l.SetScore("1", 10, "alice")
	l.SetScore("2", 30, "bob")
	assert.Equal(t, "```\n\nTOP USERS:\n1. bob : 30 points\n2. alice : 10 points\n\n```", run(t, d, alice, "--top"))
	assert.Equal(t, "\nTOP USERS:\n1. bob : 30 points\n2. alice : 10 points\n", run(t, d, models.ConsoleOperator{}, "top"))
}

func TestBonus(t *testing.T) {
	d, l := setup(t, false)

	assert.Equal(t, "You have not yet earned a bonus!", run(t, d, alice, "--bonus"))
	assert.Equal(t, "The bonus is 100 points.\nYou may earn it every 86400000ms.", run(t, d, models.ConsoleOperator{}, "bonus"))

	l.SetScore("1", 1, "alice")
	_, err := l.SetSlot("1", models.SlotBonus, int64(0))
	require.NoError(t, err)
	assert.Equal(t,
		"The bonus is 100 points.\nYou received your last bonus at Thu, 01 Jan 1970 00:00:00 GMT!\nYou may earn another bonus at Fri, 02 Jan 1970 00:00:00 GMT!",
		run(t, d, alice, "--bonus"))
}

func TestScoring(t *testing.T) {
	d, _ := setup(t, false)

	want := "message: 10 points\ntyping: 1 points\nspeaking: 20 points / 10000ms\nbonus: 100 points / 86400000ms\n"
	assert.Equal(t, want, run(t, d, models.ConsoleOperator{}, "scoring"))
}
