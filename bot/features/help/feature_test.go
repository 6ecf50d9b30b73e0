package help

import (
	"context"
	"testing"

	"engagebot/command"
	"engagebot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMessenger struct {
	mock.Mock
}

func (m *mockMessenger) SendDM(userID, text string) {
	m.Called(userID, text)
}

func noop(ctx context.Context, req *command.Request) (string, error) { return "", nil }

func TestHelp(t *testing.T) {
	messenger := new(mockMessenger)
	registry := command.NewRegistry()
	New(messenger, Info{Name: "engage-bot", Version: "1.0.0", Prefix: "--"}).Register(registry)
	registry.Register("prune", noop, "Prune things.", models.TierConsole)

	cmd, ok := registry.Lookup("help")
	require.True(t, ok)

	messenger.On("SendDM", "1", "`--about`\nDisplay information about this bot.\n\n`--help`\nDisplay this help message.\n\n").Return()
	resp, err := cmd.Handler(context.Background(), &command.Request{
		Caller: models.PlatformUser{ID: "1"},
		Tier:   models.TierGeneral,
	})
	require.NoError(t, err)
	assert.Equal(t, "Help is on the way!", resp)
	messenger.AssertExpectations(t)

	resp, err = cmd.Handler(context.Background(), &command.Request{
		Caller: models.ConsoleOperator{},
		Tier:   models.TierConsole,
	})
	require.NoError(t, err)
	assert.Contains(t, resp, "`prune`\nPrune things.")
	assert.Contains(t, resp, "`help`\n")
}

func TestAbout(t *testing.T) {
	registry := command.NewRegistry()
	New(nil, Info{Name: "engage-bot", Version: "1.0.0", About: "Be nice."}).Register(registry)
	cmd, _ := registry.Lookup("about")

	resp, err := cmd.Handler(context.Background(), &command.Request{Caller: models.ConsoleOperator{}})
	require.NoError(t, err)
	assert.Equal(t, "engage-bot 1.0.0\nBe nice.", resp)
}
