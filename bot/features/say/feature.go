package say

import (
	"context"
	"strings"

	"engagebot/command"
	"engagebot/models"
)

// Server is a guild the bot can post to
type Server struct {
	ID   string
	Name string
}

// Broadcaster posts to a server's default channel
type Broadcaster interface {
	Servers() []Server
	SendToServer(serverID, text string)
}

// Feature lets the console operator speak through the bot
type Feature struct {
	broadcaster    Broadcaster
	defaultMessage string
}

func New(broadcaster Broadcaster, defaultMessage string) *Feature {
	return &Feature{broadcaster: broadcaster, defaultMessage: defaultMessage}
}

func (f *Feature) Register(r *command.Registry) {
	r.Register("say", f.handleSay,
		"Send a message to the first server this bot joined.\nArguments:\n`text`: The message to send.",
		models.TierConsole)
	r.Register("say-to", f.handleSayTo,
		"Send a message to a specific server.\nArguments:\n`server`: A server name or id to send messages to.\n`text`: The message to send.",
		models.TierConsole)
	r.Register("say-all", f.handleSayAll,
		"Send a message to all servers this bot is a member of.\nArguments:\n`text`: The message to send.",
		models.TierConsole)
}

func (f *Feature) text(s string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return f.defaultMessage
}

func (f *Feature) handleSay(ctx context.Context, req *command.Request) (string, error) {
	servers := f.broadcaster.Servers()
	if len(servers) == 0 {
		return "Server not found!", nil
	}
	f.broadcaster.SendToServer(servers[0].ID, f.text(req.Args))
	return "", nil
}

func (f *Feature) handleSayTo(ctx context.Context, req *command.Request) (string, error) {
	target, rest, _ := strings.Cut(strings.TrimSpace(req.Args), " ")
	if target == "" {
		return "Server not found!", nil
	}
	for _, s := range f.broadcaster.Servers() {
		if s.Name == target || s.ID == target {
			f.broadcaster.SendToServer(s.ID, f.text(rest))
			return "", nil
		}
	}
	return "Server not found!", nil
}

func (f *Feature) handleSayAll(ctx context.Context, req *command.Request) (string, error) {
	text := f.text(req.Args)
	for _, s := range f.broadcaster.Servers() {
		f.broadcaster.SendToServer(s.ID, text)
	}
	return "", nil
}
