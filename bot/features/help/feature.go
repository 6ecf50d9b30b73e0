package help

import (
	"context"
	"fmt"
	"strings"

	"engagebot/bot/common"
	"engagebot/command"
	"engagebot/models"
)

// DirectMessenger sends private messages to users
type DirectMessenger interface {
	SendDM(userID, text string)
}

// Info describes the bot for the about command
type Info struct {
	Name    string
	Version string
	Prefix  string
	About   string
}

// Feature lists commands and describes the bot
type Feature struct {
	registry  *command.Registry
	messenger DirectMessenger
	info      Info
}

func New(messenger DirectMessenger, info Info) *Feature {
	return &Feature{messenger: messenger, info: info}
}

func (f *Feature) Register(r *command.Registry) {
	f.registry = r
	r.Register("help", f.handleHelp,
		"Display this help message.",
		models.TierGeneral)
	r.Register("about", f.handleAbout,
		"Display information about this bot.",
		models.TierGeneral)
}

func (f *Feature) handleHelp(ctx context.Context, req *command.Request) (string, error) {
	prefix := f.info.Prefix
	if req.IsConsole() {
		prefix = ""
	}

	var b strings.Builder
	for _, cmd := range f.registry.List() {
		if !command.HasPermission(cmd, req.Tier) {
			continue
		}
		fmt.Fprintf(&b, "`%s%s`\n%s\n\n", prefix, cmd.Name, cmd.Help)
	}

	user, ok := req.User()
	if !ok {
		return b.String(), nil
	}
	f.messenger.SendDM(user.ID, b.String())
	return "Help is on the way!", nil
}

func (f *Feature) handleAbout(ctx context.Context, req *command.Request) (string, error) {
	output := fmt.Sprintf("%s %s\n%s", f.info.Name, f.info.Version, f.info.About)
	return common.CodeBlock(output, req.IsConsole()), nil
}
