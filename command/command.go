package command

import (
	"context"
	"strings"

	"engagebot/models"
	"engagebot/service"
)

// HandlerFunc runs a command. An empty response with a nil error means the
// command was handled and nothing should be sent back.
type HandlerFunc func(ctx context.Context, req *Request) (string, error)

// Command is a registered command
type Command struct {
	Name    string
	Help    string
	MinTier models.PrivilegeTier
	Handler HandlerFunc
}

// Request is a single command invocation
type Request struct {
	Name      string
	Args      string
	Caller    models.Caller
	ChannelID string
	GuildID   string
	Tier      models.PrivilegeTier
	Guild     service.GuildContext
}

// IsConsole reports whether the console operator issued the request
func (r *Request) IsConsole() bool {
	return models.IsConsole(r.Caller)
}

// User returns the platform user who issued the request
func (r *Request) User() (models.PlatformUser, bool) {
	return models.AsUser(r.Caller)
}

// Fields splits the arguments on whitespace
func (r *Request) Fields() []string {
	return strings.Fields(r.Args)
}

// Module registers a group of related commands
type Module interface {
	Register(r *Registry)
}
