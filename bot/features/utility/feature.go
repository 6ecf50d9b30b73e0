package utility

import (
	"context"
	"fmt"
	"strings"
	"time"

	"engagebot/bot/common"
	"engagebot/command"
	"engagebot/models"
)

// Guild is a server the bot belongs to
type Guild struct {
	ID    string
	Name  string
	Roles []Role
}

// Role is a guild role
type Role struct {
	ID   string
	Name string
}

// Platform answers questions about the chat platform connection
type Platform interface {
	Latency() time.Duration
	Guilds() []Guild
	// ChannelUserCount returns how many users can see a channel
	ChannelUserCount(channelID string) (int, error)
}

// Feature provides small informational commands
type Feature struct {
	platform Platform
}

func New(platform Platform) *Feature {
	return &Feature{platform: platform}
}

func (f *Feature) Register(r *command.Registry) {
	r.Register("ping", f.handlePing,
		"Get the ping from this bot to Discord's servers in milliseconds.",
		models.TierGeneral)
	r.Register("echo", f.handleEcho,
		"Echo the input message.",
		models.TierGeneral)
	r.Register("role-ids", f.handleRoleIDs,
		"Display all role ids for all the servers this bot belongs to",
		models.TierGeneral)
	r.Register("user-count", f.handleUserCount,
		"Respond with the server's current user count.",
		models.TierGeneral)
}

func (f *Feature) handlePing(ctx context.Context, req *command.Request) (string, error) {
	ms := float64(f.platform.Latency()) / float64(time.Millisecond)
	return fmt.Sprintf("%.2fms", ms), nil
}

func (f *Feature) handleEcho(ctx context.Context, req *command.Request) (string, error) {
	return req.Args, nil
}

func (f *Feature) handleRoleIDs(ctx context.Context, req *command.Request) (string, error) {
	var b strings.Builder
	for _, g := range f.platform.Guilds() {
		fmt.Fprintf(&b, "%s:\n", g.Name)
		for _, role := range g.Roles {
			fmt.Fprintf(&b, "  %s : %s\n", role.Name, role.ID)
		}
	}
	return common.CodeBlock(b.String(), req.IsConsole()), nil
}

func (f *Feature) handleUserCount(ctx context.Context, req *command.Request) (string, error) {
	if req.IsConsole() || req.ChannelID == "" {
		return "0 users", nil
	}
	n, err := f.platform.ChannelUserCount(req.ChannelID)
	if err != nil {
		return "", fmt.Errorf("failed to count users: %w", err)
	}
	return fmt.Sprintf("%d users", n), nil
}
