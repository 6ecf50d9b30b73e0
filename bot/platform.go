package bot

import (
	"context"
	"fmt"
	"sort"
	"time"

	"engagebot/bot/features/say"
	"engagebot/bot/features/utility"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Platform exposes session details to command modules and sends on their behalf
type Platform struct {
	session *discordgo.Session
	sender  *Sender
}

func NewPlatform(session *discordgo.Session, sender *Sender) *Platform {
	return &Platform{session: session, sender: sender}
}

func (p *Platform) Latency() time.Duration {
	return p.session.HeartbeatLatency()
}

func (p *Platform) Guilds() []utility.Guild {
	p.session.State.RLock()
	defer p.session.State.RUnlock()

	out := make([]utility.Guild, 0, len(p.session.State.Guilds))
	for _, g := range p.session.State.Guilds {
		guild := utility.Guild{ID: g.ID, Name: g.Name}
		for _, r := range g.Roles {
			guild.Roles = append(guild.Roles, utility.Role{ID: r.ID, Name: r.Name})
		}
		out = append(out, guild)
	}
	return out
}

// ChannelUserCount counts guild members for guild channels and recipients for
// private channels
func (p *Platform) ChannelUserCount(channelID string) (int, error) {
	ch, err := p.session.State.Channel(channelID)
	if err != nil {
		if ch, err = p.session.Channel(channelID); err != nil {
			return 0, fmt.Errorf("failed to get channel: %w", err)
		}
	}

	switch ch.Type {
	case discordgo.ChannelTypeDM:
		return 2, nil
	case discordgo.ChannelTypeGroupDM:
		return len(ch.Recipients) + 1, nil
	}

	guild, err := p.session.State.Guild(ch.GuildID)
	if err != nil {
		return 0, fmt.Errorf("failed to get guild: %w", err)
	}
	if guild.MemberCount > 0 {
		return guild.MemberCount, nil
	}
	return len(guild.Members), nil
}

func (p *Platform) Servers() []say.Server {
	p.session.State.RLock()
	defer p.session.State.RUnlock()

	out := make([]say.Server, 0, len(p.session.State.Guilds))
	for _, g := range p.session.State.Guilds {
		out = append(out, say.Server{ID: g.ID, Name: g.Name})
	}
	return out
}

// SendToServer posts to the guild's default channel
func (p *Platform) SendToServer(serverID, text string) {
	channelID, ok := p.defaultChannel(serverID)
	if !ok {
		log.WithField("guild_id", serverID).Warn("No channel to post to")
		return
	}
	p.sender.Post(channelID, text)
}

// SendDM opens a private channel with the user and posts to it
func (p *Platform) SendDM(userID, text string) {
	go func() {
		ch, err := p.session.UserChannelCreate(userID)
		if err != nil {
			log.WithFields(log.Fields{
				"user_id": userID,
				"error":   err,
			}).Error("Failed to open direct message channel")
			return
		}
		if err := p.sender.Send(context.Background(), ch.ID, text); err != nil {
			log.WithFields(log.Fields{
				"user_id": userID,
				"error":   err,
			}).Error("Failed to send direct message")
		}
	}()
}

// defaultChannel picks the system channel, or else the top text channel the bot can post in
func (p *Platform) defaultChannel(guildID string) (string, bool) {
	guild, err := p.session.State.Guild(guildID)
	if err != nil {
		return "", false
	}
	if guild.SystemChannelID != "" {
		return guild.SystemChannelID, true
	}

	p.session.State.RLock()
	channels := make([]*discordgo.Channel, 0, len(guild.Channels))
	for _, ch := range guild.Channels {
		if ch.Type == discordgo.ChannelTypeGuildText {
			channels = append(channels, ch)
		}
	}
	p.session.State.RUnlock()
	sort.SliceStable(channels, func(i, j int) bool { return channels[i].Position < channels[j].Position })

	me := p.session.State.User.ID
	for _, ch := range channels {
		perms, err := p.session.State.UserChannelPermissions(me, ch.ID)
		if err == nil && perms&discordgo.PermissionSendMessages != 0 {
			return ch.ID, true
		}
	}
	return "", false
}
