package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"engagebot/bot/common"
	"engagebot/command"
	"engagebot/config"
	"engagebot/events"
	"engagebot/models"
	"engagebot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	// typingTimeout is how long after the last typing notification a user counts as done typing
	typingTimeout = 10 * time.Second
	// reconnectGrace is how long a dropped gateway connection may take to come back
	reconnectGrace = 2 * time.Minute
)

// ErrConnectionLost is reported on Fatal when the gateway connection does not recover
var ErrConnectionLost = errors.New("discord connection lost")

// Deps are the components the bot feeds platform events into
type Deps struct {
	Config     *config.Config
	Loop       *events.Loop
	Dispatcher *command.Dispatcher
	Resolver   *service.PermissionResolver
	Scorer     *service.ActivityScorer
	Voice      *service.VoiceTracker
	Blacklist  *service.Blacklist
}

type Bot struct {
	Deps
	session *discordgo.Session
	members MemberSource
	outbox  Outbox

	// loop-owned state
	selfID    string
	typing    map[string]events.Timer
	reconnect events.Timer

	fatal chan error
}

// NewSession creates a discord session for a bot token
func NewSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsAll
	return dg, nil
}

// New wires session events into the loop. Call Open to connect.
func New(session *discordgo.Session, outbox Outbox, deps Deps) *Bot {
	b := &Bot{
		Deps:    deps,
		session: session,
		members: sessionMembers{session: session},
		outbox:  outbox,
		typing:  make(map[string]events.Timer),
		fatal:   make(chan error, 1),
	}

	session.AddHandler(b.onReady)
	session.AddHandler(b.onResumed)
	session.AddHandler(b.onGuildCreate)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onTypingStart)
	session.AddHandler(b.onVoiceStateUpdate)
	session.AddHandler(b.onChannelDelete)
	session.AddHandler(b.onDisconnect)

	return b
}

// Open connects to the gateway
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// Fatal reports unrecoverable connection failures
func (b *Bot) Fatal() <-chan error {
	return b.fatal
}

func (b *Bot) post(task events.Task) {
	if err := b.Loop.Post(task); err != nil {
		log.WithError(err).Debug("Dropped platform event")
	}
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	if err := s.UpdateGameStatus(0, "v"+config.Version); err != nil {
		log.WithError(err).Warn("Failed to set status")
	}
	b.post(func(ctx context.Context) {
		b.selfID = r.User.ID
		b.connected()
		log.WithFields(log.Fields{
			"user":   userTag(r.User),
			"guilds": len(r.Guilds),
		}).Infof("Starting %s...DONE!", b.Config.BotName)
	})
}

func (b *Bot) onResumed(s *discordgo.Session, r *discordgo.Resumed) {
	b.post(func(ctx context.Context) {
		b.connected()
		log.Info("Discord connection resumed")
	})
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if err := s.GuildMemberNickname(g.ID, "@me", b.Config.BotName); err != nil {
		log.WithFields(log.Fields{
			"guild_id": g.ID,
			"error":    err,
		}).Warn("Failed to set nickname")
	}

	states := make([]*discordgo.VoiceState, 0, len(g.VoiceStates))
	for _, vs := range g.VoiceStates {
		vs := *vs
		if vs.GuildID == "" {
			vs.GuildID = g.ID
		}
		states = append(states, &vs)
	}
	b.post(func(ctx context.Context) {
		for _, vs := range states {
			b.updateVoice(vs)
		}
		log.WithFields(log.Fields{
			"guild_id": g.ID,
			"voice":    len(states),
		}).Infof("Joined %s", g.Name)
	})
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author != nil {
		var member *discordgo.Member
		if m.Member != nil {
			mm := *m.Member
			mm.User = m.Author
			member = &mm
		}
		cacheMember(s.State, s, m.GuildID, m.Author.ID, member)
	}
	b.post(func(ctx context.Context) {
		b.processMessage(ctx, m.Message)
	})
}

func (b *Bot) onTypingStart(s *discordgo.Session, t *discordgo.TypingStart) {
	if t.GuildID == "" {
		return
	}
	cacheMember(s.State, s, t.GuildID, t.UserID, nil)
	b.post(func(ctx context.Context) {
		b.typingStarted(t.GuildID, t.UserID)
	})
}

func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.ChannelID != "" {
		cacheMember(s.State, s, v.GuildID, v.UserID, v.Member)
	}
	b.post(func(ctx context.Context) {
		b.updateVoice(v.VoiceState)
	})
}

func (b *Bot) onChannelDelete(s *discordgo.Session, c *discordgo.ChannelDelete) {
	b.post(func(ctx context.Context) {
		b.Voice.RemoveChannel(c.ID)
	})
}

func (b *Bot) onDisconnect(s *discordgo.Session, d *discordgo.Disconnect) {
	log.Warn("Discord connection dropped")
	b.post(func(ctx context.Context) {
		if b.reconnect != nil {
			return
		}
		b.reconnect = b.Loop.AfterFunc(reconnectGrace, func(ctx context.Context) {
			b.reconnect = nil
			s.RLock()
			ready := s.DataReady
			s.RUnlock()
			if ready {
				return
			}
			select {
			case b.fatal <- ErrConnectionLost:
			default:
			}
		})
	})
}

func (b *Bot) connected() {
	if b.reconnect != nil {
		b.reconnect.Stop()
		b.reconnect = nil
	}
}

// processMessage runs commands and scores chat activity for a guild message
func (b *Bot) processMessage(ctx context.Context, m *discordgo.Message) {
	if m.Author == nil || m.GuildID == "" {
		return
	}
	author := models.PlatformUser{ID: m.Author.ID, Tag: userTag(m.Author), Bot: m.Author.Bot}
	guild := newGuildContext(b.members, m.GuildID, m.ChannelID)

	if b.Blacklist.Contains(author.ID) && b.Resolver.Resolve(author, guild) < models.TierAdmin {
		return
	}

	if !author.Bot {
		response, handled := b.Dispatcher.Handle(ctx, m.Content, command.Call{
			Caller:    author,
			ChannelID: m.ChannelID,
			GuildID:   m.GuildID,
			Guild:     guild,
		})
		if handled {
			if response != "" {
				b.outbox.Post(m.ChannelID, reply(author.ID, response))
			}
			return
		}
	}

	if b.Config.LogAllMessages || author.ID == b.selfID {
		log.WithField("channel_id", m.ChannelID).Infof("%s: %s", author.Tag, m.Content)
	}
	b.Scorer.Score(author, service.ActivityMessage)
}

// reply addresses a response to a user. Code blocks start on their own line
// so they render and split cleanly.
func reply(userID, response string) string {
	if strings.HasPrefix(response, "```") {
		return common.Mention(userID) + "\n" + response
	}
	return common.Mention(userID) + " " + response
}

// typingStarted restarts the user's typing timer. The user is scored once
// the notifications stop.
func (b *Bot) typingStarted(guildID, userID string) {
	if t, ok := b.typing[userID]; ok {
		t.Stop()
	}
	b.typing[userID] = b.Loop.AfterFunc(typingTimeout, func(ctx context.Context) {
		delete(b.typing, userID)
		member, err := b.members.Member(guildID, userID)
		if err != nil || member.User == nil {
			return
		}
		b.Scorer.Score(platformUser(member.User), service.ActivityTyping)
	})
}

func (b *Bot) updateVoice(vs *discordgo.VoiceState) {
	if vs == nil {
		return
	}
	var user *discordgo.User
	if vs.Member != nil && vs.Member.User != nil {
		user = vs.Member.User
	} else if member, err := b.members.Member(vs.GuildID, vs.UserID); err == nil && member.User != nil {
		user = member.User
	} else {
		user = &discordgo.User{ID: vs.UserID, Username: vs.UserID}
	}
	b.Voice.Update(service.VoiceState{
		User:      platformUser(user),
		ChannelID: vs.ChannelID,
		Deafened:  vs.SelfDeaf || vs.Deaf,
	})
}

func platformUser(u *discordgo.User) models.PlatformUser {
	return models.PlatformUser{ID: u.ID, Tag: userTag(u), Bot: u.Bot}
}
