package bot

import (
	"fmt"

	"engagebot/bot/common"
	"engagebot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// MemberSource looks up guild members and their permissions
type MemberSource interface {
	Member(guildID, userID string) (*discordgo.Member, error)
	ChannelPermissions(userID, channelID string) (int64, error)
	// Guilds lists the ids of every guild the bot belongs to
	Guilds() []string
}

// sessionMembers reads the session state cache. It never calls the API, so
// it is safe to use from loop tasks; handlers fill the cache with cacheMember
// before posting work to the loop.
type sessionMembers struct {
	session *discordgo.Session
}

func (m sessionMembers) Member(guildID, userID string) (*discordgo.Member, error) {
	member, err := m.session.State.Member(guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("member %s not cached in guild %s: %w", userID, guildID, err)
	}
	return member, nil
}

func (m sessionMembers) ChannelPermissions(userID, channelID string) (int64, error) {
	perms, err := m.session.State.UserChannelPermissions(userID, channelID)
	if err != nil {
		return 0, fmt.Errorf("failed to get channel permissions: %w", err)
	}
	return perms, nil
}

func (m sessionMembers) Guilds() []string {
	m.session.State.RLock()
	defer m.session.State.RUnlock()
	ids := make([]string, 0, len(m.session.State.Guilds))
	for _, g := range m.session.State.Guilds {
		ids = append(ids, g.ID)
	}
	return ids
}

// memberFetcher loads a guild member from the API
type memberFetcher interface {
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
}

// cacheMember makes sure a guild member is in the state cache. member is the
// copy carried by the event, if any; otherwise a cache miss is fetched from
// the API. It blocks on the network and must run off the loop.
func cacheMember(state *discordgo.State, api memberFetcher, guildID, userID string, member *discordgo.Member) {
	if guildID == "" || userID == "" {
		return
	}
	if member == nil {
		if _, err := state.Member(guildID, userID); err == nil {
			return
		}
		fetched, err := api.GuildMember(guildID, userID)
		if err != nil {
			log.WithFields(log.Fields{
				"guild_id": guildID,
				"user_id":  userID,
				"error":    err,
			}).Debug("Failed to fetch guild member")
			return
		}
		member = fetched
	}

	if member.User == nil {
		return
	}
	m := *member
	m.GuildID = guildID
	if err := state.MemberAdd(&m); err != nil {
		log.WithFields(log.Fields{
			"guild_id": guildID,
			"user_id":  userID,
			"error":    err,
		}).Debug("Failed to cache guild member")
	}
}

// guildContext answers role and permission questions for one message
type guildContext struct {
	members   MemberSource
	guildID   string
	channelID string
}

// newGuildContext returns nil for direct messages, where no guild roles apply
func newGuildContext(members MemberSource, guildID, channelID string) service.GuildContext {
	if guildID == "" {
		return nil
	}
	return &guildContext{members: members, guildID: guildID, channelID: channelID}
}

func (g *guildContext) MemberRoles(userID string) ([]string, error) {
	member, err := g.members.Member(g.guildID, userID)
	if err != nil {
		return nil, err
	}
	return member.Roles, nil
}

func (g *guildContext) MemberPermissions(userID string) (int64, error) {
	return g.members.ChannelPermissions(userID, g.channelID)
}

// directory resolves user tags from guild membership
type directory struct {
	members MemberSource
}

// LookupUser checks the given guild first, then every other guild the bot is in
func (d directory) LookupUser(guildID, userID string) (string, bool) {
	if guildID != "" {
		if member, err := d.members.Member(guildID, userID); err == nil && member.User != nil {
			return userTag(member.User), true
		}
	}
	for _, id := range d.members.Guilds() {
		if id == guildID {
			continue
		}
		if member, err := d.members.Member(id, userID); err == nil && member.User != nil {
			return userTag(member.User), true
		}
	}
	return "", false
}

// userTag renders a user as name#discriminator, or just the name for
// accounts without a discriminator
func userTag(u *discordgo.User) string {
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}

// NewDirectory resolves users through the session's guilds
func NewDirectory(session *discordgo.Session) common.Directory {
	return directory{members: sessionMembers{session: session}}
}
