package service

import (
	"slices"
	"sort"

	"engagebot/models"

	log "github.com/sirupsen/logrus"
)

// VoiceState is a user's current voice presence
type VoiceState struct {
	User      models.PlatformUser
	ChannelID string // empty when the user left voice
	Deafened  bool
}

// VoiceTracker keeps the set of non-deafened humans in each voice channel
type VoiceTracker struct {
	scorer   *ActivityScorer
	channels map[string][]models.PlatformUser
	location map[string]string
}

// NewVoiceTracker creates an empty tracker that scores through scorer
func NewVoiceTracker(scorer *ActivityScorer) *VoiceTracker {
	return &VoiceTracker{
		scorer:   scorer,
		channels: make(map[string][]models.PlatformUser),
		location: make(map[string]string),
	}
}

// Update applies a join, leave, move or deafen change
func (t *VoiceTracker) Update(state VoiceState) {
	id := state.User.ID
	if prev, ok := t.location[id]; ok {
		t.remove(prev, id)
		delete(t.location, id)
	}

	if state.ChannelID == "" || state.Deafened || state.User.Bot {
		return
	}

	t.channels[state.ChannelID] = append(t.channels[state.ChannelID], state.User)
	t.location[id] = state.ChannelID
	log.WithFields(log.Fields{
		"user_id":    id,
		"channel_id": state.ChannelID,
	}).Debugf("%s joined voice", state.User.Tag)
}

// RemoveChannel forgets a deleted channel and its occupants
func (t *VoiceTracker) RemoveChannel(channelID string) {
	for _, u := range t.channels[channelID] {
		delete(t.location, u.ID)
	}
	delete(t.channels, channelID)
}

// Tick scores every user in channels with at least two tracked occupants.
// It returns the number of users credited.
func (t *VoiceTracker) Tick() int {
	credited := 0
	for _, id := range t.channelIDs() {
		users := t.channels[id]
		if len(users) < 2 {
			continue
		}
		for _, u := range users {
			if t.scorer.Score(u, ActivitySpeaking) {
				credited++
			}
		}
	}
	return credited
}

// Snapshot returns channel id to occupant tags
func (t *VoiceTracker) Snapshot() map[string][]string {
	out := make(map[string][]string, len(t.channels))
	for id, users := range t.channels {
		tags := make([]string, 0, len(users))
		for _, u := range users {
			tags = append(tags, u.Tag)
		}
		out[id] = tags
	}
	return out
}

func (t *VoiceTracker) remove(channelID, userID string) {
	users := t.channels[channelID]
	i := slices.IndexFunc(users, func(u models.PlatformUser) bool { return u.ID == userID })
	if i < 0 {
		return
	}
	users = slices.Delete(users, i, i+1)
	if len(users) == 0 {
		delete(t.channels, channelID)
		return
	}
	t.channels[channelID] = users
}

func (t *VoiceTracker) channelIDs() []string {
	ids := make([]string, 0, len(t.channels))
	for id := range t.channels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
