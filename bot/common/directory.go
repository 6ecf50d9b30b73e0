package common

// Directory looks up users known to the chat platform
type Directory interface {
	// LookupUser returns the display tag of userID if the platform knows the user
	LookupUser(guildID, userID string) (tag string, ok bool)
}

// Announcer delivers out-of-band messages, such as bidding countdowns, to
// the channel a command came from
type Announcer interface {
	Announce(channelID string, console bool, text string)
}
