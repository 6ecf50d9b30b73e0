package bot

import (
	"engagebot/bot/common"

	log "github.com/sirupsen/logrus"
)

// Outbox sends messages without waiting for delivery
type Outbox interface {
	Post(channelID, text string)
}

type announcer struct {
	outbox  Outbox
	console *Console
}

// NewAnnouncer routes console announcements to the console, or to the log
// when the console is disabled, and everything else to the channel
func NewAnnouncer(outbox Outbox, console *Console) common.Announcer {
	return &announcer{outbox: outbox, console: console}
}

func (a *announcer) Announce(channelID string, console bool, text string) {
	if !console {
		a.outbox.Post(channelID, text)
		return
	}
	if a.console == nil {
		log.Info(text)
		return
	}
	a.console.Print(text)
}
