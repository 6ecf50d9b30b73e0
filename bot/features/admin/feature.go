package admin

import (
	"time"

	"engagebot/command"
	"engagebot/models"
	"engagebot/service"
)

// maxLogOutput keeps introspection replies inside a single chat message
const maxLogOutput = 1900

// Feature provides operator commands for the ledger and the blacklist
type Feature struct {
	ledger       service.Ledger
	blacklist    *service.Blacklist
	introspector *Introspector
	pruneAge     time.Duration
	unit         string
}

// New creates the admin feature. pruneAge is the maximum entry age used by a
// full table prune; zero only removes empty entries.
func New(ledger service.Ledger, blacklist *service.Blacklist, introspector *Introspector, pruneAge time.Duration, unit string) *Feature {
	return &Feature{
		ledger:       ledger,
		blacklist:    blacklist,
		introspector: introspector,
		pruneAge:     pruneAge,
		unit:         unit,
	}
}

func (f *Feature) Register(r *command.Registry) {
	r.Register("prune", f.handlePrune,
		"Prune a user by their id or if no arguments are given prune the whole table.\nArguments:\n`user`: A specific user id to remove from the table.",
		models.TierConsole)
	r.Register("log", f.handleLog,
		"Log a property of this bot.\nArguments:\n`object`: The object to log in the format x.y.z etc.",
		models.TierAdmin)
	r.Register("blacklist", f.handleBlacklist,
		"Manage ignored users.\nArguments:\n`add|remove|list`: The action to take.\n`user`: The user to add or remove.",
		models.TierAdmin)
}
