package models

// Snapshot is the persisted state of the bot
type Snapshot struct {
	Scores    map[string]LedgerEntry
	Blacklist []string
}
