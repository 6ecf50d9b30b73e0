package service

import (
	"context"
	"time"

	"engagebot/events"
	"engagebot/models"
)

// Ledger is the score store used by the services
type Ledger interface {
	Get(id string) (*models.LedgerEntry, bool)
	Score(id string) int64
	CreditScore(id string, delta int64, tag string) int64
	SetScore(id string, value int64, tag string) int64
	SetSlot(id, slot string, v any) (bool, error)
	ClearSlot(id, slot string) bool
	EachWithSlot(slot string, fn func(models.LedgerEntry))
	Prune(id string) bool
	TopN(n int) []models.LedgerEntry
	Entries() []models.LedgerEntry
	Len() int
	PruneExpired(maxAge time.Duration) []models.LedgerEntry
	Snapshot() map[string]models.LedgerEntry
	Restore(snapshot map[string]models.LedgerEntry)
	Now() time.Time
}

// Scheduler runs delayed tasks on the event loop
type Scheduler interface {
	AfterFunc(d time.Duration, task events.Task) events.Timer
}

// GuildContext exposes the membership data needed to resolve privileges
type GuildContext interface {
	MemberRoles(userID string) ([]string, error)
	MemberPermissions(userID string) (int64, error)
}

// SnapshotStore persists ledger snapshots
type SnapshotStore interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snapshot *models.Snapshot) error
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Emit(ctx context.Context, event events.Event)
}
