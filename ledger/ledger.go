package ledger

import (
	"context"
	"sort"
	"time"

	"engagebot/events"
	"engagebot/models"

	log "github.com/sirupsen/logrus"
)

// Publisher receives domain events about score changes
type Publisher interface {
	Emit(ctx context.Context, event events.Event)
}

// Ledger stores scores and inventories keyed by user id.
// It is not safe for concurrent use; all access happens on the event loop.
type Ledger struct {
	entries   map[string]*models.LedgerEntry
	order     []string
	now       func() time.Time
	publisher Publisher
}

// Option configures a Ledger
type Option func(*Ledger)

// WithClock overrides the time source used for LastUpdate stamps
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithPublisher emits a ScoreChangeEvent for every score mutation
func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// New creates an empty ledger
func New(opts ...Option) *Ledger {
	l := &Ledger{
		entries: make(map[string]*models.LedgerEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Now returns the ledger's current time truncated to milliseconds
func (l *Ledger) Now() time.Time {
	return models.Millis(l.now())
}

// Len returns the number of entries
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Get returns a copy of the entry for id
func (l *Ledger) Get(id string) (*models.LedgerEntry, bool) {
	e, ok := l.entries[id]
	if !ok {
		return nil, false
	}
	cp := e.Clone()
	return &cp, true
}

// Score returns the score for id, or 0 if absent
func (l *Ledger) Score(id string) int64 {
	if e, ok := l.entries[id]; ok {
		return e.Score
	}
	return 0
}

// CreditScore adds delta to the entry's score, creating the entry if needed
func (l *Ledger) CreditScore(id string, delta int64, tag string) int64 {
	e, created := l.ensure(id, tag)
	old := e.Score
	if created {
		e.Score = Clamp(delta)
	} else {
		e.Score = add(e.Score, delta)
	}
	e.LastUpdate = l.Now()

	log.WithFields(log.Fields{
		"user_id": id,
		"tag":     e.Tag,
		"amount":  delta,
		"score":   e.Score,
	}).Debug("score increased")

	l.emit(id, e.Tag, old, e.Score, events.ScoreChangeCredit)
	return e.Score
}

// SetScore overwrites the entry's score, creating the entry if needed
func (l *Ledger) SetScore(id string, value int64, tag string) int64 {
	e, _ := l.ensure(id, tag)
	old := e.Score
	e.Score = Clamp(value)
	e.LastUpdate = l.Now()
	l.emit(id, e.Tag, old, e.Score, events.ScoreChangeSet)
	return e.Score
}

// SetSlot stores v in the inventory slot of an existing entry.
// It returns false if the entry does not exist.
func (l *Ledger) SetSlot(id, slot string, v any) (bool, error) {
	e, ok := l.entries[id]
	if !ok {
		return false, nil
	}
	if err := e.Inventory.Set(slot, v); err != nil {
		return true, err
	}
	e.LastUpdate = l.Now()
	return true, nil
}

// ClearSlot removes an inventory slot and reports whether it was present
func (l *Ledger) ClearSlot(id, slot string) bool {
	e, ok := l.entries[id]
	if !ok || !e.Inventory.Has(slot) {
		return false
	}
	delete(e.Inventory, slot)
	e.LastUpdate = l.Now()
	return true
}

// EachWithSlot calls fn with a copy of every entry that has the slot set, in insertion order
func (l *Ledger) EachWithSlot(slot string, fn func(models.LedgerEntry)) {
	for _, id := range l.order {
		e := l.entries[id]
		if e.Inventory.Has(slot) {
			fn(e.Clone())
		}
	}
}

// Entries returns copies of all entries in insertion order
func (l *Ledger) Entries() []models.LedgerEntry {
	out := make([]models.LedgerEntry, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.entries[id].Clone())
	}
	return out
}

// Prune removes a single entry and reports whether it existed
func (l *Ledger) Prune(id string) bool {
	if _, ok := l.entries[id]; !ok {
		return false
	}
	delete(l.entries, id)
	for i, v := range l.order {
		if v == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return true
}

// PruneExpired removes entries not updated within maxAge, and entries with
// nothing to keep (zero score, empty inventory). A non-positive maxAge only
// removes the empty entries. The removed entries are returned.
func (l *Ledger) PruneExpired(maxAge time.Duration) []models.LedgerEntry {
	now := l.Now()
	var removed []models.LedgerEntry
	kept := l.order[:0]
	for _, id := range l.order {
		e := l.entries[id]
		expired := maxAge > 0 && now.Sub(e.LastUpdate) > maxAge
		if expired || e.IsEmpty() {
			removed = append(removed, e.Clone())
			delete(l.entries, id)
			continue
		}
		kept = append(kept, id)
	}
	l.order = kept

	if len(removed) > 0 {
		log.WithFields(log.Fields{
			"removed":   len(removed),
			"remaining": len(l.entries),
		}).Info("pruned ledger entries")
	}
	return removed
}

// TopN returns up to n entries with the highest scores. Ties keep insertion order.
func (l *Ledger) TopN(n int) []models.LedgerEntry {
	all := l.Entries()
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})
	if n >= 0 && n < len(all) {
		all = all[:n]
	}
	return all
}

// Snapshot returns a deep copy of the ledger keyed by id
func (l *Ledger) Snapshot() map[string]models.LedgerEntry {
	out := make(map[string]models.LedgerEntry, len(l.entries))
	for id, e := range l.entries {
		cp := e.Clone()
		cp.ID = id
		out[id] = cp
	}
	return out
}

// Restore replaces the ledger contents with a snapshot.
// Insertion order follows ascending id so restores are deterministic.
func (l *Ledger) Restore(snapshot map[string]models.LedgerEntry) {
	ids := make([]string, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	l.entries = make(map[string]*models.LedgerEntry, len(ids))
	l.order = l.order[:0]
	for _, id := range ids {
		e := snapshot[id].Clone()
		e.ID = id
		e.Score = Clamp(e.Score)
		if e.Inventory == nil {
			e.Inventory = models.Inventory{}
		}
		l.entries[id] = &e
		l.order = append(l.order, id)
	}
}

func (l *Ledger) ensure(id, tag string) (*models.LedgerEntry, bool) {
	e, ok := l.entries[id]
	if ok {
		if tag != "" {
			e.Tag = tag
		}
		return e, false
	}
	e = &models.LedgerEntry{
		ID:        id,
		Tag:       tag,
		Inventory: models.Inventory{},
	}
	l.entries[id] = e
	l.order = append(l.order, id)
	return e, true
}

func (l *Ledger) emit(id, tag string, old, updated int64, kind events.ScoreChangeKind) {
	if l.publisher == nil || old == updated {
		return
	}
	l.publisher.Emit(context.Background(), events.ScoreChangeEvent{
		UserID:   id,
		Tag:      tag,
		OldScore: old,
		NewScore: updated,
		Kind:     kind,
	})
}
