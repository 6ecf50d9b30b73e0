package service

import "sort"

// Blacklist holds users whose messages are ignored. Admins are never ignored.
type Blacklist struct {
	ids map[string]struct{}
}

// NewBlacklist creates a blacklist seeded with ids
func NewBlacklist(ids ...string) *Blacklist {
	b := &Blacklist{ids: make(map[string]struct{})}
	b.Merge(ids)
	return b
}

// Contains reports whether id is blacklisted
func (b *Blacklist) Contains(id string) bool {
	_, ok := b.ids[id]
	return ok
}

// Add blacklists id and reports whether it was newly added
func (b *Blacklist) Add(id string) bool {
	if b.Contains(id) {
		return false
	}
	b.ids[id] = struct{}{}
	return true
}

// Remove lifts the blacklist for id and reports whether it was present
func (b *Blacklist) Remove(id string) bool {
	if !b.Contains(id) {
		return false
	}
	delete(b.ids, id)
	return true
}

// List returns the blacklisted ids in ascending order
func (b *Blacklist) List() []string {
	out := make([]string, 0, len(b.ids))
	for id := range b.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Merge adds ids to the blacklist
func (b *Blacklist) Merge(ids []string) {
	for _, id := range ids {
		if id != "" {
			b.ids[id] = struct{}{}
		}
	}
}
