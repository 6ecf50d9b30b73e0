package service

import (
	"context"
	"fmt"
	"time"

	"engagebot/models"

	log "github.com/sirupsen/logrus"
)

// SnapshotService moves state between the ledger and a SnapshotStore
type SnapshotService struct {
	store     SnapshotStore
	ledger    Ledger
	blacklist *Blacklist
}

// NewSnapshotService creates a new snapshot service
func NewSnapshotService(store SnapshotStore, ledger Ledger, blacklist *Blacklist) *SnapshotService {
	return &SnapshotService{store: store, ledger: ledger, blacklist: blacklist}
}

// Restore loads the last saved snapshot into the ledger. A missing snapshot
// leaves the ledger empty.
func (s *SnapshotService) Restore(ctx context.Context) error {
	snapshot, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snapshot == nil {
		log.Info("No saved scores found, starting with an empty ledger")
		return nil
	}

	s.ledger.Restore(snapshot.Scores)
	if s.blacklist != nil {
		s.blacklist.Merge(snapshot.Blacklist)
	}

	log.WithFields(log.Fields{
		"entries":   len(snapshot.Scores),
		"blacklist": len(snapshot.Blacklist),
	}).Info("Restored ledger from snapshot")
	return nil
}

// Capture copies the current state into a snapshot
func (s *SnapshotService) Capture() *models.Snapshot {
	snapshot := &models.Snapshot{Scores: s.ledger.Snapshot()}
	if s.blacklist != nil {
		snapshot.Blacklist = s.blacklist.List()
	}
	return snapshot
}

// Save writes the current state to the store
func (s *SnapshotService) Save(ctx context.Context) error {
	start := time.Now()
	snapshot := s.Capture()
	if err := s.store.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	log.WithFields(log.Fields{
		"entries":  len(snapshot.Scores),
		"duration": time.Since(start),
	}).Debug("Wrote score data")
	return nil
}
