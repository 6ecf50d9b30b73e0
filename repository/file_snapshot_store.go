package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"engagebot/models"

	log "github.com/sirupsen/logrus"
)

const (
	scoresFile = "scores.json"
	backupFile = "scores.bak.json"
	dataFile   = "data.json"
)

// dataDocument is the layout of data.json
type dataDocument struct {
	Blacklist []string `json:"blacklist"`
}

// FileSnapshotStore keeps the snapshot as JSON files in a directory. The
// previous scores file is copied to a backup before each overwrite.
type FileSnapshotStore struct {
	dir string
}

// NewFileSnapshotStore creates a store rooted at dir
func NewFileSnapshotStore(dir string) *FileSnapshotStore {
	return &FileSnapshotStore{dir: dir}
}

// Load reads the saved snapshot. It falls back to the backup when the scores
// file is missing or unreadable, and returns nil when nothing was saved.
func (s *FileSnapshotStore) Load(ctx context.Context) (*models.Snapshot, error) {
	scores, scoresFound, err := s.loadScores()
	if err != nil {
		return nil, err
	}

	var data dataDocument
	raw, err := os.ReadFile(s.path(dataFile))
	dataFound := err == nil
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", dataFile, err)
	default:
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", dataFile, err)
		}
	}

	if !scoresFound && !dataFound {
		return nil, nil
	}
	if scores == nil {
		scores = map[string]models.LedgerEntry{}
	}
	return &models.Snapshot{Scores: scores, Blacklist: data.Blacklist}, nil
}

// loadScores reads the scores file, or the backup when the scores file is
// missing or unreadable. found is false when neither exists.
func (s *FileSnapshotStore) loadScores() (scores map[string]models.LedgerEntry, found bool, err error) {
	scores, err = s.readScores(scoresFile)
	if err == nil {
		return scores, true, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("Scores file unreadable, trying backup")
	}

	scores, backupErr := s.readScores(backupFile)
	switch {
	case errors.Is(backupErr, os.ErrNotExist):
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	case backupErr != nil:
		return nil, false, backupErr
	}
	log.Warn("Restored scores from backup")
	return scores, true, nil
}

// Save writes the snapshot, backing up the previous scores first
func (s *FileSnapshotStore) Save(ctx context.Context, snapshot *models.Snapshot) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(dataDocument{Blacklist: nonNil(snapshot.Blacklist)}, "", " ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", dataFile, err)
	}
	if err := s.writeAtomic(dataFile, data); err != nil {
		return err
	}

	previous, err := os.ReadFile(s.path(scoresFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("failed to read %s: %w", scoresFile, err)
	default:
		if err := s.writeAtomic(backupFile, previous); err != nil {
			return err
		}
	}

	scores := snapshot.Scores
	if scores == nil {
		scores = map[string]models.LedgerEntry{}
	}
	encoded, err := json.MarshalIndent(scores, "", " ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", scoresFile, err)
	}
	return s.writeAtomic(scoresFile, encoded)
}

func (s *FileSnapshotStore) readScores(name string) (map[string]models.LedgerEntry, error) {
	raw, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	scores := make(map[string]models.LedgerEntry)
	if err := json.Unmarshal(raw, &scores); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	for id, entry := range scores {
		entry.ID = id
		scores[id] = entry
	}
	return scores, nil
}

// writeAtomic replaces name with data through a temporary file in the same directory
func (s *FileSnapshotStore) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

func (s *FileSnapshotStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
