package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"engagebot/database"
	"engagebot/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// queryable is satisfied by both the pool and a transaction
type queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

var ledgerColumns = []string{"id", "tag", "score", "inventory", "updated_ms"}

// PostgresSnapshotStore keeps the snapshot in the ledger_entries and blacklist tables
type PostgresSnapshotStore struct {
	db *database.DB
}

func NewPostgresSnapshotStore(db *database.DB) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{db: db}
}

// Load reads every saved entry. It returns nil when nothing was saved.
func (s *PostgresSnapshotStore) Load(ctx context.Context) (*models.Snapshot, error) {
	scores, err := loadEntries(ctx, s.db.Pool)
	if err != nil {
		return nil, err
	}
	blacklist, err := loadBlacklist(ctx, s.db.Pool)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 && len(blacklist) == 0 {
		return nil, nil
	}
	return &models.Snapshot{Scores: scores, Blacklist: blacklist}, nil
}

// Save replaces the stored snapshot in a single transaction
func (s *PostgresSnapshotStore) Save(ctx context.Context, snapshot *models.Snapshot) error {
	return s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if err := replaceEntries(ctx, tx, snapshot.Scores); err != nil {
			return err
		}
		return replaceBlacklist(ctx, tx, snapshot.Blacklist)
	})
}

func loadEntries(ctx context.Context, q queryable) (map[string]models.LedgerEntry, error) {
	rows, err := q.Query(ctx, `SELECT id, tag, score, inventory, updated_ms FROM ledger_entries`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	scores := make(map[string]models.LedgerEntry)
	for rows.Next() {
		var (
			entry     models.LedgerEntry
			inventory []byte
			updatedMs int64
		)
		if err := rows.Scan(&entry.ID, &entry.Tag, &entry.Score, &inventory, &updatedMs); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entry.Inventory = models.Inventory{}
		if err := json.Unmarshal(inventory, &entry.Inventory); err != nil {
			return nil, fmt.Errorf("failed to decode inventory for %s: %w", entry.ID, err)
		}
		entry.LastUpdate = time.UnixMilli(updatedMs)
		scores[entry.ID] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger entries: %w", err)
	}
	return scores, nil
}

func loadBlacklist(ctx context.Context, q queryable) ([]string, error) {
	rows, err := q.Query(ctx, `SELECT user_id FROM blacklist ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query blacklist: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read blacklist: %w", err)
	}
	return ids, nil
}

func replaceEntries(ctx context.Context, q queryable, scores map[string]models.LedgerEntry) error {
	if _, err := q.Exec(ctx, `DELETE FROM ledger_entries`); err != nil {
		return fmt.Errorf("failed to clear ledger entries: %w", err)
	}

	rows := make([][]any, 0, len(scores))
	for id, entry := range scores {
		inventory := entry.Inventory
		if inventory == nil {
			inventory = models.Inventory{}
		}
		encoded, err := json.Marshal(inventory)
		if err != nil {
			return fmt.Errorf("failed to encode inventory for %s: %w", id, err)
		}
		rows = append(rows, []any{id, entry.Tag, entry.Score, encoded, entry.LastUpdate.UnixMilli()})
	}

	if _, err := q.CopyFrom(ctx, pgx.Identifier{"ledger_entries"}, ledgerColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("failed to write ledger entries: %w", err)
	}
	return nil
}

func replaceBlacklist(ctx context.Context, q queryable, ids []string) error {
	if _, err := q.Exec(ctx, `DELETE FROM blacklist`); err != nil {
		return fmt.Errorf("failed to clear blacklist: %w", err)
	}

	_, err := q.CopyFrom(ctx, pgx.Identifier{"blacklist"}, []string{"user_id"},
		pgx.CopyFromSlice(len(ids), func(i int) ([]any, error) {
			return []any{ids[i]}, nil
		}))
	if err != nil {
		return fmt.Errorf("failed to write blacklist: %w", err)
	}
	return nil
}
