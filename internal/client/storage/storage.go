// Package storage holds the client side of record persistence: the SQLite
// local store, the HTTP client for the remote records API and the
// background retry loop.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/SymbolBoard/internal/models"
)

// SQLiteStore is a LocalStore backed by the local_records table created by
// db.InitSQLite.
type SQLiteStore struct {
	DB *sql.DB
}

// NewSQLiteStore wraps an initialised SQLite handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{DB: db}
}

const recordColumns = `owner_id, key, kind, payload, state, updated_at, deleted`

func scanRecord(sc interface{ Scan(...any) error }) (models.SyncableRecord, error) {
	var rec models.SyncableRecord
	err := sc.Scan(&rec.OwnerID, &rec.Key, &rec.Kind, &rec.Payload, &rec.State, &rec.UpdatedAt, &rec.Deleted)
	return rec, err
}

// Get returns the record stored under key, tombstones included.
func (s *SQLiteStore) Get(ctx context.Context, ownerID, key string) (models.SyncableRecord, bool, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM local_records WHERE owner_id = ? AND key = ?`, ownerID, key)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SyncableRecord{}, false, nil
	}
	if err != nil {
		return models.SyncableRecord{}, false, fmt.Errorf("get local record: %w", err)
	}
	return rec, true, nil
}

// Put inserts or replaces rec.
func (s *SQLiteStore) Put(ctx context.Context, rec models.SyncableRecord) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO local_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, key) DO UPDATE SET
			kind = excluded.kind,
			payload = excluded.payload,
			state = excluded.state,
			updated_at = excluded.updated_at,
			deleted = excluded.deleted
	`, rec.OwnerID, rec.Key, string(rec.Kind), rec.Payload, int(rec.State), rec.UpdatedAt, rec.Deleted)
	if err != nil {
		return fmt.Errorf("put local record: %w", err)
	}
	return nil
}

// Delete removes key for good.
func (s *SQLiteStore) Delete(ctx context.Context, ownerID, key string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM local_records WHERE owner_id = ? AND key = ?`, ownerID, key); err != nil {
		return fmt.Errorf("delete local record: %w", err)
	}
	return nil
}

// ListByOwner returns every record of ownerID ordered by last update.
func (s *SQLiteStore) ListByOwner(ctx context.Context, ownerID string) ([]models.SyncableRecord, error) {
	return s.list(ctx, `SELECT `+recordColumns+` FROM local_records WHERE owner_id = ? ORDER BY updated_at, key`, ownerID)
}

// ListUnsynced returns the records of ownerID that are not Synced.
func (s *SQLiteStore) ListUnsynced(ctx context.Context, ownerID string) ([]models.SyncableRecord, error) {
	return s.list(ctx, `SELECT `+recordColumns+` FROM local_records WHERE owner_id = ? AND state != ? ORDER BY updated_at, key`,
		ownerID, int(models.Synced))
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]models.SyncableRecord, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list local records: %w", err)
	}
	defer rows.Close()

	var out []models.SyncableRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan local record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
