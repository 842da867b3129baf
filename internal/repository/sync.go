// Package repository provides persistence implementations for the records
// API using a PostgreSQL database.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/SymbolBoard/internal/models"
	"github.com/lib/pq"
)

// PostgresRecordRepository stores owner-scoped records in PostgreSQL.
// Deletions are soft; tombstones are purged by the cleaner in package db.
type PostgresRecordRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresRecordRepository creates a new PostgresRecordRepository using the provided *sql.DB.
func NewPostgresRecordRepository(db *sql.DB) *PostgresRecordRepository {
	return &PostgresRecordRepository{DB: db}
}

// Read fetches a live record. It returns models.ErrNotFound for missing or
// deleted keys.
func (s *PostgresRecordRepository) Read(ctx context.Context, ownerID, key string) (models.RemoteRecord, error) {
	rec := models.RemoteRecord{Key: key}
	err := s.DB.QueryRowContext(ctx, `
		SELECT payload, updated_at FROM records
		WHERE owner_id = $1 AND key = $2 AND deleted = false
	`, ownerID, key).Scan(&rec.Payload, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RemoteRecord{}, models.ErrNotFound
	}
	if err != nil {
		return models.RemoteRecord{}, fmt.Errorf("Read: %w", err)
	}
	return rec, nil
}

// ReadMany fetches the live records among keys. Missing keys are omitted.
func (s *PostgresRecordRepository) ReadMany(ctx context.Context, ownerID string, keys []string) ([]models.RemoteRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT key, payload, updated_at FROM records
		WHERE owner_id = $1 AND key = ANY($2) AND deleted = false
		ORDER BY key
	`, ownerID, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("ReadMany: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// List returns the live records whose key starts with prefix.
func (s *PostgresRecordRepository) List(ctx context.Context, ownerID, prefix string) ([]models.RemoteRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT key, payload, updated_at FROM records
		WHERE owner_id = $1 AND key LIKE $2 AND deleted = false
		ORDER BY key
	`, ownerID, likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Upsert writes payload under key, reviving a tombstone if present.
func (s *PostgresRecordRepository) Upsert(ctx context.Context, ownerID, key string, payload []byte, updatedAt int64) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO records (owner_id, key, payload, updated_at, deleted)
		VALUES ($1, $2, $3, $4, false)
		ON CONFLICT (owner_id, key) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at,
			deleted = false
	`, ownerID, key, payload, updatedAt)
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

// SoftDelete marks the given keys as deleted. Deleting an absent key is not
// an error.
func (s *PostgresRecordRepository) SoftDelete(ctx context.Context, ownerID string, keys []string, updatedAt int64) error {
	query := `UPDATE records SET deleted = true, updated_at = $3 WHERE owner_id = $1 AND key = ANY($2) AND deleted = false`
	if _, err := s.DB.ExecContext(ctx, query, ownerID, pq.Array(keys), updatedAt); err != nil {
		return fmt.Errorf("soft delete: %w", err)
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]models.RemoteRecord, error) {
	var out []models.RemoteRecord
	for rows.Next() {
		var rec models.RemoteRecord
		if err := rows.Scan(&rec.Key, &rec.Payload, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// likePrefix escapes LIKE metacharacters in prefix and appends a wildcard.
func likePrefix(prefix string) string {
	var b []byte
	for i := 0; i < len(prefix); i++ {
		switch c := prefix[i]; c {
		case '%', '_', '\\':
			b = append(b, '\\', c)
		default:
			b = append(b, c)
		}
	}
	return string(append(b, '%'))
}
