// Package sqlite provides a SQLite-backed snapshot store. Several clients on
// one machine can share a single database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"tablestakes/internal/core/domain"

	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS session_snapshots (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	expires_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_session_snapshots_expires_at ON session_snapshots (expires_at)`,
}

// Store persists session snapshots in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path and creates the schema if needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	for _, stmt := range schema {
		if _, err := sqlDB.Exec(stmt); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Get returns the live snapshot stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT payload FROM session_snapshots WHERE key = ? AND expires_at > ?`,
		key, toMillis(s.now()),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return payload, nil
}

// Put replaces the snapshot under key and slides its expiry.
func (s *Store) Put(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = domain.DefaultSnapshotTTL
	}
	now := s.now()
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO session_snapshots (key, payload, expires_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	payload = excluded.payload,
	expires_at = excluded.expires_at,
	updated_at = excluded.updated_at`,
		key, data, toMillis(now.Add(ttl)), toMillis(now),
	)
	if err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}

// List returns live snapshots, most recently written first.
func (s *Store) List(ctx context.Context, offset, limit int) ([]domain.SnapshotInfo, int64, error) {
	now := toMillis(s.now())

	var total int64
	if err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM session_snapshots WHERE expires_at > ?`, now,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count snapshots: %w", err)
	}

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT key, payload, expires_at, updated_at FROM session_snapshots
WHERE expires_at > ?
ORDER BY updated_at DESC, key ASC
LIMIT ? OFFSET ?`, now, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	infos := make([]domain.SnapshotInfo, 0)
	for rows.Next() {
		var (
			key                  string
			payload              []byte
			expiresAt, updatedAt int64
		)
		if err := rows.Scan(&key, &payload, &expiresAt, &updatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan snapshot: %w", err)
		}
		code, _ := domain.CodeFromKey(key)
		infos = append(infos, domain.SnapshotInfo{
			Key:        key,
			Code:       code,
			LastUpdate: domain.PeekLastUpdate(payload),
			ExpiresAt:  fromMillis(expiresAt),
			UpdatedAt:  fromMillis(updatedAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate snapshots: %w", err)
	}
	return infos, total, nil
}

// DeleteExpired removes snapshots whose expiry is not after now.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM session_snapshots WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired snapshots: %w", err)
	}
	return res.RowsAffected()
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}
