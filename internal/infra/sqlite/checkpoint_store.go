package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// CheckpointStore keeps attempt checkpoints in a local SQLite file so a
// single-node deployment survives restarts without Redis.
type CheckpointStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewCheckpointStore(path string) (*CheckpointStore, error) {
	if strings.TrimSpace(path) == "" {
		path = "checkpoints.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &CheckpointStore{db: db, clock: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *CheckpointStore) Close() error {
	return s.db.Close()
}

func (s *CheckpointStore) initSchema(ctx context.Context) error {
	// expires_at_ms = 0 means the key never expires.
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS checkpoints (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		expires_at_ms INTEGER NOT NULL DEFAULT 0
	);`)
	return err
}

func (s *CheckpointStore) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value     string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at_ms FROM checkpoints WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read checkpoint %s: %w", key, err)
	}

	if expiresAt > 0 && expiresAt <= s.clock().UnixMilli() {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE key = ? AND expires_at_ms = ?`, key, expiresAt); err != nil {
			return "", false, fmt.Errorf("expire checkpoint %s: %w", key, err)
		}
		return "", false, nil
	}
	return value, true, nil
}

func (s *CheckpointStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.clock().Add(ttl).UnixMilli()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (key, value, expires_at_ms) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at_ms = excluded.expires_at_ms`,
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("write checkpoint %s: %w", key, err)
	}
	return nil
}

func (s *CheckpointStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM checkpoints WHERE key = ?`, key); err != nil {
			return fmt.Errorf("delete checkpoint %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// Purge removes every expired row and reports how many were dropped.
func (s *CheckpointStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM checkpoints WHERE expires_at_ms > 0 AND expires_at_ms <= ?`, s.clock().UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
