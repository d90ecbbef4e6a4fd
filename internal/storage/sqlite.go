package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gamedev-tw/npc-engine/pkg/npc"
)

// SQLiteStorage implements the Storage interface with a single-file SQLite
// database, for deployments without a Redis instance.
type SQLiteStorage struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens or creates the database at dbPath.
func NewSQLiteStorage(dbPath string, logger *slog.Logger) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStorage{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStorage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS npc_memory (
		npc_id     TEXT PRIMARY KEY,
		data       TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStorage) LoadMemory(ctx context.Context, npcID string) (*npc.MemoryRecord, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM npc_memory WHERE npc_id = ?`, npcID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load memory for %s: %w", npcID, err)
	}

	var record npc.MemoryRecord
	if err := json.Unmarshal(data, &record); err != nil {
		s.logger.Warn("Discarding corrupt memory record", "npc_id", npcID, "error", err)
		return nil, nil
	}
	if err := record.Validate(); err != nil {
		s.logger.Warn("Discarding invalid memory record", "npc_id", npcID, "error", err)
		return nil, nil
	}
	return &record, nil
}

func (s *SQLiteStorage) SaveMemory(ctx context.Context, record *npc.MemoryRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	record.LastSavedAt = time.Now().UTC()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal memory for %s: %w", record.NPCID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO npc_memory (npc_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(npc_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		record.NPCID, string(data), record.LastSavedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save memory for %s: %w", record.NPCID, err)
	}
	return nil
}

func (s *SQLiteStorage) DeleteMemory(ctx context.Context, npcID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM npc_memory WHERE npc_id = ?`, npcID); err != nil {
		return fmt.Errorf("failed to delete memory for %s: %w", npcID, err)
	}
	return nil
}

func (s *SQLiteStorage) ListNPCs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT npc_id FROM npc_memory ORDER BY npc_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list npc memory rows: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
