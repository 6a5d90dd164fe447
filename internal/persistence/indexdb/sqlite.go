// Package indexdb maintains a sqlite read model of saved chunks. It exists
// for browse/query surfaces (map browser, recent edits); the JSON chunk
// files remain the source of truth and index failures never block a save.
package indexdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"tileforge.dev/internal/editor/chunk"
)

type SQLiteIndex struct {
	db *sql.DB
}

// ChunkRow is one indexed chunk.
type ChunkRow struct {
	Key       string
	X         int32
	Y         int32
	Group     uint64
	Filled    int
	UpdatedAt string
}

func Open(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteIndex{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the editor's bursty save pattern; NORMAL is enough for a
	// secondary index that can always be rebuilt from the chunk files.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			key        TEXT PRIMARY KEY,
			x          INTEGER NOT NULL,
			y          INTEGER NOT NULL,
			grp        INTEGER NOT NULL,
			filled     INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_group ON chunks(grp);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_updated ON chunks(updated_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// RecordChunk upserts a chunk's row after a successful save.
func (s *SQLiteIndex) RecordChunk(d *chunk.Data) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(
		`INSERT INTO chunks (key, x, y, grp, filled, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET filled=excluded.filled, updated_at=excluded.updated_at`,
		d.Key(), d.X, d.Y, int64(d.Group), d.FilledCells(), now,
	)
	return err
}

// Chunks lists all indexed chunks of one group, ordered by coordinate.
func (s *SQLiteIndex) Chunks(group uint64) ([]ChunkRow, error) {
	if s == nil {
		return nil, nil
	}
	rows, err := s.db.Query(
		`SELECT key, x, y, grp, filled, updated_at FROM chunks WHERE grp = ? ORDER BY x, y`,
		int64(group),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

// RecentChunks lists the most recently saved chunks across all groups.
func (s *SQLiteIndex) RecentChunks(limit int) ([]ChunkRow, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT key, x, y, grp, filled, updated_at FROM chunks ORDER BY updated_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

func scanChunks(rows *sql.Rows) ([]ChunkRow, error) {
	var out []ChunkRow
	for rows.Next() {
		var r ChunkRow
		var grp int64
		if err := rows.Scan(&r.Key, &r.X, &r.Y, &grp, &r.Filled, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.Group = uint64(grp)
		out = append(out, r)
	}
	return out, rows.Err()
}
