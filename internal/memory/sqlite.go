package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tatianab/chaotic-adventures/internal/models"
)

const schema = `CREATE TABLE IF NOT EXISTS memories (
	session_id  TEXT PRIMARY KEY,
	player_name TEXT NOT NULL,
	chaos_level INTEGER NOT NULL,
	elements    TEXT NOT NULL,
	start_time  INTEGER NOT NULL,
	end_time    INTEGER NOT NULL
)`

// SQLiteStore keeps memory files as rows of a SQLite database. The
// memorable elements are stored in the same JSON shape as a memory file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, f models.MemoryFile) error {
	if f.SessionID == "" {
		return fmt.Errorf("save memory: missing session id")
	}
	elements, err := json.Marshal(f.MemorableElements)
	if err != nil {
		return fmt.Errorf("save memory %s: %w", f.SessionID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO memories (session_id, player_name, chaos_level, elements, start_time, end_time)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   player_name = excluded.player_name,
		   chaos_level = excluded.chaos_level,
		   elements = excluded.elements,
		   start_time = excluded.start_time,
		   end_time = excluded.end_time`,
		f.SessionID, f.PlayerName, f.ChaosLevel, string(elements), toMillis(f.StartTime), toMillis(f.EndTime))
	if err != nil {
		return fmt.Errorf("save memory %s: %w", f.SessionID, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM memories ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list memories: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Load(ctx context.Context, sessionID string) (models.MemoryFile, error) {
	var (
		f          models.MemoryFile
		elements   string
		start, end int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, player_name, chaos_level, elements, start_time, end_time
		 FROM memories WHERE session_id = ?`, sessionID,
	).Scan(&f.SessionID, &f.PlayerName, &f.ChaosLevel, &elements, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MemoryFile{}, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return models.MemoryFile{}, fmt.Errorf("load memory %s: %w", sessionID, err)
	}
	if err := json.Unmarshal([]byte(elements), &f.MemorableElements); err != nil {
		return models.MemoryFile{}, fmt.Errorf("load memory %s: %w", sessionID, err)
	}
	f.StartTime = fromMillis(start)
	f.EndTime = fromMillis(end)
	return f, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMilli(v).UTC()
}
