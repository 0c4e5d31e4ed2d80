package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tatianab/chaotic-adventures/internal/models"
)

// ErrNotFound is returned by Load for an unknown session id.
var ErrNotFound = errors.New("memory file not found")

// Store persists one memory file per finished session.
type Store interface {
	Save(ctx context.Context, f models.MemoryFile) error
	// List returns the session ids that have a memory file.
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, sessionID string) (models.MemoryFile, error)
}

// FileStore keeps each memory file as dir/<session id>.json.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Save(_ context.Context, f models.MemoryFile) error {
	if f.SessionID == "" {
		return fmt.Errorf("save memory: missing session id")
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("save memory: %w", err)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("save memory %s: %w", f.SessionID, err)
	}
	if err := os.WriteFile(s.path(f.SessionID), data, 0644); err != nil {
		return fmt.Errorf("save memory %s: %w", f.SessionID, err)
	}
	return nil
}

func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) Load(_ context.Context, sessionID string) (models.MemoryFile, error) {
	data, err := os.ReadFile(s.path(sessionID))
	if errors.Is(err, os.ErrNotExist) {
		return models.MemoryFile{}, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return models.MemoryFile{}, fmt.Errorf("load memory %s: %w", sessionID, err)
	}
	var f models.MemoryFile
	if err := json.Unmarshal(data, &f); err != nil {
		return models.MemoryFile{}, fmt.Errorf("load memory %s: %w", sessionID, err)
	}
	return f, nil
}

func (s *FileStore) path(sessionID string) string {
	return filepath.Join(s.dir, filepath.Base(sessionID)+".json")
}
