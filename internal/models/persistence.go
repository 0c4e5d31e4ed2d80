package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SaveSession writes the whole session document to dir/<session id>.json.
func SaveSession(dir string, s *Session) (string, error) {
	if s.ID == "" {
		return "", fmt.Errorf("save session: missing session id")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("save session %s: %w", s.ID, err)
	}

	path := filepath.Join(dir, s.ID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return path, nil
}

// LoadSession reads a session document previously written by SaveSession.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("load session %s: %w", path, err)
	}
	return &s, nil
}

// ListSessions returns the ids of the sessions saved in dir, sorted.
func ListSessions(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}
