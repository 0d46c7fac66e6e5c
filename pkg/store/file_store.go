package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"librarybot/pkg/domain"
)

// FileStore keeps the library in a single JSON document on disk.
type FileStore struct {
	path string
}

// NewFileStore validates the path and creates its parent directory if missing.
func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// Load reads the document. A missing file is an empty library, not an error.
func (f *FileStore) Load() (domain.Library, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return emptyLibrary(), nil
		}
		return emptyLibrary(), fmt.Errorf("read storage: %w", err)
	}
	var lib domain.Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return emptyLibrary(), fmt.Errorf("parse storage: %w", err)
	}
	if lib.Users == nil {
		lib.Users = []domain.User{}
	}
	if lib.Books == nil {
		lib.Books = []domain.Submission{}
	}
	return lib, nil
}

// Save rewrites the document through a temp file and rename so a
// concurrent Load never sees a partial write.
func (f *FileStore) Save(lib domain.Library) error {
	data, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return fmt.Errorf("encode storage: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write storage: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace storage: %w", err)
	}
	return nil
}

// Backup copies the current document to a timestamped sibling file.
// Returns an empty path when no document exists yet.
func (f *FileStore) Backup() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read storage: %w", err)
	}
	name := fmt.Sprintf("storage_backup_%s.json", time.Now().Format("20060102_150405"))
	target := filepath.Join(filepath.Dir(f.path), name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return target, nil
}

func emptyLibrary() domain.Library {
	return domain.Library{Users: []domain.User{}, Books: []domain.Submission{}}
}
