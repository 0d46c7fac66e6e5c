package store

import (
	"fmt"
	"sync"

	"librarybot/pkg/domain"
)

// MemoryStore keeps the library in-process. Used by tests.
type MemoryStore struct {
	mu      sync.RWMutex
	lib     domain.Library
	backups int
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lib: emptyLibrary()}
}

// Load returns a copy of the current document.
func (m *MemoryStore) Load() (domain.Library, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneLibrary(m.lib), nil
}

// Save replaces the document.
func (m *MemoryStore) Save(lib domain.Library) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lib = cloneLibrary(lib)
	return nil
}

// Backup counts invocations and returns a synthetic snapshot name.
func (m *MemoryStore) Backup() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backups++
	return fmt.Sprintf("memory-backup-%d", m.backups), nil
}

func cloneLibrary(lib domain.Library) domain.Library {
	out := domain.Library{
		Users: make([]domain.User, len(lib.Users)),
		Books: make([]domain.Submission, len(lib.Books)),
	}
	copy(out.Users, lib.Users)
	copy(out.Books, lib.Books)
	return out
}
