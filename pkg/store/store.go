package store

import "librarybot/pkg/domain"

// Store persists the library document as one atomic unit.
type Store interface {
	// Load returns the current document. A missing document yields an
	// empty library and no error; a corrupt one yields an empty library
	// and the parse error.
	Load() (domain.Library, error)
	// Save overwrites the document. A concurrent Load never observes a
	// partial write.
	Save(domain.Library) error
	// Backup copies the document to a timestamped snapshot and returns
	// its path. An empty path with nil error means there was nothing to
	// back up yet.
	Backup() (string, error)
}
