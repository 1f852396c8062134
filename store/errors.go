package store

import "errors"

var (
	// ErrNotConfigured indicates no snapshot directory was configured.
	ErrNotConfigured = errors.New("store: snapshot directory not configured")

	// ErrNotDirectory indicates the configured path exists but is not a directory.
	ErrNotDirectory = errors.New("store: snapshot path is not a directory")

	// ErrEmptyName indicates a write with an empty snapshot name.
	ErrEmptyName = errors.New("store: snapshot name is empty")
)
