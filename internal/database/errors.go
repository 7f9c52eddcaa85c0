package database

import "errors"

var (
	// ErrNotFound is returned by Open when the database must already exist
	// but does not.
	ErrNotFound = errors.New("crawl log not found")

	// ErrInvalidRecord is returned when a nil record or a record without a
	// URL is stored.
	ErrInvalidRecord = errors.New("invalid record")
)
