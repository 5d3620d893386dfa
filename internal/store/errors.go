package store

import (
	"errors"

	"github.com/sadopc/moodtrack/internal/mood"
)

// Errors returned by the store. Match them with errors.Is; most are wrapped
// together with the underlying driver error.
var (
	// ErrStorageOpenFailed means the database could not be opened or migrated.
	// A store in this state stays unusable until the file is repaired or removed.
	ErrStorageOpenFailed = errors.New("storage open failed")

	// ErrStorageWriteFailed means an add or delete did not commit after retrying.
	ErrStorageWriteFailed = errors.New("storage write failed")

	ErrStorageReadFailed = errors.New("storage read failed")

	// ErrInvalidMoodLevel is returned by AddEntry for levels outside 1..5.
	ErrInvalidMoodLevel = mood.ErrInvalidLevel

	ErrNotReady      = errors.New("storage not ready")
	ErrClosed        = errors.New("storage closed")
	ErrEntryNotFound = errors.New("entry not found")
)
