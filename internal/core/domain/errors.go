package domain

import "errors"

// Sentinel errors used across the cache engine. Callers match them
// with errors.Is after any number of fmt.Errorf %w wrappings.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnresolvableMtime indicates a non-local source was given with no
	// explicit modification time. Fatal to the call, never a side effect.
	ErrUnresolvableMtime = errors.New("mtime unresolvable for non-local source")

	// ErrSourceUnreadable indicates the local source is missing or unreadable.
	ErrSourceUnreadable = errors.New("source unreadable")

	// ErrDecodeFailed is the normalised per-backend generation failure.
	// Every backend adapter maps its library- or tool-specific errors to
	// this sentinel so nothing foreign crosses the dispatcher boundary.
	ErrDecodeFailed = errors.New("thumbnail generation failed")

	// ErrNoThumbnailer indicates every candidate backend was skipped or
	// failed for a source.
	ErrNoThumbnailer = errors.New("no thumbnailer produced a result")

	// ErrMetadataRejected indicates the metadata codec refused to read or
	// write an artifact's embedded key/value pairs.
	ErrMetadataRejected = errors.New("metadata rejected")
)
