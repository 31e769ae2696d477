package driven

import (
	"context"

	"github.com/custodia-labs/thumbcache/internal/core/domain"
)

// Thumbnailer is a single generation backend. Implementations hold no
// state shared across calls except their own availability cache.
type Thumbnailer interface {
	// Name identifies the backend in logs.
	Name() string

	// Available reports whether the backend's runtime dependency is
	// present. Implementations memoise the answer; the check runs once
	// per instance.
	Available() bool

	// Accepts reports whether the backend handles the given MIME type.
	// The empty string means the type could not be determined; backends
	// willing to probe unknown content should accept it.
	Accepts(mime string) bool

	// Categories returns the capability tags used for registry filtering.
	Categories() []domain.Category

	// Create renders a thumbnail of the local file src into dest, fitting
	// within pixels in both dimensions. It returns optional metadata about
	// the source (dimensions, duration, page count). Every failure is
	// reported as domain.ErrDecodeFailed, possibly wrapped; dest is a
	// private temp file the dispatcher discards on failure, so a failing
	// Create needs no cleanup of its own.
	Create(ctx context.Context, src, dest string, pixels int) (map[string]string, error)
}

// ThumbnailerRegistry yields generation backends in preference order,
// optionally narrowed by category. An empty filter means no filtering.
type ThumbnailerRegistry interface {
	Select(filter ...domain.Category) []Thumbnailer
}
