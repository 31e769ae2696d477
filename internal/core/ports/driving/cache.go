package driving

import (
	"context"

	"github.com/custodia-labs/thumbcache/internal/core/domain"
)

// CacheService is the public API of the thumbnail cache engine.
//
// Optional parameters follow one convention throughout: a nil size means
// "any size class, prefer larger", a nil mtime means "read it from the
// local source", an empty app name means "no failure-marker namespace".
//
// Operations returning a path use the empty string for the deliberate
// "no thumbnail" non-result; it is not an error. Errors are reserved for
// input problems (domain.ErrUnresolvableMtime, domain.ErrInvalidInput)
// and filesystem failures that the caller cannot recover from.
type CacheService interface {
	// GetOrCreate returns a valid cached thumbnail path, generating and
	// publishing one on a miss. With an app name, a failure marker valid
	// for the source's current mtime suppresses the generation attempt,
	// and exhaustion of all backends records a new marker.
	GetOrCreate(ctx context.Context, src string, size *domain.SizeClass, app string) (string, error)

	// LookupOnly implements the pure read path: it never generates,
	// never touches failure markers.
	LookupOnly(src string, size *domain.SizeClass, mtime *int64) (string, error)

	// StoreExternallyGenerated pushes an artifact produced outside the
	// backend list through the atomic publish path, stamping the
	// mandatory identity pair. The artifact file is consumed.
	StoreExternallyGenerated(src string, size domain.SizeClass, artifact string, mtime *int64, extra map[string]string) (string, error)

	// RecordFailure publishes a failure marker for src under the app
	// namespace, independent of any generation attempt.
	RecordFailure(src, app string, mtime *int64, extra map[string]string) (string, error)

	// IsMarkedFailed reports whether a failure marker valid for the
	// source's mtime exists under the app namespace. Pure read.
	IsMarkedFailed(src, app string, mtime *int64) (bool, error)
}
