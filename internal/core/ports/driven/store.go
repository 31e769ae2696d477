package driven

import "github.com/custodia-labs/thumbcache/internal/core/domain"

// Store owns the on-disk cache layout. It derives artifact locations from
// source identity and funnels every write through the stage-then-publish
// protocol, which is the engine's only cross-process synchronisation
// primitive.
type Store interface {
	// Root returns the cache root directory.
	Root() string

	// ThumbnailPath returns the final artifact path for a source at a size
	// class. When src is itself a well-formed entry of that size class the
	// path is returned unchanged, so callers can ask "is this file already
	// a thumbnail" without rehashing.
	ThumbnailPath(src string, class domain.SizeClass) (string, error)

	// FailurePath returns the failure-marker path for a source under an
	// application namespace.
	FailurePath(src, app string) (string, error)

	// Stage creates the size-class directory if needed and returns a fresh
	// private temp file inside it. Exposed so collaborators generating
	// artifacts by their own means can write to the right filesystem.
	Stage(class domain.SizeClass) (string, error)

	// StageFor returns a fresh private temp file in final's directory,
	// creating the directory tree with owner-only permissions.
	StageFor(final string) (string, error)

	// Adopt brings an externally produced artifact into the staging
	// protocol, returning a staged temp path holding its contents in
	// final's directory. An artifact already sitting at final is moved
	// aside to a temp name first, avoiding self-overwrite races; one in a
	// different directory is moved across, copying when the rename would
	// cross filesystems. The original artifact file is always consumed.
	Adopt(artifact, final string) (string, error)

	// Publish atomically moves a staged temp file to its final path,
	// replacing any existing artifact in a single rename. Readers observe
	// either the complete old artifact or the complete new one.
	Publish(tmp, final string) error

	// Discard removes a staged temp file that will not be published.
	Discard(tmp string)

	// ResolveMtime returns the modification time to validate against.
	// An explicit value wins; otherwise src must be a local file and its
	// filesystem mtime is read. Returns domain.ErrUnresolvableMtime for a
	// non-local source with no explicit value.
	ResolveMtime(src string, explicit *int64) (int64, error)
}
