// Package fs implements the on-disk cache store following the freedesktop
// thumbnail directory layout.
//
// All mutation funnels through stage-then-rename: a private temp file is
// created in the destination directory (same filesystem, so the final
// rename is atomic) and moved over the target in one operation. That
// rename is the engine's only cross-process synchronisation primitive;
// there are no lock files and no lock waits.
package fs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/custodia-labs/thumbcache/internal/core/domain"
	"github.com/custodia-labs/thumbcache/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.Store = (*Store)(nil)

// Store lays out the cache under a single root directory:
//
//	<root>/normal/<key>.png
//	<root>/large/<key>.png
//	<root>/x-large/<key>.png
//	<root>/xx-large/<key>.png
//	<root>/fail/<app>/<key>.png
type Store struct {
	root string
}

// New creates a store rooted at root. An empty root selects the standard
// location: $XDG_CACHE_HOME/thumbnails, or ~/.cache/thumbnails.
func New(root string) (*Store, error) {
	if root == "" {
		var err error
		root, err = DefaultRoot()
		if err != nil {
			return nil, err
		}
	}
	return &Store{root: filepath.Clean(root)}, nil
}

// DefaultRoot resolves the standard cache root. XDG_CACHE_HOME overrides
// the parent directory.
func DefaultRoot() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(filepath.Clean(xdg), "thumbnails"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving cache root: %w", err)
	}
	return filepath.Join(home, ".cache", "thumbnails"), nil
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	return s.root
}

// ThumbnailPath returns the artifact path for src at the given size class.
// A src that already is a well-formed entry of that class comes back
// unchanged, which lets callers probe "is this file already a thumbnail"
// without rehashing.
func (s *Store) ThumbnailPath(src string, class domain.SizeClass) (string, error) {
	if !class.Valid() {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidInput, class.Name())
	}

	dir := filepath.Join(s.root, class.Name())
	if filepath.Dir(src) == dir && domain.ValidEntryName(filepath.Base(src)) {
		return src, nil
	}

	key, err := domain.CacheKey(src)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, key+".png"), nil
}

// FailurePath returns the failure-marker path for src under the app
// namespace.
func (s *Store) FailurePath(src, app string) (string, error) {
	if app == "" {
		return "", fmt.Errorf("%w: empty app name", domain.ErrInvalidInput)
	}

	key, err := domain.CacheKey(src)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, "fail", app, key+".png"), nil
}

// Stage creates the size-class directory if needed and returns a fresh
// temp file inside it.
func (s *Store) Stage(class domain.SizeClass) (string, error) {
	if !class.Valid() {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidInput, class.Name())
	}
	return s.stageIn(filepath.Join(s.root, class.Name()))
}

// StageFor returns a fresh temp file in final's directory, creating the
// directory tree with owner-only permissions.
func (s *Store) StageFor(final string) (string, error) {
	return s.stageIn(filepath.Dir(final))
}

// stageIn creates dir (idempotently, 0700) and a uniquely named 0600 temp
// file inside it. The UUID name keeps concurrent writers in independent
// processes from ever colliding. The .png suffix matters: external
// thumbnailer tools pick the output format from the extension.
func (s *Store) stageIn(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("creating cache directory: %w", err)
	}

	path := filepath.Join(dir, "tmp-"+uuid.NewString()+".png")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	return path, nil
}

// Adopt brings an externally produced artifact under the staging
// protocol. The returned temp path lives in final's directory and holds
// the artifact's contents; the original file is consumed.
func (s *Store) Adopt(artifact, final string) (string, error) {
	// The artifact already sits at the final path: move it aside to a
	// temp name before reprocessing, so a concurrent reader keeps seeing
	// a complete file and we never rewrite a published entry in place.
	if artifact == final {
		tmp, err := s.StageFor(final)
		if err != nil {
			return "", err
		}
		if err := os.Rename(artifact, tmp); err != nil {
			s.Discard(tmp)
			return "", fmt.Errorf("moving artifact aside: %w", err)
		}
		return tmp, nil
	}

	// Already in the final directory: it can serve as the staged temp.
	if filepath.Dir(artifact) == filepath.Dir(final) {
		return artifact, nil
	}

	tmp, err := s.StageFor(final)
	if err != nil {
		return "", err
	}
	if err := moveFile(artifact, tmp); err != nil {
		s.Discard(tmp)
		return "", fmt.Errorf("adopting artifact: %w", err)
	}
	return tmp, nil
}

// moveFile renames src over dest, falling back to copy-and-remove when
// the rename crosses filesystems.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dest, data, 0600); err != nil {
		return err
	}
	return os.Remove(src)
}

// Publish sets final permissions and atomically renames tmp over final.
// Rename replaces any existing artifact in a single filesystem operation,
// so a reader opening final sees either the complete previous artifact or
// the complete new one, never a partial write.
func (s *Store) Publish(tmp, final string) error {
	if err := os.Chmod(tmp, 0600); err != nil {
		return fmt.Errorf("setting artifact permissions: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("publishing artifact: %w", err)
	}
	return nil
}

// Discard removes a staged temp file that will not be published.
func (s *Store) Discard(tmp string) {
	_ = os.Remove(tmp)
}

// ResolveMtime returns the modification time to validate against, in
// integer seconds. An explicit value always wins; otherwise src must be
// a local file.
func (s *Store) ResolveMtime(src string, explicit *int64) (int64, error) {
	if explicit != nil {
		return *explicit, nil
	}

	path, ok := domain.LocalPath(src)
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnresolvableMtime, src)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)
	}
	return fi.ModTime().Unix(), nil
}
