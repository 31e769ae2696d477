package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/custodia-labs/thumbcache/internal/core/domain"
	"github.com/custodia-labs/thumbcache/internal/core/ports/driven"
	"github.com/custodia-labs/thumbcache/internal/core/ports/driving"
	"github.com/custodia-labs/thumbcache/internal/logger"
	"github.com/custodia-labs/thumbcache/internal/thumbnailers"
)

// Ensure Cache implements the interface.
var _ driving.CacheService = (*Cache)(nil)

// Cache is the public API of the thumbnail cache engine. It composes the
// store (paths, staging, atomic publish), the metadata codec (validity)
// and the backend registry (generation) into the read and write paths.
//
// The engine holds no locks: every mutation goes through the store's
// stage-then-rename protocol, so independent processes sharing a cache
// root can race benignly. Whichever publish lands last wins, and both
// artifacts carry the same identity pair.
type Cache struct {
	store    driven.Store
	codec    driven.MetadataCodec
	registry driven.ThumbnailerRegistry

	filterMIME bool
	categories []domain.Category
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithMIMEFilter toggles MIME filtering of backends during dispatch.
// When enabled, a backend is only invoked if it accepts the source's
// sniffed type. A backend that declines is a skip, not an exhaustion:
// the dispatcher moves on to the next one.
func WithMIMEFilter(enabled bool) CacheOption {
	return func(c *Cache) { c.filterMIME = enabled }
}

// WithCategories narrows dispatch to backends whose category set
// intersects the given tags. No tags means every backend is a candidate.
func WithCategories(categories ...domain.Category) CacheOption {
	return func(c *Cache) { c.categories = categories }
}

// NewCache creates the cache service. The registry is injected rather
// than global so concurrent callers can use independent backend lists.
func NewCache(store driven.Store, codec driven.MetadataCodec, registry driven.ThumbnailerRegistry, opts ...CacheOption) *Cache {
	c := &Cache{
		store:      store,
		codec:      codec,
		registry:   registry,
		filterMIME: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LookupOnly returns a valid cached thumbnail path, or "" on a miss.
// It never generates and never touches failure markers. With a nil size
// every class is probed largest first; a bigger thumbnail is a safe
// superset for display.
func (c *Cache) LookupOnly(src string, size *domain.SizeClass, mtime *int64) (string, error) {
	uri, err := domain.NormalizeURI(src)
	if err != nil {
		return "", err
	}

	resolved, err := c.store.ResolveMtime(src, mtime)
	if err != nil {
		return "", err
	}

	classes := domain.ClassesDescending()
	if size != nil {
		classes = []domain.SizeClass{*size}
	}

	for _, class := range classes {
		path, err := c.store.ThumbnailPath(src, class)
		if err != nil {
			return "", err
		}

		// The query source is itself a cache entry: return it as-is.
		// Its embedded URI describes the original source, so the
		// validity check would never match and is bypassed.
		if path == src {
			if _, statErr := os.Stat(src); statErr == nil {
				return src, nil
			}
			continue
		}

		if c.valid(path, uri, resolved) {
			return path, nil
		}
	}
	return "", nil
}

// GetOrCreate returns a valid cached thumbnail, generating one on a miss.
func (c *Cache) GetOrCreate(ctx context.Context, src string, size *domain.SizeClass, app string) (string, error) {
	path, err := c.LookupOnly(src, size, nil)
	if err != nil {
		if errors.Is(err, domain.ErrSourceUnreadable) {
			logger.Debug("source unreadable: %s", src)
			return "", nil
		}
		return "", err
	}
	if path != "" {
		return path, nil
	}

	if app != "" {
		failed, err := c.IsMarkedFailed(src, app, nil)
		if err != nil {
			return "", err
		}
		if failed {
			logger.Debug("generation suppressed by failure marker: app=%s src=%s", app, src)
			return "", nil
		}
	}

	class := domain.SizeLarge
	if size != nil {
		class = *size
	}
	return c.generate(ctx, src, class, app)
}

// StoreExternallyGenerated pushes a collaborator-produced artifact
// through the atomic publish path, stamping the identity pair. The
// artifact file is consumed whether or not the call succeeds.
func (c *Cache) StoreExternallyGenerated(src string, size domain.SizeClass, artifact string, mtime *int64, extra map[string]string) (string, error) {
	uri, err := domain.NormalizeURI(src)
	if err != nil {
		return "", err
	}
	resolved, err := c.store.ResolveMtime(src, mtime)
	if err != nil {
		return "", err
	}
	dest, err := c.store.ThumbnailPath(src, size)
	if err != nil {
		return "", err
	}

	tmp, err := c.store.Adopt(artifact, dest)
	if err != nil {
		return "", err
	}

	info := domain.ThumbnailInfo{URI: uri, MTime: resolved, Extra: extra}
	if err := c.codec.Update(tmp, info.Pairs()); err != nil {
		c.store.Discard(tmp)
		return "", fmt.Errorf("stamping artifact metadata: %w", err)
	}

	if err := c.store.Publish(tmp, dest); err != nil {
		c.store.Discard(tmp)
		return "", err
	}
	return dest, nil
}

// RecordFailure publishes a failure marker for src under the app
// namespace and returns the marker path.
func (c *Cache) RecordFailure(src, app string, mtime *int64, extra map[string]string) (string, error) {
	uri, err := domain.NormalizeURI(src)
	if err != nil {
		return "", err
	}
	resolved, err := c.store.ResolveMtime(src, mtime)
	if err != nil {
		return "", err
	}
	dest, err := c.store.FailurePath(src, app)
	if err != nil {
		return "", err
	}

	tmp, err := c.store.StageFor(dest)
	if err != nil {
		return "", err
	}

	info := domain.ThumbnailInfo{URI: uri, MTime: resolved, Extra: extra}
	if err := c.codec.WriteBlank(tmp, info.Pairs()); err != nil {
		c.store.Discard(tmp)
		return "", fmt.Errorf("writing failure marker: %w", err)
	}

	if err := c.store.Publish(tmp, dest); err != nil {
		c.store.Discard(tmp)
		return "", err
	}
	return dest, nil
}

// IsMarkedFailed reports whether a failure marker valid for the source's
// mtime exists under the app namespace. A marker under one app name
// never affects another: each namespace fails independently.
func (c *Cache) IsMarkedFailed(src, app string, mtime *int64) (bool, error) {
	uri, err := domain.NormalizeURI(src)
	if err != nil {
		return false, err
	}
	resolved, err := c.store.ResolveMtime(src, mtime)
	if err != nil {
		return false, err
	}
	path, err := c.store.FailurePath(src, app)
	if err != nil {
		return false, err
	}
	return c.valid(path, uri, resolved), nil
}

// valid reports whether the artifact at path matches the expected
// identity exactly: string equality on the URI, integer equality on the
// mtime. Every parse problem means "invalid", never an error; a corrupt
// entry is simply regenerated.
func (c *Cache) valid(path, uri string, mtime int64) bool {
	info, err := c.codec.ReadInfo(path)
	if err != nil {
		return false
	}
	return info.URI == uri && info.MTime == mtime
}

// generate runs the ordered backend list until one produces an artifact,
// publishes the winner, and memoises total failure under the app
// namespace when one is given.
func (c *Cache) generate(ctx context.Context, src string, class domain.SizeClass, app string) (string, error) {
	localPath, ok := domain.LocalPath(src)
	if !ok {
		// Non-local sources cannot be generated here; collaborators use
		// StoreExternallyGenerated instead.
		logger.Debug("not a local source, skipping generation: %s", src)
		return "", nil
	}

	fi, err := os.Stat(localPath)
	if err != nil {
		logger.Debug("source unreadable: %s", src)
		return "", nil
	}

	uri, err := domain.NormalizeURI(src)
	if err != nil {
		return "", err
	}
	mtime, err := c.store.ResolveMtime(src, nil)
	if err != nil {
		return "", err
	}
	dest, err := c.store.ThumbnailPath(src, class)
	if err != nil {
		return "", err
	}

	var mime string
	if c.filterMIME {
		mime = thumbnailers.DetectMIME(localPath)
	}

	for _, backend := range c.registry.Select(c.categories...) {
		if !backend.Available() {
			logger.Debug("backend %s unavailable, skipping", backend.Name())
			continue
		}
		if c.filterMIME && !backend.Accepts(mime) {
			logger.Debug("backend %s declines %q, skipping", backend.Name(), mime)
			continue
		}

		tmp, err := c.store.StageFor(dest)
		if err != nil {
			return "", err
		}

		meta, err := backend.Create(ctx, localPath, tmp, class.Pixels())
		if err != nil {
			c.store.Discard(tmp)
			logger.Debug("backend %s failed: %v", backend.Name(), err)
			continue
		}

		// The identity pair is always stamped here, never taken from the
		// backend: a misbehaving backend cannot corrupt cache identity.
		info := domain.ThumbnailInfo{URI: uri, MTime: mtime, Extra: c.stampExtra(meta, fi.Size(), mime)}
		if err := c.codec.Update(tmp, info.Pairs()); err != nil {
			c.store.Discard(tmp)
			logger.Warn("backend %s produced an unstampable artifact: %v", backend.Name(), err)
			continue
		}

		if err := c.store.Publish(tmp, dest); err != nil {
			c.store.Discard(tmp)
			return "", err
		}
		logger.Debug("backend %s produced %s", backend.Name(), dest)
		return dest, nil
	}

	if app != "" {
		if _, err := c.RecordFailure(src, app, &mtime, nil); err != nil {
			return "", err
		}
	}
	return "", nil
}

// stampExtra merges backend metadata with the dispatcher-known optional
// keys. Backend values win for their own keys (dimensions, duration);
// the dispatcher fills in source byte size and MIME type.
func (c *Cache) stampExtra(meta map[string]string, size int64, mime string) map[string]string {
	extra := make(map[string]string, len(meta)+2)
	extra[domain.KeySize] = strconv.FormatInt(size, 10)
	if mime != "" {
		extra[domain.KeyMimetype] = mime
	}
	for k, v := range meta {
		extra[k] = v
	}
	return extra
}
