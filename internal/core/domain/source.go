package domain

import (
	"crypto/md5" //nolint:gosec // Key derivation per the thumbnail spec, not security.
	"encoding/hex"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// uriPattern matches anything that already carries a URI scheme.
// Mirrors RFC 3986 scheme syntax: ALPHA *( ALPHA / DIGIT / "+" / "-" / "." ) ":".
var uriPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9.+-]*:`)

// NormalizeURI returns the canonical URI for a source reference.
//
// A reference that already carries a URI scheme is returned unchanged, so
// the function is idempotent. Anything else is treated as a local path,
// resolved to an absolute path and rendered as a percent-escaped file://
// URI. The result is byte-stable for a given input: the same reference
// always yields the same URI, which is what makes cache keys reproducible
// across runs and across applications sharing the cache.
func NormalizeURI(src string) (string, error) {
	if src == "" {
		return "", ErrInvalidInput
	}
	if uriPattern.MatchString(src) {
		return src, nil
	}

	abs, err := filepath.Abs(src)
	if err != nil {
		return "", err
	}

	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

// CacheKey returns the 32-hex-digit digest naming the cache entry for src.
// It is the MD5 of the normalised URI's UTF-8 bytes, per the freedesktop
// thumbnail spec. Identical sources always map to the same key.
func CacheKey(src string) (string, error) {
	uri, err := NormalizeURI(src)
	if err != nil {
		return "", err
	}

	sum := md5.Sum([]byte(uri)) //nolint:gosec // Spec-mandated hash.
	return hex.EncodeToString(sum[:]), nil
}

// entryName matches a well-formed cache entry file name: the
// 32-hex-digit cache key plus the .png extension.
var entryName = regexp.MustCompile(`^[0-9a-fA-F]{32}\.png$`)

// ValidEntryName reports whether name is a well-formed cache entry
// file name.
func ValidEntryName(name string) bool {
	return entryName.MatchString(name)
}

// LocalPath maps a source reference to a local filesystem path.
// Bare paths pass through unchanged; file:// URIs are unescaped.
// Returns false for any other scheme (http, ftp, ...), which cannot
// be read from the local filesystem.
func LocalPath(src string) (string, bool) {
	if !uriPattern.MatchString(src) {
		return src, true
	}
	if !strings.HasPrefix(src, "file://") {
		return "", false
	}

	path := strings.TrimPrefix(src, "file://")
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	return filepath.FromSlash(path), true
}
