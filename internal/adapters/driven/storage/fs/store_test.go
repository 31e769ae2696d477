package fs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/thumbcache/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestDefaultRoot_XDGOverride(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")

	root, err := DefaultRoot()
	require.NoError(t, err)
	assert.Equal(t, "/custom/cache/thumbnails", root)
}

func TestDefaultRoot_HomeFallback(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	root, err := DefaultRoot()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".cache", "thumbnails"), root)
}

func TestThumbnailPath_Layout(t *testing.T) {
	store := newTestStore(t)

	key, err := domain.CacheKey("/tmp/rose.png")
	require.NoError(t, err)

	for _, class := range domain.Classes() {
		path, err := store.ThumbnailPath("/tmp/rose.png", class)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(store.Root(), class.Name(), key+".png"), path)
	}
}

func TestThumbnailPath_AlreadyAThumbnail(t *testing.T) {
	store := newTestStore(t)

	existing := filepath.Join(store.Root(), "large", "0123456789abcdef0123456789abcdef.png")
	path, err := store.ThumbnailPath(existing, domain.SizeLarge)
	require.NoError(t, err)
	assert.Equal(t, existing, path)

	// A file in the size dir that does not match the naming pattern is
	// treated as an ordinary source.
	stray := filepath.Join(store.Root(), "large", "notathumbnail.png")
	path, err = store.ThumbnailPath(stray, domain.SizeLarge)
	require.NoError(t, err)
	assert.NotEqual(t, stray, path)

	// A well-formed entry of another size class is also an ordinary source.
	path, err = store.ThumbnailPath(existing, domain.SizeNormal)
	require.NoError(t, err)
	assert.NotEqual(t, existing, path)
	assert.Contains(t, path, filepath.Join(store.Root(), "normal"))
}

func TestFailurePath(t *testing.T) {
	store := newTestStore(t)

	key, err := domain.CacheKey("/tmp/rose.png")
	require.NoError(t, err)

	path, err := store.FailurePath("/tmp/rose.png", "myapp-1.0")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Root(), "fail", "myapp-1.0", key+".png"), path)

	_, err = store.FailurePath("/tmp/rose.png", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStage_CreatesRestrictedTempFile(t *testing.T) {
	store := newTestStore(t)

	tmp, err := store.Stage(domain.SizeLarge)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Root(), "large"), filepath.Dir(tmp))

	fi, err := os.Stat(tmp)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), fi.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(tmp))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())

	// Staging twice never collides.
	tmp2, err := store.Stage(domain.SizeLarge)
	require.NoError(t, err)
	assert.NotEqual(t, tmp, tmp2)
}

func TestStageFor_SameDirectoryAsFinal(t *testing.T) {
	store := newTestStore(t)

	final, err := store.ThumbnailPath("/tmp/rose.png", domain.SizeNormal)
	require.NoError(t, err)

	tmp, err := store.StageFor(final)
	require.NoError(t, err)
	// Same directory, so the publish rename stays on one filesystem.
	assert.Equal(t, filepath.Dir(final), filepath.Dir(tmp))
}

func TestPublish_ReplacesAtomically(t *testing.T) {
	store := newTestStore(t)

	final, err := store.ThumbnailPath("/tmp/rose.png", domain.SizeNormal)
	require.NoError(t, err)

	tmp, err := store.StageFor(final)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(tmp, []byte("first"), 0600))
	require.NoError(t, store.Publish(tmp, final))

	data, err := os.ReadFile(final)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
	assert.NoFileExists(t, tmp)

	// Republishing replaces the whole file.
	tmp2, err := store.StageFor(final)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(tmp2, []byte("second"), 0600))
	require.NoError(t, store.Publish(tmp2, final))

	data, err = os.ReadFile(final)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	fi, err := os.Stat(final)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), fi.Mode().Perm())
}

func TestAdopt_ArtifactAtFinalPath(t *testing.T) {
	store := newTestStore(t)

	final, err := store.ThumbnailPath("/tmp/rose.png", domain.SizeLarge)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(final), 0700))
	require.NoError(t, os.WriteFile(final, []byte("already here"), 0600))

	tmp, err := store.Adopt(final, final)
	require.NoError(t, err)
	assert.NotEqual(t, final, tmp)
	assert.Equal(t, filepath.Dir(final), filepath.Dir(tmp))
	assert.NoFileExists(t, final)

	data, err := os.ReadFile(tmp)
	require.NoError(t, err)
	assert.Equal(t, "already here", string(data))
}

func TestAdopt_ArtifactInFinalDirectory(t *testing.T) {
	store := newTestStore(t)

	final, err := store.ThumbnailPath("/tmp/rose.png", domain.SizeLarge)
	require.NoError(t, err)

	staged, err := store.StageFor(final)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(staged, []byte("staged"), 0600))

	tmp, err := store.Adopt(staged, final)
	require.NoError(t, err)
	assert.Equal(t, staged, tmp)
}

func TestAdopt_ArtifactElsewhere(t *testing.T) {
	store := newTestStore(t)

	artifact := filepath.Join(t.TempDir(), "made-elsewhere.png")
	require.NoError(t, os.WriteFile(artifact, []byte("elsewhere"), 0600))

	final, err := store.ThumbnailPath("/tmp/rose.png", domain.SizeLarge)
	require.NoError(t, err)

	tmp, err := store.Adopt(artifact, final)
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(final), filepath.Dir(tmp))
	assert.NoFileExists(t, artifact)

	data, err := os.ReadFile(tmp)
	require.NoError(t, err)
	assert.Equal(t, "elsewhere", string(data))
}

func TestDiscard(t *testing.T) {
	store := newTestStore(t)

	tmp, err := store.Stage(domain.SizeNormal)
	require.NoError(t, err)
	store.Discard(tmp)
	assert.NoFileExists(t, tmp)

	// Discarding twice is harmless.
	store.Discard(tmp)
}

func TestResolveMtime_Explicit(t *testing.T) {
	store := newTestStore(t)

	explicit := int64(123456)
	mtime, err := store.ResolveMtime("http://example.com/a.png", &explicit)
	require.NoError(t, err)
	assert.Equal(t, int64(123456), mtime)
}

func TestResolveMtime_LocalFile(t *testing.T) {
	store := newTestStore(t)

	src := filepath.Join(t.TempDir(), "source.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0600))
	stamp := time.Unix(1700000000, 0)
	require.NoError(t, os.Chtimes(src, stamp, stamp))

	mtime, err := store.ResolveMtime(src, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), mtime)

	// file:// URIs resolve the same way.
	uri, err := domain.NormalizeURI(src)
	require.NoError(t, err)
	mtime, err = store.ResolveMtime(uri, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), mtime)
}

func TestResolveMtime_NonLocalWithoutExplicit(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ResolveMtime("http://example.com/a.png", nil)
	assert.ErrorIs(t, err, domain.ErrUnresolvableMtime)
}

func TestResolveMtime_MissingLocalFile(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ResolveMtime(filepath.Join(t.TempDir(), "nope.txt"), nil)
	assert.ErrorIs(t, err, domain.ErrSourceUnreadable)
}
