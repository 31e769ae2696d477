package png

import (
	"bytes"
	"image"
	"image/color"
	stdpng "image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/thumbcache/internal/core/domain"
)

// writeTestPNG encodes a small solid image to path.
func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, stdpng.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0600))
}

func TestUpdateAndReadInfo_RoundTrip(t *testing.T) {
	codec := New()
	path := filepath.Join(t.TempDir(), "thumb.png")
	writeTestPNG(t, path, 4, 4)

	pairs := map[string]string{
		domain.KeyURI:   "file:///tmp/rose.png",
		domain.KeyMTime: "1700000000",
		domain.KeyWidth: "640",
	}
	require.NoError(t, codec.Update(path, pairs))

	info, err := codec.ReadInfo(path)
	require.NoError(t, err)
	assert.Equal(t, "file:///tmp/rose.png", info.URI)
	assert.Equal(t, int64(1700000000), info.MTime)
	assert.Equal(t, "640", info.Extra[domain.KeyWidth])
}

func TestUpdate_PreservesPixelData(t *testing.T) {
	codec := New()
	path := filepath.Join(t.TempDir(), "thumb.png")
	writeTestPNG(t, path, 3, 2)

	require.NoError(t, codec.Update(path, map[string]string{
		domain.KeyURI:   "file:///tmp/a.png",
		domain.KeyMTime: "42",
	}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := stdpng.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())

	r, g, b, a := img.At(1, 1).RGBA()
	assert.Equal(t, uint32(200), r>>8)
	assert.Equal(t, uint32(100), g>>8)
	assert.Equal(t, uint32(50), b>>8)
	assert.Equal(t, uint32(255), a>>8)
}

func TestUpdate_ReplacesExistingKeys(t *testing.T) {
	codec := New()
	path := filepath.Join(t.TempDir(), "thumb.png")
	writeTestPNG(t, path, 2, 2)

	require.NoError(t, codec.Update(path, map[string]string{
		domain.KeyURI:   "file:///tmp/old.png",
		domain.KeyMTime: "1",
		domain.KeySize:  "100",
	}))
	require.NoError(t, codec.Update(path, map[string]string{
		domain.KeyURI:   "file:///tmp/new.png",
		domain.KeyMTime: "2",
	}))

	info, err := codec.ReadInfo(path)
	require.NoError(t, err)
	assert.Equal(t, "file:///tmp/new.png", info.URI)
	assert.Equal(t, int64(2), info.MTime)
	// Untouched keys survive the rewrite.
	assert.Equal(t, "100", info.Extra[domain.KeySize])
}

func TestUpdate_NonLatin1ValueRoundTrips(t *testing.T) {
	codec := New()
	path := filepath.Join(t.TempDir(), "thumb.png")
	writeTestPNG(t, path, 2, 2)

	require.NoError(t, codec.Update(path, map[string]string{
		domain.KeyURI:      "file:///tmp/été-世界.png",
		domain.KeyMTime:    "7",
		domain.KeyMimetype: "image/png",
	}))

	info, err := codec.ReadInfo(path)
	require.NoError(t, err)
	assert.Equal(t, "file:///tmp/été-世界.png", info.URI)
	assert.Equal(t, "image/png", info.Extra[domain.KeyMimetype])
}

func TestWriteBlank(t *testing.T) {
	codec := New()
	path := filepath.Join(t.TempDir(), "fail.png")

	require.NoError(t, codec.WriteBlank(path, map[string]string{
		domain.KeyURI:   "file:///tmp/broken.bin",
		domain.KeyMTime: "1700000001",
	}))

	// The marker is a real, decodable PNG.
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := stdpng.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 1, img.Bounds().Dx())
	assert.Equal(t, 1, img.Bounds().Dy())

	info, err := codec.ReadInfo(path)
	require.NoError(t, err)
	assert.Equal(t, "file:///tmp/broken.bin", info.URI)
	assert.Equal(t, int64(1700000001), info.MTime)
}

func TestReadInfo_MissingIdentity(t *testing.T) {
	codec := New()
	path := filepath.Join(t.TempDir(), "plain.png")
	writeTestPNG(t, path, 2, 2)

	_, err := codec.ReadInfo(path)
	assert.ErrorIs(t, err, domain.ErrMetadataRejected)
}

func TestReadInfo_BadMTime(t *testing.T) {
	codec := New()
	path := filepath.Join(t.TempDir(), "thumb.png")
	writeTestPNG(t, path, 2, 2)

	require.NoError(t, codec.Update(path, map[string]string{
		domain.KeyURI:   "file:///tmp/a.png",
		domain.KeyMTime: "not-a-number",
	}))

	_, err := codec.ReadInfo(path)
	assert.ErrorIs(t, err, domain.ErrMetadataRejected)
}

func TestReadInfo_NotAPNG(t *testing.T) {
	codec := New()
	path := filepath.Join(t.TempDir(), "junk.png")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a png"), 0600))

	_, err := codec.ReadInfo(path)
	assert.ErrorIs(t, err, domain.ErrMetadataRejected)
}

func TestReadInfo_TruncatedFile(t *testing.T) {
	codec := New()
	dir := t.TempDir()
	path := filepath.Join(dir, "thumb.png")
	writeTestPNG(t, path, 2, 2)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	truncated := filepath.Join(dir, "truncated.png")
	require.NoError(t, os.WriteFile(truncated, data[:len(data)-10], 0600))

	_, err = codec.ReadInfo(truncated)
	assert.ErrorIs(t, err, domain.ErrMetadataRejected)
}

func TestReadInfo_MissingFile(t *testing.T) {
	codec := New()
	_, err := codec.ReadInfo(filepath.Join(t.TempDir(), "nope.png"))
	assert.ErrorIs(t, err, domain.ErrMetadataRejected)
}

func TestUpdate_InvalidKeyRejected(t *testing.T) {
	codec := New()
	path := filepath.Join(t.TempDir(), "thumb.png")
	writeTestPNG(t, path, 2, 2)

	err := codec.Update(path, map[string]string{"": "empty keyword"})
	assert.ErrorIs(t, err, domain.ErrMetadataRejected)
}
