// Package native implements the in-process image thumbnailer. It decodes
// with the standard image codecs plus the golang.org/x/image formats and
// scales with Catmull-Rom interpolation.
package native

import (
	"context"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"

	// Registered decoders. PNG is imported for its encoder as well.
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/custodia-labs/thumbcache/internal/core/domain"
	"github.com/custodia-labs/thumbcache/internal/core/ports/driven"
)

// Ensure Thumbnailer implements the interface.
var _ driven.Thumbnailer = (*Thumbnailer)(nil)

// Thumbnailer renders image files without spawning external processes.
type Thumbnailer struct{}

// New creates the native image thumbnailer.
func New() *Thumbnailer {
	return &Thumbnailer{}
}

// Name identifies the backend in logs.
func (t *Thumbnailer) Name() string {
	return "native"
}

// Available always reports true: the decoders are compiled in.
func (t *Thumbnailer) Available() bool {
	return true
}

// Accepts claims all image types. The empty string is accepted too:
// when sniffing is inconclusive a decode attempt is still worth making,
// and a non-image fails cleanly.
func (t *Thumbnailer) Accepts(mime string) bool {
	return mime == "" || strings.HasPrefix(mime, "image/")
}

// Categories returns the capability tags for registry filtering.
func (t *Thumbnailer) Categories() []domain.Category {
	return []domain.Category{domain.CategoryImage}
}

// Create decodes src, scales it to fit within pixels, and encodes the
// result as PNG into dest. The returned metadata carries the source
// image's dimensions.
func (t *Thumbnailer) Create(ctx context.Context, src, dest string, pixels int) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecodeFailed, err)
	}

	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecodeFailed, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecodeFailed, err)
	}

	bounds := img.Bounds()
	scaled := scaleToFit(img, pixels)

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecodeFailed, err)
	}
	defer out.Close()

	if err := png.Encode(out, scaled); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecodeFailed, err)
	}

	return map[string]string{
		domain.KeyWidth:  strconv.Itoa(bounds.Dx()),
		domain.KeyHeight: strconv.Itoa(bounds.Dy()),
	}, nil
}

// scaleToFit shrinks img so both dimensions fit within limit, preserving
// aspect ratio. Images already within the limit are returned unscaled;
// thumbnails never upscale.
func scaleToFit(img image.Image, limit int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= limit && h <= limit {
		return img
	}

	tw, th := w, h
	if w >= h {
		tw = limit
		th = max(h*limit/w, 1)
	} else {
		th = limit
		tw = max(w*limit/h, 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}
