package domain

import "strconv"

// Metadata keys embedded as text key/value pairs in thumbnail files,
// as named by the freedesktop thumbnail spec. KeyURI and KeyMTime are
// mandatory in every artifact; the rest are optional.
const (
	KeyURI         = "Thumb::URI"
	KeyMTime       = "Thumb::MTime"
	KeyWidth       = "Thumb::Image::Width"
	KeyHeight      = "Thumb::Image::Height"
	KeySize        = "Thumb::Size"
	KeyMimetype    = "Thumb::Mimetype"
	KeyDocPages    = "Thumb::Document::Pages"
	KeyMovieLength = "Thumb::Movie::Length"
)

// ThumbnailInfo is the metadata record carried inside a cached artifact.
// URI and MTime are the identity pair every entry must carry; Extra holds
// any optional keys found alongside them.
type ThumbnailInfo struct {
	// URI is the normalised URI of the source artifact.
	URI string

	// MTime is the source's modification time in integer seconds.
	MTime int64

	// Extra contains the optional metadata keys (width, height, ...).
	Extra map[string]string
}

// Pairs flattens the record into the key/value form written to disk.
// The identity pair always wins over same-named entries in Extra.
func (i ThumbnailInfo) Pairs() map[string]string {
	pairs := make(map[string]string, len(i.Extra)+2)
	for k, v := range i.Extra {
		pairs[k] = v
	}
	pairs[KeyURI] = i.URI
	pairs[KeyMTime] = strconv.FormatInt(i.MTime, 10)
	return pairs
}

// Category tags the kind of source a backend can handle.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryVideo    Category = "video"
	CategoryDocument Category = "document"
	CategoryMisc     Category = "misc"
)

// ParseCategory validates a category label.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryImage, CategoryVideo, CategoryDocument, CategoryMisc:
		return c, nil
	default:
		return "", ErrInvalidInput
	}
}
