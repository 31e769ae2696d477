package driven

import "github.com/custodia-labs/thumbcache/internal/core/domain"

// MetadataCodec reads and writes the text key/value metadata embedded in
// artifact files. The engine never inspects pixel data; the codec is its
// only view into an artifact's contents.
type MetadataCodec interface {
	// ReadInfo parses the embedded metadata of an artifact. It fails with
	// domain.ErrMetadataRejected (possibly wrapped) when the file is not a
	// parseable artifact or lacks the mandatory identity pair.
	ReadInfo(path string) (domain.ThumbnailInfo, error)

	// Update rewrites path in place with the given key/value pairs
	// embedded, preserving existing pixel data and any metadata keys not
	// being replaced. Callers only ever point it at staged temp files.
	Update(path string, pairs map[string]string) error

	// WriteBlank writes a minimal placeholder artifact carrying only
	// metadata to path. Used for failure markers.
	WriteBlank(path string, pairs map[string]string) error
}
