// Package png implements the artifact metadata codec for PNG thumbnails.
//
// The freedesktop thumbnail spec stores cache metadata as PNG text chunks
// (tEXt, or iTXt for values outside Latin-1). The codec splices and reads
// those chunks directly, without decoding pixel data, so reading validity
// information from a thumbnail stays cheap.
package png

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	stdpng "image/png"
	"os"
	"sort"
	"strconv"

	"github.com/custodia-labs/thumbcache/internal/core/domain"
	"github.com/custodia-labs/thumbcache/internal/core/ports/driven"
)

// pngSignature is the fixed 8-byte PNG file header.
var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Ensure Codec implements the interface.
var _ driven.MetadataCodec = (*Codec)(nil)

// Codec reads and writes text metadata embedded in PNG artifacts.
type Codec struct{}

// New creates a new PNG metadata codec.
func New() *Codec {
	return &Codec{}
}

// ReadInfo parses the embedded metadata of a PNG artifact. Any structural
// problem, or a missing or malformed identity pair, is reported as
// domain.ErrMetadataRejected; callers treat that as "entry invalid".
func (c *Codec) ReadInfo(path string) (domain.ThumbnailInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ThumbnailInfo{}, fmt.Errorf("%w: %v", domain.ErrMetadataRejected, err)
	}

	pairs := make(map[string]string)
	err = walkChunks(data, func(typ string, payload []byte) error {
		if key, value, ok := decodeTextChunk(typ, payload); ok {
			pairs[key] = value
		}
		return nil
	})
	if err != nil {
		return domain.ThumbnailInfo{}, fmt.Errorf("%w: %v", domain.ErrMetadataRejected, err)
	}

	uri, ok := pairs[domain.KeyURI]
	if !ok || uri == "" {
		return domain.ThumbnailInfo{}, fmt.Errorf("%w: missing %s", domain.ErrMetadataRejected, domain.KeyURI)
	}
	mtimeStr, ok := pairs[domain.KeyMTime]
	if !ok {
		return domain.ThumbnailInfo{}, fmt.Errorf("%w: missing %s", domain.ErrMetadataRejected, domain.KeyMTime)
	}
	mtime, err := strconv.ParseInt(mtimeStr, 10, 64)
	if err != nil {
		return domain.ThumbnailInfo{}, fmt.Errorf("%w: bad %s %q", domain.ErrMetadataRejected, domain.KeyMTime, mtimeStr)
	}

	extra := make(map[string]string, len(pairs))
	for k, v := range pairs {
		if k != domain.KeyURI && k != domain.KeyMTime {
			extra[k] = v
		}
	}

	return domain.ThumbnailInfo{URI: uri, MTime: mtime, Extra: extra}, nil
}

// Update rewrites the PNG at path with the given pairs embedded. Existing
// text chunks for the same keywords are dropped; all other chunks,
// including pixel data, pass through untouched.
func (c *Codec) Update(path string, pairs map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMetadataRejected, err)
	}

	out, err := spliceText(data, pairs)
	if err != nil {
		return err
	}

	return os.WriteFile(path, out, 0600)
}

// WriteBlank writes a 1x1 transparent PNG carrying only the given pairs.
// Failure markers use it so a marker is a real artifact in the standard
// format, readable by every other implementation.
func (c *Codec) WriteBlank(path string, pairs map[string]string) error {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{})
	if err := stdpng.Encode(&buf, img); err != nil {
		return fmt.Errorf("encoding placeholder: %w", err)
	}

	out, err := spliceText(buf.Bytes(), pairs)
	if err != nil {
		return err
	}

	return os.WriteFile(path, out, 0600)
}

// walkChunks validates the PNG structure and calls fn for every chunk
// until IEND. CRCs are verified so a truncated or corrupted artifact is
// rejected rather than half-parsed.
func walkChunks(data []byte, fn func(typ string, payload []byte) error) error {
	if !bytes.HasPrefix(data, pngSignature) {
		return fmt.Errorf("not a PNG file")
	}

	rest := data[len(pngSignature):]
	for len(rest) > 0 {
		if len(rest) < 8 {
			return fmt.Errorf("truncated chunk header")
		}
		length := binary.BigEndian.Uint32(rest[:4])
		if uint64(len(rest)) < 12+uint64(length) {
			return fmt.Errorf("truncated chunk data")
		}
		typ := string(rest[4:8])
		payload := rest[8 : 8+length]
		want := binary.BigEndian.Uint32(rest[8+length : 12+length])
		if crc32.ChecksumIEEE(rest[4:8+length]) != want {
			return fmt.Errorf("chunk %s: bad CRC", typ)
		}

		if err := fn(typ, payload); err != nil {
			return err
		}
		if typ == "IEND" {
			return nil
		}
		rest = rest[12+length:]
	}
	return fmt.Errorf("missing IEND chunk")
}

// decodeTextChunk extracts a key/value pair from a tEXt or uncompressed
// iTXt chunk. Compressed text chunks are skipped; the engine never writes
// them and their absence only loses optional keys.
func decodeTextChunk(typ string, payload []byte) (key, value string, ok bool) {
	switch typ {
	case "tEXt":
		i := bytes.IndexByte(payload, 0)
		if i < 1 {
			return "", "", false
		}
		return latin1ToString(payload[:i]), latin1ToString(payload[i+1:]), true

	case "iTXt":
		i := bytes.IndexByte(payload, 0)
		if i < 1 || len(payload) < i+3 {
			return "", "", false
		}
		key = string(payload[:i])
		if payload[i+1] != 0 { // compression flag
			return "", "", false
		}
		rest := payload[i+3:]
		// Skip language tag and translated keyword.
		for n := 0; n < 2; n++ {
			j := bytes.IndexByte(rest, 0)
			if j < 0 {
				return "", "", false
			}
			rest = rest[j+1:]
		}
		return key, string(rest), true
	}
	return "", "", false
}

// spliceText returns data with text chunks for pairs inserted before IEND,
// dropping any existing text chunks that carry the same keywords.
func spliceText(data []byte, pairs map[string]string) ([]byte, error) {
	encoded, err := encodeTextChunks(pairs)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Write(pngSignature)
	err = walkChunks(data, func(typ string, payload []byte) error {
		if key, _, ok := decodeTextChunk(typ, payload); ok {
			if _, replaced := pairs[key]; replaced {
				return nil
			}
		}
		if typ == "IEND" {
			out.Write(encoded)
		}
		writeChunk(&out, typ, payload)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMetadataRejected, err)
	}
	return out.Bytes(), nil
}

// encodeTextChunks renders pairs as tEXt chunks, or iTXt when the value
// does not fit Latin-1. Keys are written in sorted order so output is
// deterministic.
func encodeTextChunks(pairs map[string]string) ([]byte, error) {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, key := range keys {
		if len(key) == 0 || len(key) > 79 || !isLatin1(key) {
			return nil, fmt.Errorf("%w: invalid metadata key %q", domain.ErrMetadataRejected, key)
		}
		value := pairs[key]

		if isLatin1(value) {
			payload := append(stringToLatin1(key), 0)
			payload = append(payload, stringToLatin1(value)...)
			writeChunk(&buf, "tEXt", payload)
			continue
		}

		// keyword \0 compressionflag \0method \0langtag \0translated text
		payload := append([]byte(key), 0, 0, 0, 0, 0)
		payload = append(payload, []byte(value)...)
		writeChunk(&buf, "iTXt", payload)
	}
	return buf.Bytes(), nil
}

func writeChunk(buf *bytes.Buffer, typ string, payload []byte) {
	var header [8]byte
	binary.BigEndian.PutUint32(header[:4], uint32(len(payload)))
	copy(header[4:], typ)
	buf.Write(header[:])
	buf.Write(payload)

	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(payload)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	buf.Write(sum[:])
}

func isLatin1(s string) bool {
	for _, r := range s {
		if r > 0xFF {
			return false
		}
	}
	return true
}

func latin1ToString(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

func stringToLatin1(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		out = append(out, byte(r))
	}
	return out
}
