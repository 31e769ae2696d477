package thumbnailers

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DetectMIME determines the MIME type of a local file. Magic-byte
// sniffing takes precedence because extensions are untrustworthy; the
// extension table is the fallback when sniffing fails or is inconclusive.
// Returns "" when the type cannot be determined.
func DetectMIME(path string) string {
	if mt, err := mimetype.DetectFile(path); err == nil {
		detected := mt.String()
		// Strip parameters such as "; charset=utf-8".
		if i := strings.IndexByte(detected, ';'); i >= 0 {
			detected = strings.TrimSpace(detected[:i])
		}
		if detected != "" && detected != "application/octet-stream" {
			return detected
		}
	}

	if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
		if i := strings.IndexByte(byExt, ';'); i >= 0 {
			byExt = strings.TrimSpace(byExt[:i])
		}
		return byExt
	}
	return ""
}
