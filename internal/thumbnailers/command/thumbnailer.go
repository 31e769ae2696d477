// Package command implements the external-tool thumbnailer backend. Each
// instance wraps one CLI tool described by a Descriptor, in the manner of
// freedesktop .thumbnailer entries: a command template with placeholders
// plus the MIME types the tool handles.
package command

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/custodia-labs/thumbcache/internal/core/domain"
	"github.com/custodia-labs/thumbcache/internal/core/ports/driven"
	"github.com/custodia-labs/thumbcache/internal/logger"
)

// Descriptor declares an external thumbnailer tool.
type Descriptor struct {
	// Name identifies the tool in logs and config.
	Name string

	// Exec is the command template. Placeholders: %i input path,
	// %o output path, %s pixel size, %u source URI, %% literal percent.
	Exec string

	// MIMETypes lists the types the tool accepts. A trailing "/*"
	// matches a whole top-level type (e.g. "video/*").
	MIMETypes []string

	// Categories are the capability tags for registry filtering.
	Categories []domain.Category
}

// Ensure Thumbnailer implements the interface.
var _ driven.Thumbnailer = (*Thumbnailer)(nil)

// Thumbnailer invokes one external CLI tool synchronously. Availability
// (whether the tool's binary is on PATH) is checked once per instance.
type Thumbnailer struct {
	desc Descriptor

	availOnce sync.Once
	avail     bool
}

// New creates a backend from a descriptor.
func New(desc Descriptor) *Thumbnailer {
	return &Thumbnailer{desc: desc}
}

// Name identifies the backend in logs.
func (t *Thumbnailer) Name() string {
	return t.desc.Name
}

// Available reports whether the tool's binary is present on PATH.
// The lookup runs once; the answer is memoised for the instance's life.
func (t *Thumbnailer) Available() bool {
	t.availOnce.Do(func() {
		argv := strings.Fields(t.desc.Exec)
		if len(argv) == 0 {
			return
		}
		if _, err := exec.LookPath(argv[0]); err != nil {
			logger.Debug("thumbnailer %s: %s not found on PATH", t.desc.Name, argv[0])
			return
		}
		t.avail = true
	})
	return t.avail
}

// Accepts reports whether the declared MIME types cover mime. Unknown
// content is declined: external tools are only trusted with the types
// they claim.
func (t *Thumbnailer) Accepts(mime string) bool {
	if mime == "" {
		return false
	}
	for _, m := range t.desc.MIMETypes {
		if m == mime {
			return true
		}
		if prefix, ok := strings.CutSuffix(m, "/*"); ok && strings.HasPrefix(mime, prefix+"/") {
			return true
		}
	}
	return false
}

// Categories returns the descriptor's tags, defaulting to misc.
func (t *Thumbnailer) Categories() []domain.Category {
	if len(t.desc.Categories) == 0 {
		return []domain.Category{domain.CategoryMisc}
	}
	return t.desc.Categories
}

// Create runs the tool with placeholders expanded. The call is
// synchronous and bounded only by the tool itself (and ctx). Any
// non-zero exit, or an empty output file, is a normalised decode
// failure that sends the dispatcher to the next backend.
func (t *Thumbnailer) Create(ctx context.Context, src, dest string, pixels int) (map[string]string, error) {
	uri, err := domain.NormalizeURI(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecodeFailed, err)
	}

	argv := t.buildArgv(src, dest, uri, pixels)
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty command for %s", domain.ErrDecodeFailed, t.desc.Name)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		logger.Debug("thumbnailer %s failed: %v: %s", t.desc.Name, err, strings.TrimSpace(string(out)))
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDecodeFailed, t.desc.Name, err)
	}

	fi, err := os.Stat(dest)
	if err != nil || fi.Size() == 0 {
		return nil, fmt.Errorf("%w: %s wrote no output", domain.ErrDecodeFailed, t.desc.Name)
	}

	return map[string]string{}, nil
}

// buildArgv splits the template on whitespace and expands placeholders
// per argument, so paths with spaces survive intact.
func (t *Thumbnailer) buildArgv(src, dest, uri string, pixels int) []string {
	fields := strings.Fields(t.desc.Exec)
	argv := make([]string, 0, len(fields))
	replacer := strings.NewReplacer(
		"%%", "%",
		"%i", src,
		"%o", dest,
		"%s", strconv.Itoa(pixels),
		"%u", uri,
	)
	for _, f := range fields {
		argv = append(argv, replacer.Replace(f))
	}
	return argv
}
