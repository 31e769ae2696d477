package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/thumbcache/internal/core/domain"
	"github.com/custodia-labs/thumbcache/internal/core/ports/driven"
	"github.com/custodia-labs/thumbcache/internal/core/ports/driving"
	"github.com/custodia-labs/thumbcache/internal/logger"
)

// Ensure Janitor implements the interface.
var _ driving.JanitorService = (*Janitor)(nil)

// Janitor removes cache entries that can no longer serve any lookup:
// files that do not follow the entry naming pattern, artifacts whose
// metadata no longer parses, and thumbnails of local sources that have
// vanished or changed. Entries for non-file URIs are left alone; their
// staleness cannot be judged from this machine.
type Janitor struct {
	store driven.Store
	codec driven.MetadataCodec
}

// NewJanitor creates a janitor over the given store and codec.
func NewJanitor(store driven.Store, codec driven.MetadataCodec) *Janitor {
	return &Janitor{store: store, codec: codec}
}

// Sweep walks the size-class directories and removes dead entries.
// Failure-marker namespaces are not swept: a marker's absence would
// trigger pointless regeneration attempts.
func (j *Janitor) Sweep(opts domain.SweepOptions) (domain.SweepReport, error) {
	classes := opts.Classes
	if len(classes) == 0 {
		classes = domain.Classes()
	}

	var report domain.SweepReport
	for _, class := range classes {
		dir := filepath.Join(j.store.Root(), class.Name())
		if err := j.sweepDir(dir, opts.DryRun, &report); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (j *Janitor) sweepDir(dir string, dryRun bool, report *domain.SweepReport) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		report.Scanned++

		if reason := j.judge(path, entry.Name()); reason != "" {
			j.remove(path, reason, dryRun, report)
		}
	}
	return nil
}

// judge returns a removal reason, or "" when the entry should stay.
func (j *Janitor) judge(path, name string) string {
	if !domain.ValidEntryName(name) {
		return "not a cache entry"
	}

	info, err := j.codec.ReadInfo(path)
	if err != nil {
		return "unparseable metadata"
	}

	if !strings.HasPrefix(info.URI, "file://") {
		return ""
	}
	target, ok := domain.LocalPath(info.URI)
	if !ok {
		return ""
	}

	fi, err := os.Stat(target)
	if err != nil {
		return "source vanished"
	}
	if fi.ModTime().Unix() != info.MTime {
		return "stale mtime"
	}
	return ""
}

func (j *Janitor) remove(path, reason string, dryRun bool, report *domain.SweepReport) {
	if fi, err := os.Stat(path); err == nil {
		report.Bytes += fi.Size()
	}
	report.Removals = append(report.Removals, domain.Removal{Path: path, Reason: reason})

	if dryRun {
		logger.Info("would remove %s: %s", path, reason)
		return
	}
	if err := os.Remove(path); err != nil {
		logger.Warn("removing %s: %v", path, err)
		return
	}
	logger.Debug("removed %s: %s", path, reason)
}
