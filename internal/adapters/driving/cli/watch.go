package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/thumbcache/internal/core/domain"
	"github.com/custodia-labs/thumbcache/internal/logger"
)

var (
	watchSize string
	watchApp  string
)

// watchLimiter throttles regeneration so an editor save-storm or a bulk
// copy does not turn into a decode-storm.
var watchLimiter = rate.NewLimiter(rate.Limit(10), 20)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and keep its thumbnails fresh",
	Long: `Watches a directory and regenerates thumbnails as files are
created or modified. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchSize, "size", "s", "", "size class or pixel count (default large)")
	watchCmd.Flags().StringVar(&watchApp, "app", "", "application name for failure-marker memoization")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	size, err := parseSizeFlag(watchSize)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	dir := args[0]
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	cmd.Printf("watching %s\n", dir)

	ctx := cmd.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if err := refresh(ctx, event.Name, size); err != nil {
				return err
			}
		}
	}
}

// refresh regenerates the thumbnail for one changed path. Generation
// failures are per-file events, not reasons to stop watching.
func refresh(ctx context.Context, path string, size *domain.SizeClass) error {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return nil
	}
	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		return nil
	}

	if err := watchLimiter.Wait(ctx); err != nil {
		return nil // context cancelled
	}

	thumb, err := cacheService.GetOrCreate(ctx, path, size, watchApp)
	if err != nil {
		logger.Warn("refreshing %s: %v", path, err)
		return nil
	}
	if thumb == "" {
		logger.Debug("no thumbnail for %s", path)
		return nil
	}
	logger.Info("refreshed %s -> %s", path, thumb)
	return nil
}
