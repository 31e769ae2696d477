// Package cli wires the cache engine behind cobra commands.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	pngcodec "github.com/custodia-labs/thumbcache/internal/adapters/driven/codec/png"
	"github.com/custodia-labs/thumbcache/internal/adapters/driven/config/file"
	"github.com/custodia-labs/thumbcache/internal/adapters/driven/storage/fs"
	"github.com/custodia-labs/thumbcache/internal/core/ports/driving"
	"github.com/custodia-labs/thumbcache/internal/core/services"
	"github.com/custodia-labs/thumbcache/internal/logger"
	"github.com/custodia-labs/thumbcache/internal/thumbnailers"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services used by the commands. Wired in initServices; tests swap in
// mocks.
var (
	cacheService   driving.CacheService
	janitorService driving.JanitorService
)

var (
	flagVerbose   bool
	flagCacheRoot string
	flagConfig    string
)

var rootCmd = &cobra.Command{
	Use:   "thumbcache",
	Short: "Shared thumbnail cache for desktop files",
	Long: `thumbcache maintains the freedesktop shared thumbnail cache:
content-addressed PNG thumbnails under ~/.cache/thumbnails, safe to
share between applications and between concurrent processes.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

// Execute runs the root command. The context bounds long-running
// commands such as watch.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagCacheRoot, "cache-root", "", "cache directory (default: $XDG_CACHE_HOME/thumbnails)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: $XDG_CONFIG_HOME/thumbcache/config.toml)")
}

// initServices builds the service graph from flags and the config file.
// Already-set services are left alone so tests can inject mocks.
func initServices(_ *cobra.Command, _ []string) error {
	cfg, err := file.Load(flagConfig)
	if err != nil {
		return err
	}

	if flagVerbose || cfg.Verbose {
		logger.SetVerbose(true)
	}

	if cacheService != nil && janitorService != nil {
		return nil
	}

	root := flagCacheRoot
	if root == "" {
		root = cfg.CacheRoot
	}
	store, err := fs.New(root)
	if err != nil {
		return fmt.Errorf("initialising cache store: %w", err)
	}

	descs, err := cfg.Descriptors()
	if err != nil {
		return err
	}

	codec := pngcodec.New()
	if cacheService == nil {
		cacheService = services.NewCache(store, codec, thumbnailers.Defaults(descs...))
	}
	if janitorService == nil {
		janitorService = services.NewJanitor(store, codec)
	}
	return nil
}
