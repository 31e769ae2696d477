package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/thumbcache/internal/core/domain"
)

var (
	getSize string
	getApp  string
)

var getCmd = &cobra.Command{
	Use:   "get [source]",
	Short: "Return a thumbnail path, generating the thumbnail if needed",
	Long: `Returns the path of a valid cached thumbnail for the source,
generating and publishing one on a miss. Exits non-zero when no
thumbnail could be produced.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().StringVarP(&getSize, "size", "s", "", "size class or pixel count (default large)")
	getCmd.Flags().StringVar(&getApp, "app", "", "application name for failure-marker memoization")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	size, err := parseSizeFlag(getSize)
	if err != nil {
		return err
	}

	path, err := cacheService.GetOrCreate(cmd.Context(), args[0], size, getApp)
	if err != nil {
		return fmt.Errorf("getting thumbnail: %w", err)
	}
	if path == "" {
		return domain.ErrNoThumbnailer
	}

	cmd.Println(path)
	return nil
}

// parseSizeFlag maps the --size flag to an optional size class. The
// empty flag means "engine default".
func parseSizeFlag(s string) (*domain.SizeClass, error) {
	if s == "" {
		return nil, nil
	}
	class, err := domain.ParseSizeClass(s)
	if err != nil {
		return nil, err
	}
	return &class, nil
}
