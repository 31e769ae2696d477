package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	lookupSize  string
	lookupMtime int64
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [source]",
	Short: "Return a cached thumbnail path without generating",
	Long: `Pure read path: returns the path of a valid cached thumbnail,
or exits non-zero on a miss. Never generates, never touches failure
markers. Without --size, every size class is probed largest first.`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().StringVarP(&lookupSize, "size", "s", "", "size class or pixel count (default: any, prefer larger)")
	lookupCmd.Flags().Int64Var(&lookupMtime, "mtime", 0, "validate against this mtime instead of statting the source")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	size, err := parseSizeFlag(lookupSize)
	if err != nil {
		return err
	}

	var mtime *int64
	if cmd.Flags().Changed("mtime") {
		mtime = &lookupMtime
	}

	path, err := cacheService.LookupOnly(args[0], size, mtime)
	if err != nil {
		return fmt.Errorf("looking up thumbnail: %w", err)
	}
	if path == "" {
		return errors.New("no cached thumbnail")
	}

	cmd.Println(path)
	return nil
}
