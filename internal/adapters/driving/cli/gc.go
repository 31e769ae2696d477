package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/thumbcache/internal/core/domain"
)

var (
	gcDryRun bool
	gcSizes  []string
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Remove dead cache entries",
	Long: `Walks the size-class directories and removes entries that can no
longer serve any lookup: misnamed files, thumbnails with unparseable
metadata, and thumbnails of local sources that vanished or changed.
Entries for remote sources are kept; their staleness cannot be judged
from this machine.`,
	RunE: runGC,
}

func init() {
	gcCmd.Flags().BoolVarP(&gcDryRun, "dry-run", "n", false, "report removals without deleting anything")
	gcCmd.Flags().StringSliceVar(&gcSizes, "size", nil, "limit to these size classes (repeatable)")
	rootCmd.AddCommand(gcCmd)
}

func runGC(cmd *cobra.Command, _ []string) error {
	var classes []domain.SizeClass
	for _, s := range gcSizes {
		class, err := domain.ParseSizeClass(s)
		if err != nil {
			return err
		}
		classes = append(classes, class)
	}

	report, err := janitorService.Sweep(domain.SweepOptions{
		DryRun:  gcDryRun,
		Classes: classes,
	})
	if err != nil {
		return fmt.Errorf("sweeping cache: %w", err)
	}

	for _, removal := range report.Removals {
		cmd.Printf("%s\t%s\n", removal.Reason, removal.Path)
	}

	verb := "removed"
	if gcDryRun {
		verb = "would remove"
	}
	cmd.Printf("%s %d of %d entries (%d bytes)\n",
		verb, len(report.Removals), report.Scanned, report.Bytes)
	return nil
}
