package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ermos/audiosweep"
)

func (c *cli) newEvictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evict",
		Short: "Delete the last listed audio files",
		Long: `Deletes the last --count audio files of the input record (all of them when
there are fewer) and writes the remaining ones to the output record.

The output reflects the selection even when a delete request fails; failures
are logged and counted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			count := c.v.GetInt("count")
			if count <= 0 {
				return flagError(fmt.Errorf("--count must be positive, got %d", count))
			}

			cfg := c.buildConfig()
			cfg.DryRun = c.v.GetBool("dry-run")

			s, err := c.newSession(cmd, cfg)
			if err != nil {
				return err
			}
			defer s.cleanup()

			reconciler := audiosweep.NewReconciler(s.media, audiosweep.TailEviction{Count: count}, audiosweep.ReconcileOptions{
				Input:        c.v.GetString("input"),
				Output:       c.v.GetString("output"),
				ResourceType: cfg.ResourceType,
				DryRun:       cfg.DryRun,
				ErrorPolicy:  cfg.ErrorPolicy,
			}, s.logger, s.metrics)

			return audiosweep.Run(cmd.Context(), cfg, reconciler, s.logger, s.metrics)
		},
	}

	cmd.Flags().String("input", audiosweep.DefaultListingFile, "Record file to read")
	cmd.Flags().String("output", audiosweep.DefaultRemainingFile, "Record file to write the remaining files to")
	cmd.Flags().Int("count", audiosweep.DefaultEvictCount, "Number of files to delete from the end of the record")
	cmd.Flags().Bool("dry-run", false, "Log the deletions without sending them")

	return cmd
}
