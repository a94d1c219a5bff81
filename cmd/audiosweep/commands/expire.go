package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ermos/audiosweep"
)

func (c *cli) newExpireCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expire",
		Short: "Delete audio files older than the retention window",
		Long: `Selects every audio file of the input record older than --max-age-days that
is not on the allow-list, and writes the others to the output record.

Runs as a dry run unless --dry-run=false is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			days := c.v.GetInt("max-age-days")
			if days <= 0 {
				return flagError(fmt.Errorf("--max-age-days must be positive, got %d", days))
			}

			mode, err := audiosweep.ParseMatchMode(c.v.GetString("match-by"))
			if err != nil {
				return err
			}

			allowlist := audiosweep.DefaultAllowlist(mode)
			if path := c.v.GetString("allowlist-file"); path != "" {
				if allowlist, err = audiosweep.LoadAllowlist(path, mode); err != nil {
					return err
				}
			}

			cfg := c.buildConfig()
			cfg.DryRun = c.v.GetBool("dry-run")

			s, err := c.newSession(cmd, cfg)
			if err != nil {
				return err
			}
			defer s.cleanup()

			policy := audiosweep.AgeFilter{
				Allowlist: allowlist,
				MaxAge:    time.Duration(days) * 24 * time.Hour,
			}
			reconciler := audiosweep.NewReconciler(s.media, policy, audiosweep.ReconcileOptions{
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
	cmd.Flags().Int("max-age-days", 30, "Files older than this many days are deleted")
	cmd.Flags().String("allowlist-file", "", "YAML file mapping names to URLs that are never deleted")
	cmd.Flags().String("match-by", string(audiosweep.MatchByValue), "Compare identifiers with allow-list values (URLs) or keys (names)")
	cmd.Flags().Bool("dry-run", true, "Log the deletions without sending them")

	return cmd
}
