package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ermos/audiosweep"
)

func (c *cli) newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List remote audio files into a record file",
		Long: `Pages through every audio file stored in the media service and writes
their public IDs and creation times to the record file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.buildConfig()

			s, err := c.newSession(cmd, cfg)
			if err != nil {
				return err
			}
			defer s.cleanup()

			lister := audiosweep.NewLister(s.media, audiosweep.ListOptions{
				Output:       c.v.GetString("output"),
				ResourceType: cfg.ResourceType,
				PageSize:     c.v.GetInt("page-size"),
				PageTimeout:  c.v.GetDuration("page-timeout"),
				ErrorPolicy:  cfg.ErrorPolicy,
			}, s.logger, s.metrics)

			return audiosweep.Run(cmd.Context(), cfg, lister, s.logger, s.metrics)
		},
	}

	cmd.Flags().String("output", audiosweep.DefaultListingFile, "Record file to write")
	cmd.Flags().Int("page-size", audiosweep.DefaultPageSize, "Resources requested per page")
	cmd.Flags().Duration("page-timeout", 60*time.Second, "Timeout for each page request")

	return cmd
}
