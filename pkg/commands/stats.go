package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"PipelineMonitor/pkg/collecting"
)

func (a *app) newStatsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print a host statistics snapshot",
		Long: `Sample the host once and print CPU, memory, disk, network and uptime
statistics. Memory and disk values use the configured unit.

Example:
  pipelinemonitor stats
  pipelinemonitor stats --unit MB --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, err := collecting.ParseUnit(a.conf.HostStats.Unit)
			if err != nil {
				return err
			}
			c := collecting.NewCollector(collecting.WithMountPoint(a.conf.HostStats.MountPoint))
			snap, err := c.Sample(unit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				msg, err := snap.ToMessage()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, msg)
				return err
			}

			summary := snap.Summary()
			keys := make([]string, 0, len(summary))
			for k := range summary {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if _, err := fmt.Fprintf(out, "%-16s %s\n", k, summary[k]); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the snapshot as a JSON object")
	a.flags.AddHostStatsFlags(cmd)
	return cmd
}
