package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"PipelineMonitor/pkg/exporting"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Print the records stored in a sink file",
		Long: `Print the records of a jsonl, csv, tsv or parquet sink file, one JSON
object per line.

Example:
  pipelinemonitor show logs/metrics.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := exporting.LoadRecords(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range records {
				data, err := json.Marshal(r)
				if err != nil {
					return errors.Wrap(err, "marshal record")
				}
				if _, err := fmt.Fprintln(out, string(data)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
