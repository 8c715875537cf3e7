package commands

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"PipelineMonitor/pkg/graphing"
)

func newGraphCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Aliases: []string{"g"},
		Use:     "graph <input-file>",
		Short:   "Render an HTML report from a sink file",
		Long: `Render an HTML report with rows per pipeline over time, a status
breakdown and host memory usage from a sink file.

Supported input formats: parquet, jsonl, csv, tsv

Example:
  pipelinemonitor graph logs/metrics.jsonl
  pipelinemonitor graph logs/metrics.csv -o report.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath := args[0]
			if _, err := os.Stat(inputPath); err != nil {
				return errors.Errorf("input file not found: %s", inputPath)
			}
			if output == "" {
				output = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".html"
			}
			if err := graphing.GenerateFromFile(inputPath, output); err != nil {
				return errors.Wrap(err, "generate report")
			}
			logrus.WithField("path", output).Info("Report written")
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output HTML file (input name with .html when empty)")
	return cmd
}
