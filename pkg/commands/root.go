// Package commands implements the pipelinemonitor command line.
package commands

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"PipelineMonitor/pkg/config"
	"PipelineMonitor/pkg/config/logger"
	"PipelineMonitor/pkg/exporting"
	"PipelineMonitor/pkg/monitoring"
)

// Set by main
var version = "dev"

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	version = v
}

// app holds the state shared by all subcommands of one root command.
type app struct {
	configFile      string
	debug           bool
	logConfig       bool
	metricsTextfile string
	flags           config.Config // Values set by flags, merged over the file
	conf            config.Config
}

// NewRootCmd creates the root command with all subcommands.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "pipelinemonitor",
		Short: "Record pipeline execution metadata and publish it to sinks",
		Long: `PipelineMonitor builds a fixed-schema record of pipeline execution
metadata, enriches it with environment values and host statistics, and
writes it to every configured sink.

Commands:
  emit    Dispatch one record built from key=value pairs
  run     Run a command and record its start and end
  stats   Print a host statistics snapshot
  show    Print the records stored in a sink file
  graph   Render an HTML report from a sink file`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configFile, "config", "c", "", "Config file (defaults are used when empty)")
	pf.BoolVar(&a.debug, "debug", false, "Enable debug logging")
	pf.BoolVar(&a.logConfig, "log-config", false, "Log the evaluated configuration on startup")
	pf.StringVar(&a.metricsTextfile, "metrics-textfile", "", "Write dispatch metrics in Prometheus text format to this file on exit")
	logger.RegisterFlagsWith(pf.StringVar)

	root.AddCommand(
		a.newEmitCmd(),
		a.newRunCmd(),
		a.newStatsCmd(),
		newShowCmd(),
		newGraphCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func (a *app) loadConfig() error {
	conf := config.Default()
	if a.configFile != "" {
		if err := conf.LoadYAMLFile(a.configFile, true); err != nil {
			return errors.Wrapf(err, "load config file %q", a.configFile)
		}
	}

	flags := a.flags
	flags.Log = logger.FlagConfig
	conf = conf.Merge(flags)
	if a.debug {
		conf.Log.Level = "debug"
	}
	if err := conf.Check(); err != nil {
		return errors.Wrap(err, "config error")
	}

	logger.Configure(conf.Log)
	if err := conf.ExportEnv(); err != nil {
		return err
	}
	logrus.WithField("version", version).Debug("Running")
	if a.logConfig {
		logrus.Infof("Effective configuration:\n%s\n", conf.String())
	}
	a.conf = conf
	return nil
}

// dispatcher opens the configured sinks. The stdout sink writes to the
// command's output.
func (a *app) dispatcher(ctx context.Context, cmd *cobra.Command) (*monitoring.Dispatcher, error) {
	writers, err := config.BuildWriters(ctx, a.conf, cmd.OutOrStdout(), logrus.StandardLogger())
	if err != nil {
		return nil, err
	}
	logrus.WithField("sinks", len(writers)).Debug("Sinks opened")
	return monitoring.New(logrus.StandardLogger(), writers...), nil
}

// finish closes the dispatcher and writes the metrics textfile when asked.
func (a *app) finish(d *monitoring.Dispatcher) error {
	err := d.Close()
	if a.metricsTextfile != "" {
		if werr := prometheus.WriteToTextfile(a.metricsTextfile, prometheus.DefaultGatherer); werr != nil {
			logrus.WithError(werr).Warn("Writing metrics textfile failed")
		}
	}
	return err
}

func writerNames(d *monitoring.Dispatcher) []string {
	return lo.Map(d.Writers(), func(w exporting.Writer, _ int) string {
		return w.Name()
	})
}
