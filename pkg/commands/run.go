package commands

import (
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"PipelineMonitor/pkg/metrics"
	"PipelineMonitor/pkg/monitoring"
)

func (a *app) newRunCmd() *cobra.Command {
	var pairs []string

	cmd := &cobra.Command{
		Use:   "run [flags] -- <command> [args...]",
		Short: "Run a command and record its start and end",
		Long: `Run a command and dispatch two records: one with status running when it
starts, and one with status completed or failed when it exits.

script_name defaults to the command's base name, script_start_ts and
script_end_ts are set from the wall clock, and message carries the exit
status.

Example:
  pipelinemonitor run --set pipeline_id=daily -- python etl.py --date 2024-01-01`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := parseAssignments(pairs)
			if err != nil {
				return err
			}
			if _, ok := m[metrics.FieldScriptName]; !ok {
				m[metrics.FieldScriptName] = filepath.Base(args[0])
			}

			r, err := metrics.FromMap(m)
			if err != nil {
				return err
			}
			d, err := a.dispatcher(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			l := logrus.WithFields(logrus.Fields{
				"run_id":  uuid.NewString(),
				"command": args[0],
				"pid":     r.ProcessID(),
			})
			runErr := a.runRecorded(cmd, d, r, args, l)
			if err := a.finish(d); err != nil && runErr == nil {
				runErr = err
			}
			return runErr
		},
	}

	cmd.Flags().StringArrayVarP(&pairs, "set", "s", nil, "Field assignment key=value (repeatable)")
	a.flags.AddOutputFlags(cmd)
	return cmd
}

// runRecorded dispatches the running record, runs the command, then
// dispatches the final record. A dispatch failure is logged and does not
// stop the command.
func (a *app) runRecorded(cmd *cobra.Command, d *monitoring.Dispatcher, r *metrics.Record, args []string, l logrus.FieldLogger) error {
	start := time.Now()
	if err := r.Update(metrics.Fields{
		PipelineStatus: lo.ToPtr(metrics.StatusRunning),
		ScriptStartTS:  lo.ToPtr(start),
	}); err != nil {
		return err
	}
	if err := d.Dispatch(r); err != nil {
		l.WithError(err).Warn("Dispatch of running record failed")
	}

	child := exec.CommandContext(cmd.Context(), args[0], args[1:]...)
	child.Stdin = os.Stdin
	child.Stdout = cmd.OutOrStdout()
	child.Stderr = cmd.ErrOrStderr()

	l.Info("Running command")
	runErr := child.Run()
	end := time.Now()

	status := metrics.StatusCompleted
	message := "exit status 0"
	if runErr != nil {
		status = metrics.StatusFailed
		message = runErr.Error()
	}
	l = l.WithField("status", status).WithField("duration", end.Sub(start))
	l.Info("Command finished")

	if err := r.Update(metrics.Fields{
		PipelineStatus: lo.ToPtr(status),
		ScriptEndTS:    lo.ToPtr(end),
		Message:        lo.ToPtr(message),
	}); err != nil {
		return err
	}
	if err := d.Dispatch(r); err != nil {
		l.WithError(err).Warn("Dispatch of final record failed")
		if runErr == nil {
			return err
		}
	}
	return errors.Wrapf(runErr, "run %s", args[0])
}
