package commands

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"PipelineMonitor/pkg/metrics"
)

func (a *app) newEmitCmd() *cobra.Command {
	var pairs []string

	cmd := &cobra.Command{
		Use:   "emit --set key=value [--set key=value ...]",
		Short: "Dispatch one record built from key=value pairs",
		Long: `Build a record from key=value pairs and write it to every configured sink.

Integer fields are parsed as integers; list fields (src_paths, target_paths)
take a comma separated list or a JSON array. An empty value leaves the
field absent.

Example:
  pipelinemonitor emit --set pipeline_id=daily --set pipeline_status=completed --set rows=120
  pipelinemonitor emit -c monitor.yaml --set src_paths=s3://in/a,s3://in/b`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := parseAssignments(pairs)
			if err != nil {
				return err
			}

			d, err := a.dispatcher(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			err = d.DispatchMap(m)
			if cerr := a.finish(d); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			logrus.WithField("sinks", writerNames(d)).Info("Record dispatched")
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&pairs, "set", "s", nil, "Field assignment key=value (repeatable)")
	a.flags.AddOutputFlags(cmd)
	return cmd
}

// parseAssignments turns key=value pairs into a record mapping, typing
// values by their schema field. Unknown keys are passed through so the
// record rejects them.
func parseAssignments(pairs []string) (map[string]interface{}, error) {
	m := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.Errorf("invalid assignment %q, expected key=value", pair)
		}
		v, err := parseValue(key, value)
		if err != nil {
			return nil, err
		}
		m[key] = v
	}
	return m, nil
}

func parseValue(key, value string) (interface{}, error) {
	if value == "" {
		return nil, nil
	}
	f, ok := metrics.Lookup(key)
	if !ok {
		return value, nil
	}
	switch f.Kind {
	case metrics.KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", key)
		}
		return n, nil
	case metrics.KindStringList:
		if strings.HasPrefix(strings.TrimSpace(value), "[") {
			return value, nil
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	default:
		return value, nil
	}
}
