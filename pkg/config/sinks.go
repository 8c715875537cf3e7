package config

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"PipelineMonitor/pkg/exporting"
	"PipelineMonitor/pkg/metrics"
	"PipelineMonitor/pkg/queue"
	"PipelineMonitor/pkg/storage"
)

// SinkPath returns the file path of a file sink. Relative paths are placed
// under output_dir.
func (c Config) SinkPath(s Sink) string {
	if filepath.IsAbs(s.Path) || c.OutputDir == "" {
		return s.Path
	}
	return filepath.Join(c.OutputDir, s.Path)
}

// BuildWriters opens a writer for every configured sink, in order. The
// stdout sink writes to stdout. On error, writers opened so far are closed.
func BuildWriters(ctx context.Context, c Config, stdout io.Writer, logger logrus.FieldLogger) ([]exporting.Writer, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	var writers []exporting.Writer
	fail := func(err error) ([]exporting.Writer, error) {
		for _, w := range writers {
			_ = w.Close()
		}
		return nil, err
	}

	for i, s := range c.Sinks {
		w, err := c.buildWriter(ctx, s, stdout, logger)
		if err != nil {
			return fail(errors.Wrapf(err, "sinks[%d] (%s)", i, s.Type))
		}
		entry := logger.WithField("sink", w.Name())
		if fw, ok := w.(exporting.FileWriter); ok {
			entry = entry.WithField("path", fw.Path())
		}
		entry.Debug("Opened sink")
		writers = append(writers, w)
	}
	return writers, nil
}

func (c Config) buildWriter(ctx context.Context, s Sink, stdout io.Writer, logger logrus.FieldLogger) (exporting.Writer, error) {
	opts := []exporting.WriterOption{
		exporting.WithColumns(metrics.FieldNames()),
		exporting.WithContext(ctx),
	}
	if s.Name != "" {
		opts = append(opts, exporting.WithName(s.Name))
	}

	switch {
	case s.IsFile():
		return exporting.NewExporter(c.SinkPath(s), s.Type, opts...)
	case s.Type == SinkBlob:
		if s.Name == "" {
			opts = append(opts, exporting.WithName(fmt.Sprintf("blob:%s:%s", s.Storage.Type, s.Prefix)))
		}
		st, err := storage.Open(ctx, s.Storage.Type, s.Storage.Options,
			storage.Options{Prefix: s.Prefix, Compress: s.Compress}, logger)
		if err != nil {
			return nil, err
		}
		return exporting.NewDBWriter(st, opts...)
	case s.Type == SinkStdout:
		if s.Name == "" {
			opts = append(opts, exporting.WithName(SinkStdout))
		}
		return exporting.NewQueueWriter(queue.NewStream(stdout), opts...)
	default:
		return nil, errors.Errorf("unknown sink type %q", s.Type)
	}
}
