// Package monitoring fans a metric record out to a fixed list of writers.
package monitoring

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"PipelineMonitor/pkg/exporting"
	"PipelineMonitor/pkg/metrics"
)

// Dispatcher writes each record to every writer, in registration order.
type Dispatcher struct {
	writers []exporting.Writer
	l       logrus.FieldLogger
}

// New returns a dispatcher for writers. Zero writers is valid; dispatches
// then only refresh the record. A nil logger uses the standard logger.
func New(logger logrus.FieldLogger, writers ...exporting.Writer) *Dispatcher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	ws := make([]exporting.Writer, len(writers))
	copy(ws, writers)
	return &Dispatcher{
		writers: ws,
		l:       logger.WithField("component", "dispatcher"),
	}
}

// Writers returns the registered writers.
func (d *Dispatcher) Writers() []exporting.Writer {
	ws := make([]exporting.Writer, len(d.writers))
	copy(ws, d.writers)
	return ws
}

// Dispatch refreshes r, takes one snapshot and writes it to every writer.
// A failing writer does not stop the others; all failures are returned
// joined, each naming the writer. A host stats failure aborts before any
// writer runs.
func (d *Dispatcher) Dispatch(r *metrics.Record) error {
	t0 := time.Now()
	defer func() {
		metricDispatchDuration.Observe(time.Since(t0).Seconds())
	}()
	metricDispatches.Inc()

	snap, err := r.Snapshot(nil, true)
	if err != nil {
		metricDispatchFailures.Inc()
		d.l.WithError(err).Warn("Record refresh failed, nothing written")
		return err
	}

	var errs []error
	for i, w := range d.writers {
		// Each writer gets its own copy so it cannot alter what the next sees.
		if err := w.Write(copyRecord(snap)); err != nil {
			metricWriteFailures.WithLabelValues(w.Name()).Inc()
			d.l.WithError(err).WithField("sink", w.Name()).Warn("Write failed")
			errs = append(errs, fmt.Errorf("writer %d (%s): %w", i, w.Name(), err))
			continue
		}
		metricWrites.WithLabelValues(w.Name()).Inc()
	}

	d.l.WithFields(logrus.Fields{
		"pipeline_id": snap[metrics.FieldPipelineID],
		"status":      snap[metrics.FieldPipelineStatus],
		"sinks":       len(d.writers),
		"failed":      len(errs),
		"duration":    time.Since(t0),
	}).Debug("Dispatched record")

	return errors.Join(errs...)
}

// DispatchMap builds a record from m and dispatches it.
func (d *Dispatcher) DispatchMap(m map[string]interface{}, opts ...metrics.Option) error {
	r, err := metrics.FromMap(m, opts...)
	if err != nil {
		return err
	}
	return d.Dispatch(r)
}

// Close closes every writer and returns all close errors joined.
func (d *Dispatcher) Close() error {
	var errs []error
	for i, w := range d.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer %d (%s): %w", i, w.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func copyRecord(record exporting.Record) exporting.Record {
	out := make(exporting.Record, len(record))
	for k, v := range record {
		out[k] = v
	}
	return out
}
