package monitoring

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PipelineMonitor/pkg/collecting"
	"PipelineMonitor/pkg/exporting"
	"PipelineMonitor/pkg/metrics"
)

type fakeSampler struct {
	calls int
	err   error
}

func (f *fakeSampler) Sample(unit collecting.Unit) (*collecting.Snapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &collecting.Snapshot{
		HostStats: collecting.HostStats{CPUCount: 2},
		Unit:      unit,
	}, nil
}

// recorder is a writer that keeps what it receives and logs the call order.
type recorder struct {
	name    string
	err     error
	records []exporting.Record
	order   *[]string
	closed  bool
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Write(record exporting.Record) error {
	if r.order != nil {
		*r.order = append(*r.order, r.name)
	}
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, record)
	return nil
}

func (r *recorder) Close() error {
	r.closed = true
	return r.err
}

// mutator changes the record it is handed.
type mutator struct{ recorder }

func (m *mutator) Write(record exporting.Record) error {
	record[metrics.FieldMessage] = "mutated"
	return m.recorder.Write(record)
}

func testOptions(s collecting.Sampler) []metrics.Option {
	clock := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	return []metrics.Option{
		metrics.WithSampler(s),
		metrics.WithClock(func() time.Time { return clock }),
		metrics.WithLookupEnv(func(string) (string, bool) { return "", false }),
	}
}

func newRecord(t *testing.T, s collecting.Sampler) *metrics.Record {
	t.Helper()
	r, err := metrics.New(metrics.Fields{
		PipelineID:     lo.ToPtr("p1"),
		PipelineStatus: lo.ToPtr(metrics.StatusRunning),
	}, testOptions(s)...)
	require.NoError(t, err)
	return r
}

func TestDispatchOrderAndPayload(t *testing.T) {
	var order []string
	a := &recorder{name: "a", order: &order}
	b := &mutator{recorder{name: "b", order: &order}}
	c := &recorder{name: "c", order: &order}

	d := New(nil, a, b, c)
	require.NoError(t, d.Dispatch(newRecord(t, &fakeSampler{})))

	assert.Equal(t, []string{"a", "b", "c"}, order)
	require.Len(t, a.records, 1)
	require.Len(t, c.records, 1)
	assert.Nil(t, a.records[0][metrics.FieldMessage])
	assert.Nil(t, c.records[0][metrics.FieldMessage])
	assert.Equal(t, a.records[0], c.records[0])
	assert.Equal(t, "p1", c.records[0][metrics.FieldPipelineID])
	assert.Equal(t, "2024-05-06", c.records[0][metrics.FieldExecutionDate])
	assert.NotNil(t, c.records[0][metrics.FieldMachineStats])
	assert.Len(t, c.records[0], len(metrics.Schema))
}

func TestDispatchRefreshesEachTime(t *testing.T) {
	s := &fakeSampler{}
	r := newRecord(t, s)
	before := s.calls

	d := New(nil, &recorder{name: "a"})
	require.NoError(t, d.Dispatch(r))
	require.NoError(t, d.Dispatch(r))
	assert.Equal(t, before+2, s.calls)
}

func TestDispatchZeroWriters(t *testing.T) {
	s := &fakeSampler{}
	r := newRecord(t, s)
	before := s.calls

	d := New(nil)
	assert.Empty(t, d.Writers())
	require.NoError(t, d.Dispatch(r))
	assert.Equal(t, before+1, s.calls)
	require.NoError(t, d.Close())
}

func TestDispatchFailureContinues(t *testing.T) {
	sinkErr := &exporting.SinkError{Sink: "a", Kind: exporting.KindIO, Err: errors.New("disk full")}
	a := &recorder{name: "a", err: sinkErr}
	b := &recorder{name: "b"}
	c := &recorder{name: "c"}

	failuresBefore := testutil.ToFloat64(metricWriteFailures.WithLabelValues("a"))
	writesBefore := testutil.ToFloat64(metricWrites.WithLabelValues("b"))

	logger, hook := test.NewNullLogger()
	d := New(logger, a, b, c)
	err := d.Dispatch(newRecord(t, &fakeSampler{}))
	require.Error(t, err)

	assert.Len(t, b.records, 1)
	assert.Len(t, c.records, 1)
	assert.Contains(t, err.Error(), "writer 0 (a)")
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, exporting.IsKind(err, exporting.KindIO))
	assert.ErrorIs(t, err, sinkErr)

	assert.Equal(t, failuresBefore+1, testutil.ToFloat64(metricWriteFailures.WithLabelValues("a")))
	assert.Equal(t, writesBefore+1, testutil.ToFloat64(metricWrites.WithLabelValues("b")))

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestDispatchHostStatsFailure(t *testing.T) {
	s := &fakeSampler{}
	r := newRecord(t, s)
	s.err = errors.New("no proc")

	a := &recorder{name: "a"}
	before := testutil.ToFloat64(metricDispatchFailures)
	err := New(nil, a).Dispatch(r)
	require.Error(t, err)
	assert.Empty(t, a.records)
	assert.Equal(t, before+1, testutil.ToFloat64(metricDispatchFailures))
}

func TestDispatchMap(t *testing.T) {
	a := &recorder{name: "a"}
	d := New(nil, a)

	err := d.DispatchMap(map[string]interface{}{
		metrics.FieldPipelineID: "p1",
		metrics.FieldRows:       float64(10),
		metrics.FieldSrcPaths:   []interface{}{"s3://in"},
	}, testOptions(&fakeSampler{})...)
	require.NoError(t, err)
	require.Len(t, a.records, 1)
	assert.Equal(t, int64(10), a.records[0][metrics.FieldRows])
	assert.Equal(t, []string{"s3://in"}, a.records[0][metrics.FieldSrcPaths])

	err = d.DispatchMap(map[string]interface{}{"nope": 1}, testOptions(&fakeSampler{})...)
	assert.ErrorIs(t, err, metrics.ErrUnknownField)
	assert.Len(t, a.records, 1)
}

func TestDispatchToFiles(t *testing.T) {
	dir := t.TempDir()
	var writers []exporting.Writer
	for _, name := range []string{"m.jsonl", "m.csv", "m.parquet"} {
		w, err := exporting.NewExporter(filepath.Join(dir, name), "", exporting.WithColumns(metrics.FieldNames()))
		require.NoError(t, err)
		writers = append(writers, w)
	}

	d := New(nil, writers...)
	r := newRecord(t, &fakeSampler{})
	require.NoError(t, d.Dispatch(r))
	require.NoError(t, r.Update(metrics.Fields{PipelineStatus: lo.ToPtr(metrics.StatusCompleted)}))
	require.NoError(t, d.Dispatch(r))
	require.NoError(t, d.Close())

	for name, want := range map[string]int{"m.jsonl": 2, "m.csv": 2, "m.parquet": 1} {
		records, err := exporting.LoadRecords(filepath.Join(dir, name))
		require.NoError(t, err, name)
		require.Len(t, records, want, name)
		last := records[len(records)-1]
		assert.Equal(t, metrics.StatusCompleted, last[metrics.FieldPipelineStatus], name)

		// Every sink's output can be loaded back into a record.
		_, err = metrics.FromMap(last, testOptions(&fakeSampler{})...)
		assert.NoError(t, err, name)
	}
}

func TestClose(t *testing.T) {
	a := &recorder{name: "a"}
	b := &recorder{name: "b", err: errors.New("boom")}
	err := New(nil, a, b).Close()
	require.Error(t, err)
	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.Contains(t, err.Error(), "close writer 1 (b)")
}

func TestDispatchToFilesKeepsStrings(t *testing.T) {
	dir := t.TempDir()
	names := []string{"m.jsonl", "m.csv", "m.parquet"}
	var writers []exporting.Writer
	for _, name := range names {
		w, err := exporting.NewExporter(filepath.Join(dir, name), "", exporting.WithColumns(metrics.FieldNames()))
		require.NoError(t, err)
		writers = append(writers, w)
	}

	r, err := metrics.New(metrics.Fields{
		PipelineID: lo.ToPtr("007"),
		Var1:       lo.ToPtr("1.50"),
		Var2:       lo.ToPtr("true"),
		Rows:       lo.ToPtr(int64(3)),
	}, testOptions(&fakeSampler{})...)
	require.NoError(t, err)
	require.NoError(t, New(nil, writers...).Dispatch(r))
	for _, w := range writers {
		require.NoError(t, w.Close())
	}

	for _, name := range names {
		records, err := exporting.LoadRecords(filepath.Join(dir, name))
		require.NoError(t, err, name)
		require.Len(t, records, 1, name)

		loaded, err := metrics.FromMap(records[0], testOptions(&fakeSampler{})...)
		require.NoError(t, err, name)
		for field, want := range map[string]interface{}{
			metrics.FieldPipelineID: "007",
			metrics.FieldVar1:       "1.50",
			metrics.FieldVar2:       "true",
			metrics.FieldRows:       int64(3),
		} {
			got, _ := loaded.Get(field)
			assert.Equal(t, want, got, "%s %s", name, field)
		}
	}
}
