package metrics

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PipelineMonitor/pkg/collecting"
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
		HostStats: collecting.HostStats{CPUCount: 4, MemoryTotal: 8 << 30, Uptime: time.Hour},
		Unit:      unit,
	}, nil
}

func fixedClock(ts string) func() time.Time {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func noEnv(string) (string, bool) { return "", false }

func newTestRecord(t *testing.T, f Fields, opts ...Option) *Record {
	t.Helper()
	opts = append([]Option{WithSampler(&fakeSampler{}), WithLookupEnv(noEnv)}, opts...)
	r, err := New(f, opts...)
	require.NoError(t, err)
	return r
}

func snapshot(t *testing.T, r *Record) map[string]interface{} {
	t.Helper()
	s, err := r.Snapshot(nil, false)
	require.NoError(t, err)
	return s
}

// callerState drops the fields that are recomputed on every refresh.
func callerState(s map[string]interface{}) map[string]interface{} {
	return lo.OmitBy(s, func(k string, _ interface{}) bool {
		f, _ := Lookup(k)
		return f.Derived
	})
}

func TestNew(t *testing.T) {
	sampler := &fakeSampler{}
	r, err := New(Fields{
		AppEnv:       lo.ToPtr("dev"),
		PipelineID:   lo.ToPtr("123"),
		PipelineName: lo.ToPtr("test_pipeline"),
		Rows:         lo.ToPtr(int64(10)),
		SrcPaths:     []string{"gs://a", "gs://b"},
	}, WithSampler(sampler), WithLookupEnv(noEnv), WithClock(fixedClock("2023-01-01T10:20:30Z")))
	require.NoError(t, err)

	s := snapshot(t, r)
	assert.Len(t, s, len(Schema))
	assert.Equal(t, "dev", s[FieldAppEnv])
	assert.Equal(t, "123", s[FieldPipelineID])
	assert.Equal(t, "test_pipeline", s[FieldPipelineName])
	assert.Equal(t, int64(10), s[FieldRows])
	assert.Equal(t, []string{"gs://a", "gs://b"}, s[FieldSrcPaths])
	assert.Equal(t, int64(os.Getpid()), s[FieldProcessID])
	assert.Equal(t, os.Getpid(), r.ProcessID())
	assert.Equal(t, "2023-01-01T10:20:30Z", s[FieldTimestamp])
	assert.Equal(t, "UTC", s[FieldTimezone])
	assert.Equal(t, "2023-01-01", s[FieldExecutionDate])
	assert.Contains(t, s[FieldMachineStats], `"cpu_count":"4 cores"`)
	assert.Contains(t, s[FieldMachineStats], `"virtual_memory":"8.000 GB"`)
	assert.Nil(t, s[FieldMessage])
	assert.Equal(t, 1, sampler.calls)
}

func TestProcessIDIsImmutable(t *testing.T) {
	r := newTestRecord(t, Fields{PipelineID: lo.ToPtr("1")})

	require.NoError(t, r.Update(Fields{PipelineStatus: lo.ToPtr(StatusRunning)}))
	require.NoError(t, r.Update(Fields{Rows: lo.ToPtr(int64(3))}))
	require.NoError(t, r.UpdateFromMap(map[string]interface{}{FieldProcessID: 1, FieldMessage: "x"}))

	pid, ok := r.Get(FieldProcessID)
	assert.True(t, ok)
	assert.Equal(t, int64(os.Getpid()), pid)

	msg, _ := r.Get(FieldMessage)
	assert.Equal(t, "x", msg)
}

func TestUpdateNeverClears(t *testing.T) {
	r := newTestRecord(t, Fields{
		AppEnv:         lo.ToPtr("dev"),
		PipelineID:     lo.ToPtr("123"),
		Message:        lo.ToPtr("started"),
		TargetPaths:    []string{"out/"},
		PipelineStatus: lo.ToPtr(StatusRunning),
	})
	before := callerState(snapshot(t, r))

	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	require.NoError(t, r.Update(Fields{
		PipelineStatus:  lo.ToPtr(StatusCompleted),
		Rows:            lo.ToPtr(int64(42)),
		PipelineStartTS: &start,
		TargetPaths:     []string{},
	}))
	after := callerState(snapshot(t, r))

	assert.Equal(t, StatusCompleted, after[FieldPipelineStatus])
	assert.Equal(t, int64(42), after[FieldRows])
	assert.Equal(t, "2024-05-01T06:00:00Z", after[FieldPipelineStartTS])

	for k, v := range before {
		switch k {
		case FieldPipelineStatus, FieldRows, FieldPipelineStartTS:
			continue
		}
		assert.Equal(t, v, after[k], k)
	}
	assert.Equal(t, []string{"out/"}, after[FieldTargetPaths], "empty slice is not supplied")
}

func TestUpdateFromMapClears(t *testing.T) {
	r := newTestRecord(t, Fields{PipelineID: lo.ToPtr("123"), Message: lo.ToPtr("hello")})

	require.NoError(t, r.UpdateFromMap(map[string]interface{}{
		FieldMessage:    nil,
		FieldPipelineID: "456",
		FieldRows:       float64(7),
	}))

	s := snapshot(t, r)
	assert.Nil(t, s[FieldMessage])
	assert.Equal(t, "456", s[FieldPipelineID])
	assert.Equal(t, int64(7), s[FieldRows])

	// The same nil through Update is a no-op
	require.NoError(t, r.Update(Fields{Message: nil, PipelineID: nil}))
	assert.Equal(t, "456", snapshot(t, r)[FieldPipelineID])
}

func TestUpdateFromMapUnknownField(t *testing.T) {
	r := newTestRecord(t, Fields{PipelineID: lo.ToPtr("123")})
	before := callerState(snapshot(t, r))

	err := r.UpdateFromMap(map[string]interface{}{
		FieldPipelineID: "999",
		"not_a_field":   "x",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownField))
	assert.Contains(t, err.Error(), "not_a_field")
	assert.Equal(t, before, callerState(snapshot(t, r)))

	_, err = FromMap(map[string]interface{}{"bogus": 1}, WithSampler(&fakeSampler{}))
	assert.True(t, errors.Is(err, ErrUnknownField))
}

func TestUpdateFromMapInvalidValue(t *testing.T) {
	r := newTestRecord(t, Fields{})

	for _, m := range []map[string]interface{}{
		{FieldRows: "ten"},
		{FieldRows: 1.5},
		{FieldSrcPaths: 3},
		{FieldScriptStartTS: "yesterday"},
		{FieldMessage: map[string]string{"a": "b"}},
	} {
		err := r.UpdateFromMap(m)
		assert.True(t, errors.Is(err, ErrInvalidValue), "%v", m)
	}
}

func TestRefreshTimestamp(t *testing.T) {
	r := newTestRecord(t, Fields{})

	for i := 0; i < 3; i++ {
		r.RefreshTimestamp()
		s := snapshot(t, r)

		ts, ok := s[FieldTimestamp].(string)
		require.True(t, ok)
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		require.NoError(t, err)
		assert.Equal(t, time.UTC, parsed.Location())
		assert.True(t, strings.HasSuffix(ts, "Z"))
		assert.Equal(t, ts[:10], s[FieldExecutionDate])
		assert.Equal(t, "UTC", s[FieldTimezone])
	}
}

func TestRefreshEnvironment(t *testing.T) {
	t.Setenv(EnvAppEnv, "test_env")
	t.Setenv(EnvTimezone, "Europe/Madrid")

	r := newRecord([]Option{WithSampler(&fakeSampler{})})
	r.RefreshEnvironment()
	s := snapshot(t, r)
	assert.Equal(t, "test_env", s[FieldAppEnv])
	assert.Equal(t, "Europe/Madrid", s[FieldTimezone])

	// Values already present are kept
	r2, err := New(Fields{AppEnv: lo.ToPtr("pro")}, WithSampler(&fakeSampler{}))
	require.NoError(t, err)
	v, _ := r2.Get(FieldAppEnv)
	assert.Equal(t, "pro", v)

	// Unset variables leave the field absent
	r3 := newRecord([]Option{WithSampler(&fakeSampler{}), WithLookupEnv(noEnv)})
	r3.RefreshEnvironment()
	_, ok := r3.Get(FieldAppEnv)
	assert.False(t, ok)
}

func TestSnapshotOverrides(t *testing.T) {
	sampler := &fakeSampler{}
	r := newTestRecord(t, Fields{Message: lo.ToPtr("stored"), SrcPaths: []string{"a"}}, WithSampler(sampler))
	calls := sampler.calls

	s, err := r.Snapshot(map[string]interface{}{FieldMessage: "override", "extra": 1}, false)
	require.NoError(t, err)
	assert.Equal(t, "override", s[FieldMessage])
	assert.Equal(t, 1, s["extra"])
	assert.Equal(t, calls, sampler.calls, "no refresh requested")

	s[FieldSrcPaths].([]string)[0] = "mutated"

	stored := snapshot(t, r)
	assert.Equal(t, "stored", stored[FieldMessage])
	assert.NotContains(t, stored, "extra")
	assert.Equal(t, []string{"a"}, stored[FieldSrcPaths])

	_, err = r.Snapshot(nil, true)
	require.NoError(t, err)
	assert.Equal(t, calls+1, sampler.calls)
}

func TestHostStatsFailure(t *testing.T) {
	_, err := New(Fields{}, WithSampler(&fakeSampler{err: errors.New("boom")}))
	assert.Error(t, err)

	sampler := &fakeSampler{}
	r := newTestRecord(t, Fields{}, WithSampler(sampler))
	before, _ := r.Get(FieldMachineStats)

	sampler.err = errors.New("boom")
	err = r.RefreshHostStats()
	assert.Error(t, err)
	after, _ := r.Get(FieldMachineStats)
	assert.Equal(t, before, after)
}

func TestRoundTrip(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 600, time.UTC)
	r := newTestRecord(t, Fields{
		AppEnv:          lo.ToPtr("uat"),
		PipelineID:      lo.ToPtr("p-1"),
		ScriptName:      lo.ToPtr("load.py"),
		Rows:            lo.ToPtr(int64(1000)),
		PreviousRows:    lo.ToPtr(int64(900)),
		SrcPaths:        []string{"s1", "s2"},
		TargetPaths:     []string{"t1"},
		MinBusinessDate: lo.ToPtr("2024-01-01"),
		PipelineStartTS: &start,
		Var3:            lo.ToPtr("v3"),
	})

	data, err := json.Marshal(snapshot(t, r))
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	fresh := newTestRecord(t, Fields{})
	require.NoError(t, fresh.UpdateFromMap(decoded))
	assert.Equal(t, callerState(snapshot(t, r)), callerState(snapshot(t, fresh)))

	rebuilt, err := FromMap(decoded, WithSampler(&fakeSampler{}), WithLookupEnv(noEnv))
	require.NoError(t, err)
	assert.Equal(t, callerState(snapshot(t, r)), callerState(snapshot(t, rebuilt)))
}

func TestSchema(t *testing.T) {
	names := FieldNames()
	assert.Len(t, names, 32)
	assert.Equal(t, FieldAppEnv, names[0])
	assert.Equal(t, FieldVar3, names[len(names)-1])
	assert.Len(t, lo.Uniq(names), len(names))

	// Every typed Fields member maps onto a schema entry
	all := Fields{}.supplied()
	assert.Empty(t, all)
	f, ok := Lookup(FieldRows)
	assert.True(t, ok)
	assert.Equal(t, KindInt, f.Kind)
	_, ok = Lookup("nope")
	assert.False(t, ok)
}
