package metrics

import (
	"os"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"PipelineMonitor/pkg/collecting"
)

// HostStatsUnit is the unit used for the machine_stats field.
const HostStatsUnit = collecting.GB

const (
	timezoneUTC       = "UTC"
	executionDateForm = "2006-01-02"
)

var defaultSampler collecting.Sampler = collecting.NewCollector()

// Record is the metric record of one unit of work. It is safe for
// concurrent use.
type Record struct {
	mu        sync.Mutex
	data      map[string]interface{}
	pid       int
	now       func() time.Time
	sampler   collecting.Sampler
	lookupEnv func(string) (string, bool)
}

// Option configures a Record.
type Option func(*Record)

// WithClock replaces time.Now for the derived timestamp fields.
func WithClock(now func() time.Time) Option {
	return func(r *Record) {
		r.now = now
	}
}

// WithSampler replaces the host stats source.
func WithSampler(s collecting.Sampler) Option {
	return func(r *Record) {
		r.sampler = s
	}
}

// WithLookupEnv replaces os.LookupEnv for the environment back-fill.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(r *Record) {
		r.lookupEnv = lookup
	}
}

func newRecord(opts []Option) *Record {
	r := &Record{
		data:      make(map[string]interface{}, len(Schema)),
		pid:       os.Getpid(),
		now:       time.Now,
		sampler:   defaultSampler,
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, f := range Schema {
		r.data[f.Name] = nil
	}
	r.data[FieldProcessID] = int64(r.pid)
	return r
}

// New creates a record with the given initial fields, then back-fills
// environment fields and derives timestamps and host stats.
func New(initial Fields, opts ...Option) (*Record, error) {
	r := newRecord(opts)
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.applyFields(initial); err != nil {
		return nil, err
	}
	if err := r.refresh(); err != nil {
		return nil, err
	}
	return r, nil
}

// FromMap creates a record from a loosely typed mapping. Keys must be
// schema field names.
func FromMap(m map[string]interface{}, opts ...Option) (*Record, error) {
	r := newRecord(opts)
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.applyMap(m); err != nil {
		return nil, err
	}
	if err := r.refresh(); err != nil {
		return nil, err
	}
	return r, nil
}

// ProcessID returns the process identifier captured at creation.
func (r *Record) ProcessID() int {
	return r.pid
}

// Get returns the stored value of a field and whether it is set.
func (r *Record) Get(name string) (interface{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.data[name]
	if !ok || v == nil {
		return nil, false
	}
	return copyValue(v), true
}

// UpdateFromMap overwrites every field present in m, including with nil,
// which clears the field. Unknown keys or values of the wrong type reject
// the whole update and leave the record untouched. process_id is ignored.
func (r *Record) UpdateFromMap(m map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.applyMap(m); err != nil {
		return err
	}
	return r.refresh()
}

// Update applies only the supplied values of f. It never clears a field.
func (r *Record) Update(f Fields) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.applyFields(f); err != nil {
		return err
	}
	return r.refresh()
}

// Snapshot returns a copy of every schema field, absent ones as nil. With
// refresh set, environment, timestamp and host stats are derived again
// first. Overrides are applied to the copy only and may add keys.
func (r *Record) Snapshot(overrides map[string]interface{}, refresh bool) (map[string]interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if refresh {
		if err := r.refresh(); err != nil {
			return nil, err
		}
	}

	out := make(map[string]interface{}, len(r.data)+len(overrides))
	for k, v := range r.data {
		out[k] = copyValue(v)
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out, nil
}

func (r *Record) applyFields(f Fields) error {
	staged := make(map[string]interface{})
	for name, v := range f.supplied() {
		cv, err := coerce(schemaIndex[name], v)
		if err != nil {
			return err
		}
		staged[name] = cv
	}
	for k, v := range staged {
		r.data[k] = v
	}
	return nil
}

func (r *Record) applyMap(m map[string]interface{}) error {
	keys := lo.Keys(m)
	sort.Strings(keys)

	staged := make(map[string]interface{}, len(m))
	for _, k := range keys {
		field, ok := schemaIndex[k]
		if !ok {
			return errors.Wrapf(ErrUnknownField, "%q", k)
		}
		if k == FieldProcessID {
			continue
		}
		cv, err := coerce(field, m[k])
		if err != nil {
			return err
		}
		staged[k] = cv
	}

	for k, v := range staged {
		r.data[k] = v
	}
	return nil
}
