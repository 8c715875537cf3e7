package metrics

import (
	"github.com/pkg/errors"
)

// RefreshEnvironment fills absent environment-backed fields from the
// process environment. Unset variables leave the field absent.
func (r *Record) RefreshEnvironment() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshEnvironment()
}

// RefreshTimestamp sets timestamp, timezone and execution_date from the
// current UTC time.
func (r *Record) RefreshTimestamp() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshTimestamp()
}

// RefreshHostStats stores a new host stats reading in machine_stats. On
// error the previous value is kept.
func (r *Record) RefreshHostStats() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshHostStats()
}

// Refresh runs the environment, timestamp and host stats refresh in order.
func (r *Record) Refresh() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refresh()
}

func (r *Record) refresh() error {
	r.refreshEnvironment()
	r.refreshTimestamp()
	return r.refreshHostStats()
}

func (r *Record) refreshEnvironment() {
	for _, f := range Schema {
		if f.Env == "" || r.data[f.Name] != nil {
			continue
		}
		if v, ok := r.lookupEnv(f.Env); ok {
			r.data[f.Name] = v
		}
	}
}

func (r *Record) refreshTimestamp() {
	now := r.now().UTC()
	r.data[FieldTimestamp] = formatTime(now)
	r.data[FieldTimezone] = timezoneUTC
	r.data[FieldExecutionDate] = now.Format(executionDateForm)
}

func (r *Record) refreshHostStats() error {
	snap, err := r.sampler.Sample(HostStatsUnit)
	if err != nil {
		return errors.Wrap(err, "sample host stats")
	}
	msg, err := snap.ToMessage()
	if err != nil {
		return err
	}
	r.data[FieldMachineStats] = msg
	return nil
}
