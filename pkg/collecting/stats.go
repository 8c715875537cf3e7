package collecting

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"
)

// Unit selects the divisor applied to byte-valued statistics.
type Unit string

const (
	MB Unit = "MB"
	GB Unit = "GB"
)

// ParseUnit accepts "MB" or "GB" in any case.
func ParseUnit(s string) (Unit, error) {
	switch Unit(strings.ToUpper(strings.TrimSpace(s))) {
	case MB:
		return MB, nil
	case GB:
		return GB, nil
	}
	return "", errors.Errorf("unsupported unit %q (valid: MB, GB)", s)
}

// Divisor returns the number of bytes in one unit. Anything that is not GB
// is treated as MB.
func (u Unit) Divisor() float64 {
	if u == GB {
		return float64(datasize.GB)
	}
	return float64(datasize.MB)
}

func (u Unit) String() string {
	if u == GB {
		return string(GB)
	}
	return string(MB)
}

// HostStats is a raw point-in-time reading. Byte values are in bytes.
type HostStats struct {
	CPUCount        int
	CPUFreqMHz      float64
	MemoryTotal     uint64
	MemoryUsed      uint64
	MemoryAvailable uint64
	DiskTotal       uint64
	DiskUsed        uint64
	DiskFree        uint64
	BytesSent       uint64
	BytesRecv       uint64
	Uptime          time.Duration
}

// Snapshot is a HostStats reading rendered in a unit.
type Snapshot struct {
	HostStats
	Unit Unit
}

// Values returns every byte-valued statistic divided by the unit divisor.
func (s *Snapshot) Values() map[string]float64 {
	d := s.Unit.Divisor()
	return map[string]float64{
		KeyVirtualMemory: float64(s.MemoryTotal) / d,
		KeyUsedMemory:    float64(s.MemoryUsed) / d,
		KeyFreeMemory:    float64(s.MemoryAvailable) / d,
		KeyDiskUsage:     float64(s.DiskTotal) / d,
		KeyUsedDisk:      float64(s.DiskUsed) / d,
		KeyFreeDisk:      float64(s.DiskFree) / d,
		KeyBytesSent:     float64(s.BytesSent) / d,
		KeyBytesRecv:     float64(s.BytesRecv) / d,
	}
}

// UptimeHours returns the time since boot in hours.
func (s *Snapshot) UptimeHours() float64 {
	return s.Uptime.Hours()
}

// Summary renders the snapshot as human readable strings, e.g.
// "virtual_memory": "15.523 GB".
func (s *Snapshot) Summary() map[string]string {
	unit := s.Unit.String()
	out := make(map[string]string, 11)
	out[KeyCPUCount] = fmt.Sprintf("%d cores", s.CPUCount)
	out[KeyCPUFreq] = strconv.FormatFloat(s.CPUFreqMHz, 'f', -1, 64) + " MHz"
	for k, v := range s.Values() {
		out[k] = fmt.Sprintf("%.3f %s", v, unit)
	}
	out[KeyUptime] = fmt.Sprintf("%.2f hours", s.UptimeHours())
	return out
}

// ToMessage serializes the summary as a JSON object, suitable for storing
// in a single record field.
func (s *Snapshot) ToMessage() (string, error) {
	data, err := json.Marshal(s.Summary())
	if err != nil {
		return "", errors.Wrap(err, "marshal host stats")
	}
	return string(data), nil
}
