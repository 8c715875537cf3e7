// Package collecting samples live host resource usage.
package collecting

// Sampler takes a fresh host stats reading on every call.
type Sampler interface {
	Sample(unit Unit) (*Snapshot, error)
}

// Collector reads host statistics from procfs, sysfs and statfs.
type Collector struct {
	procRoot   string
	sysRoot    string
	mountPoint string
}

// Option configures a Collector.
type Option func(*Collector)

// WithProcRoot overrides the procfs mount, mostly useful for tests and
// for reading a host /proc mounted into a container.
func WithProcRoot(path string) Option {
	return func(c *Collector) {
		c.procRoot = path
	}
}

// WithSysRoot overrides the sysfs mount.
func WithSysRoot(path string) Option {
	return func(c *Collector) {
		c.sysRoot = path
	}
}

// WithMountPoint sets the filesystem whose usage is reported.
func WithMountPoint(path string) Option {
	return func(c *Collector) {
		if path != "" {
			c.mountPoint = path
		}
	}
}

// NewCollector creates a Collector reading from the default locations.
func NewCollector(opts ...Option) *Collector {
	c := &Collector{
		procRoot:   procDir,
		sysRoot:    sysDir,
		mountPoint: defaultMountPoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sample reads every statistic again. Nothing is cached between calls.
func (c *Collector) Sample(unit Unit) (*Snapshot, error) {
	var s HostStats
	var err error

	s.CPUCount = cpuCount()
	s.CPUFreqMHz = c.cpuFreq()

	if s.MemoryTotal, s.MemoryUsed, s.MemoryAvailable, err = c.memory(); err != nil {
		return nil, err
	}
	if s.DiskTotal, s.DiskUsed, s.DiskFree, err = c.disk(); err != nil {
		return nil, err
	}
	if s.BytesSent, s.BytesRecv, err = c.network(); err != nil {
		return nil, err
	}
	if s.Uptime, err = c.uptime(); err != nil {
		return nil, err
	}

	return &Snapshot{HostStats: s, Unit: unit}, nil
}
