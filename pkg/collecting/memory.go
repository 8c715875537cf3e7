package collecting

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"PipelineMonitor/pkg/probing"
)

// memory returns total, used and available bytes from meminfo.
func (c *Collector) memory() (total, used, available uint64, err error) {
	info, err := c.memInfo()
	if err != nil {
		return 0, 0, 0, err
	}

	memTotal, ok := info["MemTotal"]
	if !ok {
		return 0, 0, 0, errors.New("meminfo: no MemTotal")
	}
	memAvailable, ok := info["MemAvailable"]
	if !ok {
		// Kernels before 3.14 lack MemAvailable
		memAvailable = info["MemFree"] + info["Buffers"] + info["Cached"] + info["SReclaimable"]
	}

	total = memTotal * bytesPerKilobyte
	available = memAvailable * bytesPerKilobyte
	if available > total {
		available = total
	}
	return total, total - available, available, nil
}

func (c *Collector) memInfo() (map[string]uint64, error) {
	kv, err := probing.FileKV(filepath.Join(c.procRoot, "meminfo"), ":")
	if err != nil {
		return nil, err
	}
	result := make(map[string]uint64, len(kv))
	for k, v := range kv {
		v = strings.TrimSpace(strings.TrimSuffix(v, " kB"))
		n, err := probing.ParseInt64(v)
		if err != nil || n < 0 {
			continue
		}
		result[k] = uint64(n)
	}
	return result, nil
}
