package collecting

import (
	"path/filepath"
	"runtime"
	"strings"

	"PipelineMonitor/pkg/probing"
)

func cpuCount() int {
	return runtime.NumCPU()
}

// cpuFreq returns the average current frequency across cores in MHz, or 0
// when neither cpufreq nor /proc/cpuinfo report one (common in VMs).
func (c *Collector) cpuFreq() float64 {
	pattern := filepath.Join(c.sysRoot, "devices/system/cpu/cpu*/cpufreq/scaling_cur_freq")
	if files, err := filepath.Glob(pattern); err == nil && len(files) > 0 {
		var total, count int64
		for _, f := range files {
			val, err := probing.FileInt(f)
			if err != nil || val <= 0 {
				continue
			}
			total += val
			count++
		}
		if count > 0 {
			return float64(total) / float64(count) / khzPerMhz
		}
	}

	lines, err := probing.FileLines(filepath.Join(c.procRoot, "cpuinfo"))
	if err != nil {
		return 0
	}
	var total float64
	var count int
	for _, line := range lines {
		if !strings.HasPrefix(line, "cpu MHz") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		mhz, err := probing.ParseFloat64(parts[1])
		if err != nil {
			continue
		}
		total += mhz
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}
