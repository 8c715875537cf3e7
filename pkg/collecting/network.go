package collecting

import (
	"path/filepath"
	"strings"

	"PipelineMonitor/pkg/probing"
)

// network sums byte counters over all non-loopback interfaces.
func (c *Collector) network() (sent, recv uint64, err error) {
	lines, err := probing.FileLines(filepath.Join(c.procRoot, "net/dev"))
	if err != nil {
		return 0, 0, err
	}

	// Skip header lines
	for i := 2; i < len(lines); i++ {
		parts := strings.SplitN(lines[i], ":", 2)
		if len(parts) != 2 {
			continue
		}

		iface := strings.TrimSpace(parts[0])
		if iface == loopbackInterface {
			continue
		}

		fields := strings.Fields(parts[1])
		if len(fields) < 9 {
			continue
		}

		r, errR := probing.ParseInt64(fields[0])
		s, errS := probing.ParseInt64(fields[8])
		if errR != nil || errS != nil {
			continue
		}
		recv += uint64(r)
		sent += uint64(s)
	}

	return sent, recv, nil
}
