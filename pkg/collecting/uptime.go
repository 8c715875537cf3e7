package collecting

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"PipelineMonitor/pkg/probing"
)

// uptime reads the time since boot from /proc/uptime.
func (c *Collector) uptime() (time.Duration, error) {
	content, err := probing.File(filepath.Join(c.procRoot, "uptime"))
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return 0, errors.New("uptime: empty file")
	}
	secs, err := probing.ParseFloat64(fields[0])
	if err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}
