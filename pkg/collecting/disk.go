package collecting

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// disk returns total, used and free bytes of the filesystem holding the
// configured mount point. Free is what an unprivileged user can allocate.
func (c *Collector) disk() (total, used, free uint64, err error) {
	var st unix.Statfs_t
	if err := unix.Statfs(c.mountPoint, &st); err != nil {
		return 0, 0, 0, errors.Wrapf(err, "statfs %s", c.mountPoint)
	}

	bsize := uint64(st.Bsize)
	total = uint64(st.Blocks) * bsize
	free = uint64(st.Bavail) * bsize
	used = (uint64(st.Blocks) - uint64(st.Bfree)) * bsize
	return total, used, free, nil
}
