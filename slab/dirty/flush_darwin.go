//go:build darwin

package dirty

import (
	"context"

	"golang.org/x/sys/unix"
)

// flushRanges syncs the entire mapping. Darwin's msync wants the original
// mapping address, and the kernel only writes pages that are actually dirty.
func (t *Tracker) flushRanges(ctx context.Context, data []byte, _ []Range) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return unix.Msync(data, unix.MS_SYNC)
}

func (t *Tracker) syncHeader(_ []byte) error {
	return unix.Msync(t.r.Bytes(), unix.MS_SYNC)
}

// syncFile uses F_FULLFSYNC for power-loss durability when requested;
// otherwise plain fsync, since macOS has no fdatasync.
func (t *Tracker) syncFile(fullfsync bool) error {
	if fullfsync {
		_, err := unix.FcntlInt(uintptr(t.r.FD()), unix.F_FULLFSYNC, 0)
		return err
	}
	return unix.Fsync(t.r.FD())
}
