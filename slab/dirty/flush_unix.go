//go:build linux || freebsd

package dirty

import (
	"context"

	"golang.org/x/sys/unix"
)

// flushRanges msyncs each coalesced range. Linux and FreeBSD accept
// page-aligned sub-slices of a mapping.
func (t *Tracker) flushRanges(ctx context.Context, data []byte, ranges []Range) error {
	for _, r := range ranges {
		if err := ctx.Err(); err != nil {
			return err
		}
		start, end, ok := dataSpan(r, len(data))
		if !ok {
			continue
		}
		if err := unix.Msync(data[start:end], unix.MS_SYNC); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tracker) syncHeader(header []byte) error {
	return unix.Msync(header, unix.MS_SYNC)
}

// syncFile fdatasyncs; fullfsync has no extra meaning here.
func (t *Tracker) syncFile(_ bool) error {
	return unix.Fdatasync(t.r.FD())
}
