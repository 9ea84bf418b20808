//go:build !linux && !freebsd && !darwin

package dirty

import "context"

// flushRanges writes each coalesced range back through the file. Used where
// the region is an in-memory copy or msync sub-ranges are not portable.
func (t *Tracker) flushRanges(ctx context.Context, data []byte, ranges []Range) error {
	f := t.r.File()
	for _, r := range ranges {
		if err := ctx.Err(); err != nil {
			return err
		}
		start, end, ok := dataSpan(r, len(data))
		if !ok {
			continue
		}
		if _, err := f.WriteAt(data[start:end], int64(start)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tracker) syncHeader(header []byte) error {
	_, err := t.r.File().WriteAt(header, 0)
	return err
}

func (t *Tracker) syncFile(_ bool) error {
	return t.r.File().Sync()
}
