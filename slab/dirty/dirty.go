// Package dirty tracks modified byte ranges of a mapped slab and flushes them
// to disk.
//
// Ranges are kept ordered by offset in a B-tree so flush-time coalescing is a
// single ascending pass. At flush time they are page-aligned and merged, then
// written with msync (unix) or WriteAt (elsewhere).
package dirty

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/btree"

	"github.com/joshuapare/slabkit/internal/format"
	"github.com/joshuapare/slabkit/slab"
)

// btreeDegree keeps nodes small; a typical invocation records a handful of ranges.
const btreeDegree = 8

// FlushMode controls durability guarantees for commits.
type FlushMode int

const (
	// FlushAuto msyncs dirty data pages, then the header, then fdatasyncs.
	// On macOS fsync is used since fdatasync is unavailable.
	FlushAuto FlushMode = iota

	// FlushDataOnly only msyncs. The caller is responsible for syncing the
	// file descriptor later, e.g. when batching invocations.
	FlushDataOnly

	// FlushFull is FlushAuto plus F_FULLFSYNC on macOS.
	FlushFull
)

func (m FlushMode) String() string {
	switch m {
	case FlushAuto:
		return "auto"
	case FlushDataOnly:
		return "data"
	case FlushFull:
		return "full"
	default:
		return fmt.Sprintf("FlushMode(%d)", int(m))
	}
}

// ParseFlushMode parses the config spelling of a flush mode. Empty means auto.
func ParseFlushMode(s string) (FlushMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FlushAuto, nil
	case "data", "data-only":
		return FlushDataOnly, nil
	case "full":
		return FlushFull, nil
	default:
		return FlushAuto, fmt.Errorf("dirty: unknown flush mode %q", s)
	}
}

// Range represents a dirty byte range (absolute file offsets).
type Range struct {
	Off int64 // Absolute offset in file
	Len int64 // Length in bytes
}

func (r Range) end() int64 { return r.Off + r.Len }

func rangeLess(a, b Range) bool { return a.Off < b.Off }

// preimage holds the bytes of a range as they were before it was recorded.
type preimage struct {
	off  int
	data []byte
}

// Tracker accumulates dirty ranges and flushes them efficiently. Every Add
// also saves the current bytes of the range so Undo can put them back.
//
// NOT thread-safe. Only one goroutine should use it at a time.
type Tracker struct {
	r      *slab.Region
	ranges *btree.BTreeG[Range]
	undo   []preimage
}

// NewTracker creates a dirty tracker for the given region.
func NewTracker(r *slab.Region) *Tracker {
	return &Tracker{
		r:      r,
		ranges: btree.NewG[Range](btreeDegree, rangeLess),
	}
}

// Add records a dirty range. It must be called before the range is
// modified: the bytes found there are kept for Undo. Ranges starting at the
// same offset keep the longer length; everything else is merged at flush
// time.
func (t *Tracker) Add(off, length int) {
	if length <= 0 || off < 0 {
		return
	}
	t.save(off, length)
	r := Range{Off: int64(off), Len: int64(length)}
	if prev, ok := t.ranges.Get(r); ok && prev.Len >= r.Len {
		return
	}
	t.ranges.ReplaceOrInsert(r)
}

// save copies the current bytes of [off, off+length), clipped to the mapping.
// Bytes past the end belong to a grow that has not happened yet; shrinking
// the region discards them.
func (t *Tracker) save(off, length int) {
	data := t.r.Bytes()
	if off >= len(data) {
		return
	}
	end := min(off+length, len(data))
	t.undo = append(t.undo, preimage{off: off, data: append([]byte(nil), data[off:end]...)})
}

// Undo writes every saved pre-image back into the mapping, newest first, and
// forgets the recorded ranges. Pre-images lying beyond a mapping that has
// since shrunk are clipped.
func (t *Tracker) Undo() {
	data := t.r.Bytes()
	for i := len(t.undo) - 1; i >= 0; i-- {
		p := t.undo[i]
		if p.off >= len(data) {
			continue
		}
		copy(data[p.off:], p.data)
	}
	t.Reset()
}

// Len returns the number of distinct recorded ranges.
func (t *Tracker) Len() int { return t.ranges.Len() }

// FlushDataOnly flushes all dirty data ranges (not the header page) to disk.
//
// The context can be used to cancel the flush. If cancelled mid-way some
// ranges may have been flushed while others have not; the ranges are kept
// so a retry flushes them again.
func (t *Tracker) FlushDataOnly(ctx context.Context) error {
	if t.ranges.Len() == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data := t.r.Bytes()
	if len(data) == 0 {
		return nil
	}

	if err := t.flushRanges(ctx, data, t.coalesce()); err != nil {
		return err
	}

	t.ranges.Clear(false)
	return nil
}

// FlushHeaderAndMeta flushes the header page and, unless mode is
// FlushDataOnly, syncs the file descriptor.
func (t *Tracker) FlushHeaderAndMeta(ctx context.Context, mode FlushMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data := t.r.Bytes()
	if len(data) == 0 {
		return nil
	}

	headerLen := min(format.PageSize, len(data))
	if err := t.syncHeader(data[:headerLen]); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if mode == FlushDataOnly {
		return nil
	}
	return t.syncFile(mode == FlushFull)
}

// Reset clears all tracked ranges and saved pre-images. The transaction
// manager calls it once a commit is durable.
func (t *Tracker) Reset() {
	t.ranges.Clear(false)
	t.undo = t.undo[:0]
}

// DebugRanges returns the recorded ranges in offset order, uncoalesced.
func (t *Tracker) DebugRanges() []Range {
	out := make([]Range, 0, t.ranges.Len())
	t.ranges.Ascend(func(r Range) bool {
		out = append(out, r)
		return true
	})
	return out
}

// DebugCoalescedRanges returns the page-aligned, merged ranges a flush would write.
func (t *Tracker) DebugCoalescedRanges() []Range {
	return t.coalesce()
}

// coalesce page-aligns every range and merges overlapping or adjacent ones.
// The tree is ordered by start offset, and rounding starts down preserves
// that order, so one pass suffices.
func (t *Tracker) coalesce() []Range {
	if t.ranges.Len() == 0 {
		return nil
	}

	merged := make([]Range, 0, t.ranges.Len())
	var cur Range
	have := false
	t.ranges.Ascend(func(r Range) bool {
		start := format.AlignPageDown(r.Off)
		next := Range{Off: start, Len: format.AlignPage(r.end()) - start}

		switch {
		case !have:
			cur, have = next, true
		case next.Off <= cur.end():
			if next.end() > cur.end() {
				cur.Len = next.end() - cur.Off
			}
		default:
			merged = append(merged, cur)
			cur = next
		}
		return true
	})
	return append(merged, cur)
}

// dataSpan clips a coalesced range to the data region of a mapping of n
// bytes. ok is false when nothing remains.
func dataSpan(r Range, n int) (start, end int, ok bool) {
	start = int(max(r.Off, format.HeaderSize))
	end = int(min(r.end(), int64(n)))
	return start, end, start < end
}
