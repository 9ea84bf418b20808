// Package buf contains overflow-safe bounds helpers for slicing persisted
// regions. Every accessor that turns caller-supplied offsets into a sub-slice
// goes through here so no arithmetic can wrap past a region end.
package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative ints, returning ok = false on
// overflow or when either operand is negative.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// CheckListBounds validates that count elements of elementSize bytes fit in a
// region of regionLen bytes starting at offset. Returns the end offset.
//
//	end, err := buf.CheckListBounds(len(data), 0, slots, slotSize)
//	if err != nil {
//	    return fmt.Errorf("table: %w", err)
//	}
func CheckListBounds(regionLen, offset, count, elementSize int) (int, error) {
	if offset < 0 {
		return 0, fmt.Errorf("negative offset: %d", offset)
	}
	if count < 0 {
		return 0, fmt.Errorf("negative count: %d", count)
	}
	total, ok := MulOverflowSafe(count, elementSize)
	if !ok {
		return 0, fmt.Errorf("overflow: count=%d * elemSize=%d", count, elementSize)
	}
	end, ok := AddOverflowSafe(offset, total)
	if !ok {
		return 0, fmt.Errorf("overflow: offset=%d + size=%d", offset, total)
	}
	if end > regionLen {
		return 0, fmt.Errorf("bounds: end=%d > len=%d", end, regionLen)
	}
	return end, nil
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end:end], true
}

// Slice64 is Slice for 64-bit file offsets. Offsets that do not fit in an int
// are out of bounds by definition.
func Slice64(b []byte, off int64, n int) ([]byte, bool) {
	if off < 0 || off > int64(math.MaxInt) {
		return nil, false
	}
	return Slice(b, int(off), n)
}
