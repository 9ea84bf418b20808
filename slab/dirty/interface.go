package dirty

import "context"

// DirtyTracker is the minimal interface for recording modified byte ranges.
// Offsets are absolute file offsets, header page included.
//
// Buffers and tables only notify; they never flush.
type DirtyTracker interface {
	Add(off, length int)
}

// FlushableTracker extends DirtyTracker with the flush and discard operations
// the transaction manager drives.
type FlushableTracker interface {
	DirtyTracker

	// FlushDataOnly flushes the data regions (not the header page).
	FlushDataOnly(ctx context.Context) error

	// FlushHeaderAndMeta flushes the header page and syncs per mode.
	FlushHeaderAndMeta(ctx context.Context, mode FlushMode) error

	// Reset drops every recorded range and saved pre-image without flushing.
	Reset()

	// Undo restores the bytes every recorded range held before it was added.
	Undo()
}
