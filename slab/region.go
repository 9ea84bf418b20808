package slab

import (
	"errors"
	"fmt"
	"os"

	"github.com/joshuapare/slabkit/internal/format"
	"github.com/joshuapare/slabkit/pkg/types"
)

// Region is an opened slab file, backed by a shared read-write mmap on unix
// and by a byte slice written back on close elsewhere.
//
// A Region is NOT safe for concurrent use.
type Region struct {
	f      *os.File
	path   string
	data   []byte
	size   int64
	header *Header
}

// Create makes a new slab file at path with a zero-filled data region of
// dataSize bytes. The file must not already exist.
func Create(path string, kind format.Kind, dataSize int64, owner types.Key, tag string) (*Region, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("slab: invalid kind %d", uint32(kind))
	}
	if dataSize < 0 {
		return nil, fmt.Errorf("slab: negative data size %d", dataSize)
	}
	if len(tag) > format.TagSize {
		return nil, fmt.Errorf("slab: tag %q longer than %d bytes", tag, format.TagSize)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", types.ErrExists, path)
		}
		return nil, err
	}

	size := format.HeaderSize + dataSize
	// Truncate extends with zeros; the data region is never written here.
	if err := f.Truncate(size); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("slab: allocate %d bytes: %w", size, err)
	}

	data, err := mapFile(f, size)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("slab: map failed: %w", err)
	}
	writeHeader(data, kind, dataSize, owner, tag)

	h, err := ParseHeader(data)
	if err != nil {
		_ = unmapFile(f, data)
		_ = f.Close()
		_ = os.Remove(path)
		return nil, err
	}
	return &Region{f: f, path: path, data: data, size: size, header: h}, nil
}

// Open maps an existing slab file read-write so it can be mutated in place.
func Open(path string) (*Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", types.ErrNotFound, path)
		}
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	sz := st.Size()
	if sz < format.HeaderSize {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s is %d bytes", types.ErrNotSlab, path, sz)
	}

	data, err := mapFile(f, sz)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("slab: map failed: %w", err)
	}

	h, err := ParseHeader(data)
	if err != nil {
		_ = unmapFile(f, data)
		_ = f.Close()
		return nil, err
	}
	if err := h.ValidateSanity(sz); err != nil {
		_ = unmapFile(f, data)
		_ = f.Close()
		return nil, err
	}

	r := &Region{f: f, path: path, data: data, size: sz, header: h}

	// A grow that extended the file but never recorded the new data size leaves
	// trailing slack. The header is authoritative: cut back to it so the
	// interrupted grow is invisible.
	logicalEnd := format.HeaderSize + h.DataSize()
	if sz > logicalEnd {
		if err := r.truncate(logicalEnd); err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("slab: truncate trailing slack: %w", err)
		}
	}
	return r, nil
}

// Close releases the mapping and the file. Closing twice is a no-op.
func (r *Region) Close() error {
	if r == nil || r.f == nil {
		return nil
	}
	var err error
	if r.data != nil {
		err = unmapFile(r.f, r.data)
		r.data = nil
	}
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	r.f = nil
	r.header = nil
	return err
}

// Path returns the file path the region was opened from.
func (r *Region) Path() string { return r.path }

// Bytes returns the whole mapping, header page included. The slice is only
// valid until the next Append or Close.
func (r *Region) Bytes() []byte { return r.data }

// Data returns the data region that follows the header page. This is a view
// into the mapping, not a copy.
func (r *Region) Data() []byte {
	if r == nil || len(r.data) < format.HeaderSize {
		return nil
	}
	return r.data[format.HeaderSize:]
}

// DataSize returns the current data region size.
func (r *Region) DataSize() int64 {
	if r == nil || r.header == nil {
		return 0
	}
	return r.header.DataSize()
}

// Header returns the header view.
func (r *Region) Header() *Header { return r.header }

// Kind returns the layout kind recorded in the header.
func (r *Region) Kind() format.Kind {
	if r == nil || r.header == nil {
		return format.KindUnknown
	}
	return r.header.Kind()
}

// Size returns the file size including the header page.
func (r *Region) Size() int64 { return r.size }

// File returns the underlying file.
func (r *Region) File() *os.File { return r.f }

// FD returns the file descriptor, or -1 when closed.
func (r *Region) FD() int {
	if r == nil || r.f == nil {
		return -1
	}
	return int(r.f.Fd())
}

// Append grows the data region by n bytes and remaps. New bytes are
// zero-initialized. The new size is recorded in the header only after the
// remap succeeded; on any failure the previous mapping is restored and the
// region keeps its prior size.
func (r *Region) Append(n int64) error {
	if r == nil || r.f == nil {
		return types.ErrClosed
	}
	if n <= 0 {
		return nil
	}
	oldSize := r.size
	newSize := oldSize + n
	if newSize < oldSize {
		return fmt.Errorf("slab: append of %d bytes overflows", n)
	}

	if err := r.remap(newSize); err != nil {
		return err
	}

	format.PutU64(r.data, format.DataSizeOffset, uint64(newSize-format.HeaderSize))
	return nil
}

// Shrink cuts the data region back to dataSize bytes and records the new
// size in the header. It undoes an Append whose invocation failed.
func (r *Region) Shrink(dataSize int64) error {
	if r == nil || r.f == nil {
		return types.ErrClosed
	}
	if dataSize < 0 {
		return fmt.Errorf("slab: negative data size %d", dataSize)
	}
	if err := r.truncate(format.HeaderSize + dataSize); err != nil {
		return err
	}
	format.PutU64(r.data, format.DataSizeOffset, uint64(dataSize))
	return nil
}

// truncate shrinks the file to newSize. It never grows.
func (r *Region) truncate(newSize int64) error {
	if newSize < format.HeaderSize {
		return fmt.Errorf("slab: truncate size %d too small (minimum %d)", newSize, format.HeaderSize)
	}
	if newSize > r.size {
		return fmt.Errorf("slab: truncate cannot grow (current: %d, requested: %d)", r.size, newSize)
	}
	if newSize == r.size {
		return nil
	}
	return r.remap(newSize)
}

// remap resizes the file to newSize and maps it again. On failure the old
// size and mapping are restored.
func (r *Region) remap(newSize int64) error {
	oldSize := r.size

	if r.data != nil {
		if err := unmapFile(r.f, r.data); err != nil {
			return fmt.Errorf("slab: failed to unmap before resize: %w", err)
		}
		r.data = nil
	}

	if err := r.f.Truncate(newSize); err != nil {
		r.restore(oldSize)
		return fmt.Errorf("slab: failed to resize file: %w", err)
	}

	data, err := mapFile(r.f, newSize)
	if err != nil {
		_ = r.f.Truncate(oldSize)
		r.restore(oldSize)
		return fmt.Errorf("slab: failed to remap after resize: %w", err)
	}

	r.data = data
	r.size = newSize
	// The old header view points into the released mapping.
	r.header = &Header{raw: data[:format.HeaderSize:format.HeaderSize]}
	return nil
}

func (r *Region) restore(size int64) {
	data, err := mapFile(r.f, size)
	if err != nil {
		return
	}
	r.data = data
	r.header = &Header{raw: data[:format.HeaderSize:format.HeaderSize]}
}
