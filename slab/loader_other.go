//go:build !unix

package slab

import (
	"fmt"
	"io"
	"math"
	"os"
)

// mapFile reads the whole file when mmap is not available.
func mapFile(f *os.File, size int64) ([]byte, error) {
	if size <= 0 || size > math.MaxInt {
		return nil, fmt.Errorf("cannot load %d bytes", size)
	}
	data := make([]byte, size)
	if _, err := f.ReadAt(data, 0); err != nil && err != io.EOF {
		return nil, err
	}
	return data, nil
}

// unmapFile writes the in-memory copy back, standing in for the shared mapping.
func unmapFile(f *os.File, data []byte) error {
	if _, err := f.WriteAt(data, 0); err != nil {
		return fmt.Errorf("write back: %w", err)
	}
	return nil
}
