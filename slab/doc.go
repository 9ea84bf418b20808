// Package slab provides persisted, memory-mapped byte regions ("slabs").
//
// # File Structure
//
// A slab file is a one-page header followed by a data region:
//
//	[Header - 4KB] [data region - DataSize bytes]
//
// The header records the layout kind (fixed, growable, table), the data
// region size, the owner identity and namespace tag, and a pair of sequence
// numbers that bracket every invocation (see the tx subpackage).
//
// # Opening a Slab
//
//	r, err := slab.Open("/var/lib/slabkit/5f0e....slab")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
// On unix the file is mapped read-write and shared, so writes into Data() land
// in the page cache directly and nothing is ever copied into process memory in
// bulk. Other platforms load the file into memory and write it back on close.
//
// # Growth
//
// Append extends the file and remaps it. New bytes are zero. The data size in
// the header is only updated after the remap succeeds, and Open cuts any
// trailing bytes beyond the recorded size, so a grow is either fully visible
// or not at all.
//
// # Related Packages
//
//   - slab/fixed: fixed-capacity zero-copy buffer
//   - slab/growable: naive length-prefixed buffer
//   - slab/records: fixed-width record table
//   - slab/realloc: growth-only capacity changes
//   - slab/dirty, slab/tx: durability
package slab
