// Package format holds the on-disk layout of slab files: the header page
// offsets, the region kinds and the little-endian primitives used to read and
// write them. Higher-level packages never hard-code offsets.
package format

// Signature is the four-byte signature at the start of every slab file.
//
//	0x00  's' 'l' 'a' 'b'
var Signature = []byte{'s', 'l', 'a', 'b'}

const (
	// HeaderSize is the size of the header page. The data region always starts
	// on the following page so dirty tracking can flush it independently.
	HeaderSize = 4096

	// PageSize is the flush granularity used for dirty range coalescing.
	PageSize = 4096

	// Version is the only layout version this package writes or accepts.
	Version = 1

	// DWORDSize is the width of a checksum word.
	DWORDSize = 4
)

// Header field offsets.
const (
	SignatureOffset    = 0x00
	SignatureSize      = 4
	PrimarySeqOffset   = 0x04
	SecondarySeqOffset = 0x08
	TimeStampOffset    = 0x0C
	VersionOffset      = 0x14
	KindOffset         = 0x18
	DataSizeOffset     = 0x20
	OwnerOffset        = 0x28
	OwnerSize          = 32
	TagOffset          = 0x48
	TagSize            = 32
	CheckSumOffset     = 0x1FC

	// ChecksumDwords is the number of leading dwords covered by the checksum
	// (everything before the checksum field itself).
	ChecksumDwords = CheckSumOffset / DWORDSize

	// ChecksumRegionLen is the byte length covered by the checksum.
	ChecksumRegionLen = CheckSumOffset
)

// LengthPrefixSize is the width of the content length stored at the start of a
// growable region.
const LengthPrefixSize = 4

// Kind identifies which layout the data region of a slab uses.
type Kind uint32

const (
	KindUnknown  Kind = 0
	KindFixed    Kind = 1 // opaque capacity-sized byte region
	KindGrowable Kind = 2 // u32 length prefix followed by content
	KindTable    Kind = 3 // contiguous fixed-width record slots
)

func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindGrowable:
		return "growable"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// Valid reports whether k is a kind this package can open.
func (k Kind) Valid() bool {
	return k >= KindFixed && k <= KindTable
}

// AlignPage returns n aligned up to the next page boundary.
//
//	AlignPage(1)    = 4096
//	AlignPage(4096) = 4096
//	AlignPage(4097) = 8192
func AlignPage(n int64) int64 {
	return (n + PageSize - 1) &^ (PageSize - 1)
}

// AlignPageDown returns n rounded down to a page boundary.
func AlignPageDown(n int64) int64 {
	return n &^ (PageSize - 1)
}
