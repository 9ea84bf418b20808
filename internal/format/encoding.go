package format

import "encoding/binary"

// Little-endian primitives for header fields and record payloads. Callers are
// responsible for bounds; these helpers panic on short slices like the
// encoding/binary functions they wrap.

// PutU32 writes a uint32 value to the buffer at the specified offset in little-endian format.
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// PutU64 writes a uint64 value to the buffer at the specified offset in little-endian format.
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// ReadU32 reads a uint32 value from the buffer at the specified offset in little-endian format.
func ReadU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

// ReadU64 reads a uint64 value from the buffer at the specified offset in little-endian format.
func ReadU64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}

// Checksum computes the header checksum: the XOR of the first 127 dwords.
// The checksum field itself is not included. All-zero and all-one results are
// remapped so a zeroed or erased page never carries a valid checksum.
func Checksum(header []byte) uint32 {
	if len(header) < ChecksumRegionLen {
		return 0
	}
	var sum uint32
	for i := range ChecksumDwords {
		sum ^= ReadU32(header, i*DWORDSize)
	}
	switch sum {
	case 0xFFFFFFFF:
		return 0xFFFFFFFE
	case 0:
		return 1
	}
	return sum
}
