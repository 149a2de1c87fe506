package ot

import "encoding/binary"

// Reading and writing bytes of a font's binary representation

func u16(b []byte) uint16 {
	_ = b[1] // Bounds check hint to compiler
	return uint16(b[0])<<8 | uint16(b[1])<<0
}

func u32(b []byte) uint32 {
	_ = b[3] // Bounds check hint to compiler
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])<<0
}

func putU16(b []byte, v uint16) {
	binary.BigEndian.PutUint16(b, v)
}

func putU32(b []byte, v uint32) {
	binary.BigEndian.PutUint32(b, v)
}

// Checksum calculates the OpenType checksum of a table: the sum of its
// big-endian uint32 words, with a trailing partial word padded by zeros.
func Checksum(data []byte) uint32 {
	var sum uint32
	n := len(data)
	for i := 0; i+4 <= n; i += 4 {
		sum += u32(data[i:])
	}
	if rest := n % 4; rest > 0 {
		var last uint32
		off := n - rest
		for i := 0; i < rest; i++ {
			last |= uint32(data[off+i]) << (24 - i*8)
		}
		sum += last
	}
	return sum
}

func pad4(n int) int {
	return (n + 3) &^ 3
}
