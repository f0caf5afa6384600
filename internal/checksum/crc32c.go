// Package checksum implements CRC-32C (Castagnoli) with the rotate-and-add
// masking scheme used for SST block trailers.
package checksum

import (
	"hash/crc32"
)

// crc32cTable is the Castagnoli polynomial table used for CRC32C.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// maskDelta is the constant added during masking.
const maskDelta = 0xa282ead8

// Value computes the CRC32C checksum of data.
func Value(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// Extend computes the CRC32C of concat(A, data) where initCRC is the CRC32C of A.
func Extend(initCRC uint32, data []byte) uint32 {
	return crc32.Update(initCRC, crc32cTable, data)
}

// Mask returns a masked representation of crc.
//
// Masking avoids storing a CRC inside data whose own CRC is later computed,
// which would otherwise make the stored checksum crash into its own input.
func Mask(crc uint32) uint32 {
	return ((crc >> 15) | (crc << 17)) + maskDelta
}

// Unmask returns the crc whose masked representation is maskedCRC.
func Unmask(maskedCRC uint32) uint32 {
	rot := maskedCRC - maskDelta
	return (rot >> 17) | (rot << 15)
}

// MaskedValue computes the CRC32C and masks it in one call.
func MaskedValue(data []byte) uint32 {
	return Mask(Value(data))
}

// MaskedExtend extends an existing CRC and masks the result.
func MaskedExtend(initCRC uint32, data []byte) uint32 {
	return Mask(Extend(initCRC, data))
}
