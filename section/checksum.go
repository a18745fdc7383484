package section

import (
	"encoding/binary"
	"math/bits"
)

// Checksum computes the rolling checksum of data with the four bytes of field
// read as zero. An absent field checksums the whole buffer as is.
func Checksum(data []byte, field Field) uint32 {
	var sum uint32
	for i, b := range data {
		if field.Present() && i >= field.Offset && i < field.end() {
			b = 0
		}
		sum = bits.RotateLeft32(sum, 1) + uint32(b)
	}

	return sum
}

// PatchChecksum computes the checksum of data and stores it in field. It returns
// the stored value, or 0 without touching data when the field is absent.
func PatchChecksum(data []byte, field Field) uint32 {
	if !field.Present() || len(data) < field.end() {
		return 0
	}

	sum := Checksum(data, field)
	binary.LittleEndian.PutUint32(data[field.Offset:], sum)

	return sum
}

// VerifyChecksum reports whether the checksum stored in field matches data. It
// also returns the stored and computed values. Data without a checksum field
// always verifies.
func VerifyChecksum(data []byte, field Field) (bool, uint32, uint32) {
	if !field.Present() || len(data) < field.end() {
		return true, 0, 0
	}

	stored := binary.LittleEndian.Uint32(data[field.Offset:])
	computed := Checksum(data, field)

	return stored == computed, stored, computed
}
