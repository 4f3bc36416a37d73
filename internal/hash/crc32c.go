// Package hash computes the CRC32-Castagnoli checksums recorded for every
// blob of a catalog snapshot.
package hash

import (
	"hash/crc32"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// CRC32C returns the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, castagnoli)
}

// Verify reports whether data matches the checksum want.
func Verify(data []byte, want uint32) bool {
	return CRC32C(data) == want
}
