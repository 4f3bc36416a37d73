package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C(t *testing.T) {
	// Check value from RFC 3720, appendix B.4.
	assert.Equal(t, uint32(0xe3069283), CRC32C([]byte("123456789")))
	assert.Zero(t, CRC32C(nil))

	assert.True(t, Verify([]byte("123456789"), 0xe3069283))
	assert.False(t, Verify([]byte("123456780"), 0xe3069283))
}
