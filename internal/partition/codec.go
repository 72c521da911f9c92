package partition

import (
	"github.com/devrev/pairdb/driver/internal/errors"
)

// DecodeStartKey decodes a partition range boundary from the catalog into
// the unsigned 16-bit hash space [0, 65535]. An empty boundary marks the
// start of the key space and decodes to 0. The catalog encodes boundaries as
// big-endian signed 16-bit integers; negative values are flipped back to
// positive so the full hash space keeps a single unsigned ordering.
func DecodeStartKey(b []byte) (int, error) {
	switch len(b) {
	case 0:
		return 0, nil
	case 2:
		key := int(int16(uint16(b[0])<<8 | uint16(b[1])))
		if key < 0 {
			key += 0x10000
		}
		return key, nil
	default:
		return 0, errors.DecodeFailed(len(b))
	}
}
