package serialization

import (
	"encoding/binary"
)

// SerializeUint64 encodes n as 8 big-endian bytes, so that encoded values
// sort in numeric order when used as keys
func SerializeUint64(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

// DeserializeUint64 is the inverse of SerializeUint64
func DeserializeUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, errorf("invalid uint64 length %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}
