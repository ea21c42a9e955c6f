package boltdb

import "encoding/binary"

// itob encodes a bucket sequence number as a big-endian key so that
// ForEach iteration over append-only buckets (spawn events, audit log)
// preserves insertion order.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
