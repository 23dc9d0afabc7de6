package badger

import (
	"encoding/binary"
	"fmt"
)

// Serialization Strategy
// ======================
//
// Property payloads are already encoded by the time they reach the
// storage layer, so the stored value only needs to carry the kind
// discriminator next to the payload bytes. A fixed 4-byte big-endian
// kind header keeps the blob compact and avoids a second encoding
// round trip; there is no struct to marshal, so JSON would buy nothing
// here.

// encodeValue packs kind and payload into one value blob: a 4-byte
// big-endian kind followed by the raw payload bytes.
func encodeValue(kind uint32, payload []byte) []byte {
	blob := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(blob, kind)
	copy(blob[4:], payload)
	return blob
}

// decodeValue splits a stored blob back into kind and payload. The
// payload is copied, so the result outlives the transaction the blob
// came from.
func decodeValue(blob []byte) (uint32, []byte, error) {
	if len(blob) < 4 {
		return 0, nil, fmt.Errorf("value blob too short: %d bytes", len(blob))
	}
	payload := make([]byte, len(blob)-4)
	copy(payload, blob[4:])
	return binary.BigEndian.Uint32(blob), payload, nil
}
