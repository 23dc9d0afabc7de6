package props

import (
	"crypto/sha1"
	"encoding/hex"
)

// MaxPathKeyLen is the longest path stored verbatim. Anything longer is
// keyed by its digest so the path column stays bounded no matter how
// deep a resource tree grows.
const MaxPathKeyLen = 224

// PathKey normalizes a resource path into its storage key.
//
// Paths at or under MaxPathKeyLen bytes are stored verbatim, which keeps
// keys human-readable and debuggable. Longer paths map to the lowercase
// hex SHA-1 of the full path: a fixed 40-character key, deterministic
// across processes and restarts. The digest is one-way; callers that
// need the original path keep it themselves. Collision resistance is
// that of the 160-bit digest, an accepted tradeoff.
func PathKey(path string) string {
	if len(path) <= MaxPathKeyLen {
		return path
	}

	sum := sha1.Sum([]byte(path))
	return hex.EncodeToString(sum[:])
}
