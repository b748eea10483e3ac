package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// hashKey builds a namespaced key by hashing the parts. Hashed keys are
// fixed-length and contain no characters a backend could choke on.
func hashKey(prefix string, parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// Hash computes the SHA-256 hash of data as a 64-character hex string.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
